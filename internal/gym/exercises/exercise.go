package exercises

type Exercise struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
