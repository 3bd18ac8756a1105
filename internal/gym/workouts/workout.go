package workouts

import (
	"encoding/json"
	"time"
)

// Workout is a single training session. Sets reference it via workout id.
type Workout struct {
	ID        int64
	StartedAt time.Time
	Note      *string
}

type workoutJSON struct {
	ID                int64   `json:"id"`
	StartedUtcSeconds int64   `json:"startedUtcSeconds"`
	Note              *string `json:"note,omitempty"`
}

func (w Workout) MarshalJSON() ([]byte, error) {
	return json.Marshal(workoutJSON{
		ID:                w.ID,
		StartedUtcSeconds: w.StartedAt.Unix(),
		Note:              w.Note,
	})
}

func (w *Workout) UnmarshalJSON(data []byte) error {
	var wj workoutJSON
	if err := json.Unmarshal(data, &wj); err != nil {
		return err
	}
	w.ID = wj.ID
	w.StartedAt = time.Unix(wj.StartedUtcSeconds, 0).UTC()
	w.Note = wj.Note
	return nil
}
