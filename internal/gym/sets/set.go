package sets

import (
	"encoding/json"
	"time"
)

// ExerciseSet is a single performed set, linked to an exercise and a
// workout. ExerciseName is resolved via join on read, never stored.
type ExerciseSet struct {
	ID           int64
	ExerciseID   int64
	ExerciseName string
	WorkoutID    int64
	CreatedAt    time.Time
	Repetitions  int
	Weight       int
	Note         *string
}

type exerciseSetJSON struct {
	ID                int64   `json:"id"`
	ExerciseID        int64   `json:"exerciseId"`
	ExerciseName      string  `json:"exerciseName"`
	WorkoutID         int64   `json:"workoutId"`
	CreatedUtcSeconds int64   `json:"createdUtcSeconds"`
	Repetitions       int     `json:"repetitions"`
	Weight            int     `json:"weight"`
	Note              *string `json:"note,omitempty"`
}

func (s ExerciseSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(exerciseSetJSON{
		ID:                s.ID,
		ExerciseID:        s.ExerciseID,
		ExerciseName:      s.ExerciseName,
		WorkoutID:         s.WorkoutID,
		CreatedUtcSeconds: s.CreatedAt.Unix(),
		Repetitions:       s.Repetitions,
		Weight:            s.Weight,
		Note:              s.Note,
	})
}

func (s *ExerciseSet) UnmarshalJSON(data []byte) error {
	var sj exerciseSetJSON
	if err := json.Unmarshal(data, &sj); err != nil {
		return err
	}
	s.ID = sj.ID
	s.ExerciseID = sj.ExerciseID
	s.ExerciseName = sj.ExerciseName
	s.WorkoutID = sj.WorkoutID
	s.CreatedAt = time.Unix(sj.CreatedUtcSeconds, 0).UTC()
	s.Repetitions = sj.Repetitions
	s.Weight = sj.Weight
	s.Note = sj.Note
	return nil
}
