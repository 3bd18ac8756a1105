package suggest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"traintrack/internal/telemetry/tracing"
)

// Suggestion is a proposed next set. A zero-valued suggestion means
// there is no history to base one on.
type Suggestion struct {
	ExerciseID  int64 `json:"exerciseId"`
	Repetitions int   `json:"repetitions"`
	Weight      int   `json:"weight"`
}

// Engine proposes repetitions and weight for the next set through a
// tiered lookup over logged history. No call of it ever fails on an
// empty database, it falls back to a zero suggestion instead.
type Engine struct {
	db *sql.DB
}

func NewEngine(db *sql.DB) *Engine {
	return &Engine{
		db: db,
	}
}

// Suggest proposes the next set for the given workout. With an exercise
// id, the lookup is scoped to that exercise:
//  1. the most recently created set of it in the same workout,
//  2. else the earliest set of it in the most recently started workout
//     that contains it,
//  3. else zero repetitions and weight for that exercise.
//
// Without an exercise id, the lookup runs over all exercises:
//  1. the most recently created set in the same workout,
//  2. else the earliest set of the newest workout that has any sets,
//  3. else the all-zero suggestion.
func (e *Engine) Suggest(ctx context.Context, workoutID int64, exerciseID *int64) (_ Suggestion, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "suggest.engine")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("workout.id", workoutID))

	if exerciseID != nil {
		span.SetAttributes(attribute.Int64("exercise.id", *exerciseID))
		return e.suggestForExercise(ctx, workoutID, *exerciseID)
	}
	return e.suggestForWorkout(ctx, workoutID)
}

func (e *Engine) suggestForExercise(ctx context.Context, workoutID, exerciseID int64) (Suggestion, error) {
	s := Suggestion{ExerciseID: exerciseID}

	err := e.db.QueryRowContext(ctx, `
		SELECT s.repetitions, s.weight
		FROM exercise_set s
		WHERE s.workout_id = ? AND s.exercise_id = ?
		ORDER BY s.created_utc_s DESC, s.id DESC
		LIMIT 1`,
		workoutID, exerciseID,
	).Scan(&s.Repetitions, &s.Weight)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Suggestion{}, fmt.Errorf("suggest for exercise %d, same workout: %w", exerciseID, err)
	}

	// nothing in this workout yet, replay the first set of the most
	// recently started workout that contains this exercise
	err = e.db.QueryRowContext(ctx, `
		SELECT s.repetitions, s.weight
		FROM exercise_set s
		WHERE s.exercise_id = ?
			AND s.workout_id = (
				SELECT w.id
				FROM workout w
				JOIN exercise_set ws ON ws.workout_id = w.id
				WHERE ws.exercise_id = ?
				ORDER BY w.started_utc_s DESC, w.id DESC
				LIMIT 1
			)
		ORDER BY s.created_utc_s ASC, s.id ASC
		LIMIT 1`,
		exerciseID, exerciseID,
	).Scan(&s.Repetitions, &s.Weight)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Suggestion{}, fmt.Errorf("suggest for exercise %d, prior workout: %w", exerciseID, err)
	}

	// no history for this exercise anywhere
	return Suggestion{ExerciseID: exerciseID}, nil
}

func (e *Engine) suggestForWorkout(ctx context.Context, workoutID int64) (Suggestion, error) {
	var s Suggestion

	err := e.db.QueryRowContext(ctx, `
		SELECT s.exercise_id, s.repetitions, s.weight
		FROM exercise_set s
		WHERE s.workout_id = ?
		ORDER BY s.created_utc_s DESC, s.id DESC
		LIMIT 1`,
		workoutID,
	).Scan(&s.ExerciseID, &s.Repetitions, &s.Weight)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Suggestion{}, fmt.Errorf("suggest for workout %d, same workout: %w", workoutID, err)
	}

	// empty workout, replay the first set of the newest workout with history
	err = e.db.QueryRowContext(ctx, `
		SELECT s.exercise_id, s.repetitions, s.weight
		FROM exercise_set s
		WHERE s.workout_id = (SELECT MAX(workout_id) FROM exercise_set)
		ORDER BY s.created_utc_s ASC, s.id ASC
		LIMIT 1`,
	).Scan(&s.ExerciseID, &s.Repetitions, &s.Weight)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Suggestion{}, fmt.Errorf("suggest for workout %d, prior workout: %w", workoutID, err)
	}

	// no history anywhere
	return Suggestion{}, nil
}
