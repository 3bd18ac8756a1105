package sets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"traintrack/internal/db"
	"traintrack/internal/gym"
	"traintrack/internal/telemetry/tracing"
)

var ErrSetNotFound = errors.New("exercise set not found")

const baseSelect = `
	SELECT s.id, s.exercise_id, e.name, s.workout_id, s.created_utc_s, s.repetitions, s.weight, s.note
	FROM exercise_set s
	JOIN exercise e ON e.id = s.exercise_id`

// listFilter picks one of a fixed set of list queries. Queries are
// spelled out per filter instead of assembled dynamically.
type listFilter int

const (
	filterAll listFilter = iota
	filterByWorkout
	filterByExercise
)

func (f listFilter) query() string {
	switch f {
	case filterByWorkout:
		return baseSelect + ` WHERE s.workout_id = ? ORDER BY s.created_utc_s ASC, s.id ASC`
	case filterByExercise:
		return baseSelect + ` WHERE s.exercise_id = ? ORDER BY s.created_utc_s DESC, s.id DESC`
	default:
		return baseSelect + ` ORDER BY s.created_utc_s DESC, s.id DESC`
	}
}

type UpsertParams struct {
	ID          *int64
	ExerciseID  int64
	WorkoutID   int64
	Repetitions int
	Weight      int
	Note        string
}

type Repo struct {
	db *sql.DB
	// now is swapped out in tests
	now func() time.Time
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{
		db:  db,
		now: time.Now,
	}
}

func (r *Repo) Get(ctx context.Context, id int64) (_ *ExerciseSet, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.sets.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("id", id))

	s, err := getSet(ctx, r.db, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get set %d: %w", id, err)
	}

	return s, nil
}

// List returns all sets, most recently created first.
func (r *Repo) List(ctx context.Context) (_ []ExerciseSet, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.sets.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	return r.list(ctx, filterAll)
}

// ListByWorkout returns the workout's sets in creation order.
func (r *Repo) ListByWorkout(ctx context.Context, workoutID int64) (_ []ExerciseSet, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.sets.listByWorkout")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("workout.id", workoutID))

	return r.list(ctx, filterByWorkout, workoutID)
}

// ListByExercise returns the exercise's sets, most recently created first.
func (r *Repo) ListByExercise(ctx context.Context, exerciseID int64) (_ []ExerciseSet, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.sets.listByExercise")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("exercise.id", exerciseID))

	return r.list(ctx, filterByExercise, exerciseID)
}

func (r *Repo) list(ctx context.Context, filter listFilter, args ...any) ([]ExerciseSet, error) {
	rows, err := r.db.QueryContext(ctx, filter.query(), args...)
	if err != nil {
		return nil, fmt.Errorf("list sets: %w", err)
	}
	defer rows.Close()

	var sets []ExerciseSet
	for rows.Next() {
		s, err := scanSet(rows)
		if err != nil {
			return nil, fmt.Errorf("list sets, scan row: %w", err)
		}
		sets = append(sets, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sets, rows: %w", err)
	}

	return sets, nil
}

// Upsert inserts a new set when params.ID is nil, otherwise updates the
// existing set in place, preserving its original creation timestamp.
// The write and the joined re-read run in one transaction so the
// returned record reflects a consistent snapshot.
func (r *Repo) Upsert(ctx context.Context, params UpsertParams) (_ *ExerciseSet, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.sets.upsert")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	notePtr := gym.NormalizeNote(params.Note)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("upsert set, begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var id int64
	if params.ID == nil {
		createdAt := r.now().UTC().Truncate(time.Second)
		err = tx.QueryRowContext(ctx,
			`INSERT INTO exercise_set (exercise_id, workout_id, created_utc_s, repetitions, weight, note)
			VALUES (?, ?, ?, ?, ?, ?) RETURNING id`,
			params.ExerciseID, params.WorkoutID, createdAt.Unix(),
			params.Repetitions, params.Weight, notePtr,
		).Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("insert set: %w", err)
		}
	} else {
		id = *params.ID
		result, execErr := tx.ExecContext(ctx,
			`UPDATE exercise_set
			SET exercise_id = ?, workout_id = ?, repetitions = ?, weight = ?, note = ?
			WHERE id = ?`,
			params.ExerciseID, params.WorkoutID,
			params.Repetitions, params.Weight, notePtr, id,
		)
		if execErr != nil {
			err = fmt.Errorf("update set %d: %w", id, execErr)
			return nil, err
		}
		rowsAffected, raErr := result.RowsAffected()
		if raErr != nil {
			err = fmt.Errorf("update set %d, rows affected: %w", id, raErr)
			return nil, err
		}
		if rowsAffected == 0 {
			err = ErrSetNotFound
			return nil, err
		}
	}

	span.SetAttributes(attribute.Int64("set.id", id))

	s, err := getSet(ctx, tx, id)
	if errors.Is(err, sql.ErrNoRows) {
		// the row was just written, so the join on exercise came up empty
		err = fmt.Errorf("set %d references a missing exercise %d", id, params.ExerciseID)
		return nil, err
	}
	if err != nil {
		err = fmt.Errorf("upsert set, re-read %d: %w", id, err)
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("upsert set, commit: %w", err)
	}

	return s, nil
}

func (r *Repo) Delete(ctx context.Context, id int64) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.sets.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("id", id))

	result, err := r.db.ExecContext(ctx,
		`DELETE FROM exercise_set WHERE id = ?`, id,
	)
	if err != nil {
		return fmt.Errorf("delete set %d: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete set %d, rows affected: %w", id, err)
	}
	if rowsAffected == 0 {
		return ErrSetNotFound
	}

	return nil
}

func getSet(ctx context.Context, q db.Querier, id int64) (*ExerciseSet, error) {
	return scanSet(q.QueryRowContext(ctx, baseSelect+` WHERE s.id = ?`, id))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSet(row rowScanner) (*ExerciseSet, error) {
	var (
		s          ExerciseSet
		createdUTC int64
	)
	if err := row.Scan(
		&s.ID, &s.ExerciseID, &s.ExerciseName, &s.WorkoutID,
		&createdUTC, &s.Repetitions, &s.Weight, &s.Note,
	); err != nil {
		return nil, err
	}
	s.CreatedAt = time.Unix(createdUTC, 0).UTC()
	return &s, nil
}
