package workouts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"traintrack/internal/gym"
	"traintrack/internal/telemetry/tracing"
)

var ErrWorkoutNotFound = errors.New("workout not found")

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

func (r *Repo) Get(ctx context.Context, id int64) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("id", id))

	w, err := scanWorkout(r.db.QueryRowContext(ctx,
		`SELECT id, started_utc_s, note FROM workout WHERE id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrWorkoutNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get workout %d: %w", id, err)
	}

	return w, nil
}

// Exists reports whether a workout with the given id exists.
func (r *Repo) Exists(ctx context.Context, id int64) (_ bool, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.exists")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("id", id))

	var exists bool
	err = r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM workout WHERE id = ?)`, id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("workout exists %d: %w", id, err)
	}

	return exists, nil
}

// List returns all workouts, most recently started first.
func (r *Repo) List(ctx context.Context) (_ []Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, started_utc_s, note FROM workout ORDER BY started_utc_s DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list workouts: %w", err)
	}
	defer rows.Close()

	var workouts []Workout
	for rows.Next() {
		w, err := scanWorkout(rows)
		if err != nil {
			return nil, fmt.Errorf("list workouts, scan row: %w", err)
		}
		workouts = append(workouts, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list workouts, rows: %w", err)
	}

	return workouts, nil
}

// Create starts a new workout at the current time, with an optional note.
// The start timestamp is stored with second precision, in UTC.
func (r *Repo) Create(ctx context.Context, note string) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	startedAt := r.now().UTC().Truncate(time.Second)
	notePtr := gym.NormalizeNote(note)

	var id int64
	err = r.db.QueryRowContext(ctx,
		`INSERT INTO workout (started_utc_s, note) VALUES (?, ?) RETURNING id`,
		startedAt.Unix(), notePtr,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("create workout: %w", err)
	}

	span.SetAttributes(attribute.Int64("workout.id", id))

	return &Workout{
		ID:        id,
		StartedAt: startedAt,
		Note:      notePtr,
	}, nil
}

// UpdateNote replaces the workout note. An empty or whitespace-only
// note clears it.
func (r *Repo) UpdateNote(ctx context.Context, id int64, note string) (_ *Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.updateNote")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("id", id))

	w, err := scanWorkout(r.db.QueryRowContext(ctx,
		`UPDATE workout SET note = ? WHERE id = ? RETURNING id, started_utc_s, note`,
		gym.NormalizeNote(note), id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrWorkoutNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update workout %d note: %w", id, err)
	}

	return w, nil
}

// Delete removes the workout and, through the schema cascade, all its sets.
func (r *Repo) Delete(ctx context.Context, id int64) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("id", id))

	result, err := r.db.ExecContext(ctx,
		`DELETE FROM workout WHERE id = ?`, id,
	)
	if err != nil {
		return fmt.Errorf("delete workout %d: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete workout %d, rows affected: %w", id, err)
	}
	if rowsAffected == 0 {
		return ErrWorkoutNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkout(row rowScanner) (*Workout, error) {
	var (
		w          Workout
		startedUTC int64
	)
	if err := row.Scan(&w.ID, &startedUTC, &w.Note); err != nil {
		return nil, err
	}
	w.StartedAt = time.Unix(startedUTC, 0).UTC()
	return &w, nil
}
