package exercises

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"traintrack/internal/telemetry/tracing"
)

var (
	ErrExerciseNotFound = errors.New("exercise not found")
	ErrExerciseInUse    = errors.New("exercise is used in at least one set")
)

type Repo struct {
	db *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Get(ctx context.Context, id int64) (_ *Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("id", id))

	var e Exercise
	err = r.db.QueryRowContext(ctx,
		`SELECT id, name FROM exercise WHERE id = ?`, id,
	).Scan(&e.ID, &e.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrExerciseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get exercise %d: %w", id, err)
	}

	return &e, nil
}

func (r *Repo) List(ctx context.Context) (_ []Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name FROM exercise ORDER BY name ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list exercises: %w", err)
	}
	defer rows.Close()

	var exercises []Exercise
	for rows.Next() {
		var e Exercise
		if err := rows.Scan(&e.ID, &e.Name); err != nil {
			return nil, fmt.Errorf("list exercises, scan row: %w", err)
		}
		exercises = append(exercises, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list exercises, rows: %w", err)
	}

	return exercises, nil
}

// Create stores a new exercise with the given name, trimmed. Name
// validation (empty, duplicate) is left to the caller.
func (r *Repo) Create(ctx context.Context, name string) (_ *Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	name = strings.TrimSpace(name)

	var e Exercise
	err = r.db.QueryRowContext(ctx,
		`INSERT INTO exercise (name) VALUES (?) RETURNING id, name`, name,
	).Scan(&e.ID, &e.Name)
	if err != nil {
		return nil, fmt.Errorf("create exercise [%s]: %w", name, err)
	}

	span.SetAttributes(attribute.Int64("exercise.id", e.ID))

	return &e, nil
}

func (r *Repo) Update(ctx context.Context, id int64, name string) (_ *Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("id", id))

	name = strings.TrimSpace(name)

	var e Exercise
	err = r.db.QueryRowContext(ctx,
		`UPDATE exercise SET name = ? WHERE id = ? RETURNING id, name`, name, id,
	).Scan(&e.ID, &e.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrExerciseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update exercise %d: %w", id, err)
	}

	return &e, nil
}

// Delete removes the exercise with the given id. Deleting an exercise
// that is still referenced by sets fails with ErrExerciseInUse. The
// usage check and the delete run in one transaction so a set logged in
// between cannot slip past the check.
func (r *Repo) Delete(ctx context.Context, id int64) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("id", id))

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete exercise %d, begin tx: %w", id, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var count int64
	if err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM exercise_set WHERE exercise_id = ?`, id,
	).Scan(&count); err != nil {
		return fmt.Errorf("delete exercise %d, count sets: %w", id, err)
	}
	if count > 0 {
		err = ErrExerciseInUse
		return err
	}

	result, execErr := tx.ExecContext(ctx,
		`DELETE FROM exercise WHERE id = ?`, id,
	)
	if execErr != nil {
		err = fmt.Errorf("delete exercise %d: %w", id, execErr)
		return err
	}

	rowsAffected, raErr := result.RowsAffected()
	if raErr != nil {
		err = fmt.Errorf("delete exercise %d, rows affected: %w", id, raErr)
		return err
	}
	if rowsAffected == 0 {
		err = ErrExerciseNotFound
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("delete exercise %d, commit: %w", id, err)
	}
	return nil
}

// CountInSets returns the number of sets referencing the exercise.
func (r *Repo) CountInSets(ctx context.Context, id int64) (_ int64, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.countInSets")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("id", id))

	var count int64
	err = r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM exercise_set WHERE exercise_id = ?`, id,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count sets for exercise %d: %w", id, err)
	}

	return count, nil
}

// Exists reports whether an exercise with the given id exists.
func (r *Repo) Exists(ctx context.Context, id int64) (_ bool, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.exists")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int64("id", id))

	var exists bool
	err = r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM exercise WHERE id = ?)`, id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("exercise exists %d: %w", id, err)
	}

	return exists, nil
}

// ExistsName reports whether an exercise with the given name exists,
// compared case-insensitively on the trimmed name.
func (r *Repo) ExistsName(ctx context.Context, name string) (_ bool, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.existsName")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var exists bool
	err = r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM exercise WHERE LOWER(name) = LOWER(?))`,
		strings.TrimSpace(name),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("exercise exists by name [%s]: %w", name, err)
	}

	return exists, nil
}
