package exercises

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"traintrack/internal/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) (*Repo, *sql.DB) {
	t.Helper()

	ctx := context.Background()
	database, err := db.NewDB(ctx, db.NewDBParams{
		Path: filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, database.Close())
	})
	require.NoError(t, database.ApplySchema(ctx))

	return NewRepo(database.Conn()), database.Conn()
}

func TestRepo_CreateGet(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, "  Bench Press ")
	require.NoError(t, err)
	assert.Equal(t, "Bench Press", created.Name)
	assert.Positive(t, created.ID)

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func TestRepo_Get_notFound(t *testing.T) {
	repo, _ := newTestRepo(t)

	_, err := repo.Get(context.Background(), 123)
	assert.ErrorIs(t, err, ErrExerciseNotFound)
}

func TestRepo_List_sortedByName(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	for _, name := range []string{"Squat", "Bench Press", "Deadlift"} {
		_, err := repo.Create(ctx, name)
		require.NoError(t, err)
	}

	exercises, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, exercises, 3)
	assert.Equal(t, "Bench Press", exercises[0].Name)
	assert.Equal(t, "Deadlift", exercises[1].Name)
	assert.Equal(t, "Squat", exercises[2].Name)
}

func TestRepo_Update(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, "Bench Press")
	require.NoError(t, err)

	updated, err := repo.Update(ctx, created.ID, " Incline Bench Press ")
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Incline Bench Press", updated.Name)

	_, err = repo.Update(ctx, created.ID+100, "Nope")
	assert.ErrorIs(t, err, ErrExerciseNotFound)
}

func TestRepo_Delete(t *testing.T) {
	repo, conn := newTestRepo(t)
	ctx := context.Background()

	free, err := repo.Create(ctx, "Bench Press")
	require.NoError(t, err)
	used, err := repo.Create(ctx, "Squat")
	require.NoError(t, err)

	_, err = conn.ExecContext(ctx, `INSERT INTO workout (started_utc_s) VALUES (1700000000)`)
	require.NoError(t, err)
	_, err = conn.ExecContext(ctx,
		`INSERT INTO exercise_set (exercise_id, workout_id, created_utc_s, repetitions, weight)
		VALUES (?, 1, 1700000100, 8, 80)`, used.ID)
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, free.ID))
	_, err = repo.Get(ctx, free.ID)
	assert.ErrorIs(t, err, ErrExerciseNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, used.ID), ErrExerciseInUse)
	assert.ErrorIs(t, repo.Delete(ctx, 999), ErrExerciseNotFound)

	// the refused delete must leave the exercise in place
	got, err := repo.Get(ctx, used.ID)
	require.NoError(t, err)
	assert.Equal(t, used, got)
}

func TestRepo_Exists(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, "Bench Press")
	require.NoError(t, err)

	exists, err := repo.Exists(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.Exists(ctx, created.ID+100)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRepo_CountInSets(t *testing.T) {
	repo, conn := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, "Deadlift")
	require.NoError(t, err)

	count, err := repo.CountInSets(ctx, created.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	_, err = conn.ExecContext(ctx, `INSERT INTO workout (started_utc_s) VALUES (1700000000)`)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err = conn.ExecContext(ctx,
			`INSERT INTO exercise_set (exercise_id, workout_id, created_utc_s, repetitions, weight)
			VALUES (?, 1, ?, 5, 100)`, created.ID, 1700000100+i)
		require.NoError(t, err)
	}

	count, err = repo.CountInSets(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestRepo_ExistsName(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, "Bench Press")
	require.NoError(t, err)

	for _, name := range []string{"Bench Press", "bench press", "  BENCH PRESS  "} {
		exists, err := repo.ExistsName(ctx, name)
		require.NoError(t, err)
		assert.True(t, exists, "name: %q", name)
	}

	exists, err := repo.ExistsName(ctx, "Squat")
	require.NoError(t, err)
	assert.False(t, exists)
}
