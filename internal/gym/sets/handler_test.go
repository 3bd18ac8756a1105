package sets

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"traintrack/internal/gym/exercises"
	"traintrack/internal/gym/workouts"
	"traintrack/internal/telemetry/metrics"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (*mux.Router, *Repo, *sql.DB, *metrics.Manager) {
	t.Helper()

	repo, conn := newTestRepo(t)
	metricsManager := metrics.NewTestManager()
	handler := NewHandler(repo, workouts.NewRepo(conn), exercises.NewRepo(conn), metricsManager)

	r := mux.NewRouter()
	r.HandleFunc("/sets", handler.HandleList).Methods("GET")
	r.HandleFunc("/sets", handler.HandleCreate).Methods("POST")
	r.HandleFunc("/sets/{id}", handler.HandleGet).Methods("GET")
	r.HandleFunc("/sets/{id}", handler.HandleUpdate).Methods("PUT")
	r.HandleFunc("/sets/{id}", handler.HandleDelete).Methods("DELETE")
	r.HandleFunc("/workouts/{id}/sets", handler.HandleListByWorkout).Methods("GET")
	r.HandleFunc("/exercises/{id}/sets", handler.HandleListByExercise).Methods("GET")

	return r, repo, conn, metricsManager
}

func TestHandler_Create(t *testing.T) {
	router, _, conn, metricsManager := newTestRouter(t)

	benchID := seedExercise(t, conn, "Bench Press")
	workoutID := seedWorkout(t, conn, 1700000000)

	body := fmt.Sprintf(
		`{"exerciseId":%d,"workoutId":%d,"repetitions":8,"weight":80,"note":"  pb  "}`,
		benchID, workoutID,
	)
	req := httptest.NewRequest("POST", "/sets", strings.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)

	var created ExerciseSet
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Positive(t, created.ID)
	assert.Equal(t, "Bench Press", created.ExerciseName)
	assert.Equal(t, 8, created.Repetitions)
	assert.Equal(t, 80, created.Weight)
	require.NotNil(t, created.Note)
	assert.Equal(t, "pb", *created.Note)

	assert.InDelta(t, 1, testutil.ToFloat64(metricsManager.CounterSetsLogged), 0.01)
}

func TestHandler_Create_missingIDs(t *testing.T) {
	router, _, _, _ := newTestRouter(t)

	req := httptest.NewRequest("POST", "/sets", strings.NewReader(`{"repetitions":8,"weight":80}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandler_Update(t *testing.T) {
	router, repo, conn, _ := newTestRouter(t)
	ctx := context.Background()

	benchID := seedExercise(t, conn, "Bench Press")
	workoutID := seedWorkout(t, conn, 1700000000)

	added, err := repo.Upsert(ctx, UpsertParams{
		ExerciseID:  benchID,
		WorkoutID:   workoutID,
		Repetitions: 8,
		Weight:      80,
	})
	require.NoError(t, err)

	body := fmt.Sprintf(
		`{"exerciseId":%d,"workoutId":%d,"repetitions":5,"weight":90}`,
		benchID, workoutID,
	)
	req := httptest.NewRequest("PUT", fmt.Sprintf("/sets/%d", added.ID), strings.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var updated ExerciseSet
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &updated))
	assert.Equal(t, 5, updated.Repetitions)
	assert.Equal(t, 90, updated.Weight)
	assert.Equal(t, added.CreatedAt, updated.CreatedAt)

	req = httptest.NewRequest("PUT", "/sets/999", strings.NewReader(body))
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandler_GetListDelete(t *testing.T) {
	router, repo, conn, _ := newTestRouter(t)
	ctx := context.Background()

	benchID := seedExercise(t, conn, "Bench Press")
	workoutID := seedWorkout(t, conn, 1700000000)

	added, err := repo.Upsert(ctx, UpsertParams{
		ExerciseID:  benchID,
		WorkoutID:   workoutID,
		Repetitions: 8,
		Weight:      80,
	})
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", fmt.Sprintf("/sets/%d", added.ID), nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var got ExerciseSet
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, *added, got)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/sets", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var list SetsListResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Total)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("DELETE", fmt.Sprintf("/sets/%d", added.ID), nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var deleted DeleteSetResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &deleted))
	assert.Equal(t, added.ID, deleted.DeletedID)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", fmt.Sprintf("/sets/%d", added.ID), nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandler_ListByWorkoutAndExercise(t *testing.T) {
	router, repo, conn, _ := newTestRouter(t)
	ctx := context.Background()

	benchID := seedExercise(t, conn, "Bench Press")
	squatID := seedExercise(t, conn, "Squat")
	workout1 := seedWorkout(t, conn, 1700000000)
	workout2 := seedWorkout(t, conn, 1700100000)

	for _, params := range []UpsertParams{
		{ExerciseID: benchID, WorkoutID: workout1, Repetitions: 8, Weight: 80},
		{ExerciseID: squatID, WorkoutID: workout1, Repetitions: 5, Weight: 120},
		{ExerciseID: benchID, WorkoutID: workout2, Repetitions: 6, Weight: 85},
	} {
		_, err := repo.Upsert(ctx, params)
		require.NoError(t, err)
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", fmt.Sprintf("/workouts/%d/sets", workout1), nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var byWorkout SetsListResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &byWorkout))
	assert.Equal(t, 2, byWorkout.Total)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", fmt.Sprintf("/exercises/%d/sets", benchID), nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var byExercise SetsListResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &byExercise))
	assert.Equal(t, 2, byExercise.Total)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/workouts/999/sets", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandler_unknownReferencedEntities(t *testing.T) {
	router, _, conn, _ := newTestRouter(t)

	benchID := seedExercise(t, conn, "Bench Press")
	workoutID := seedWorkout(t, conn, 1700000000)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/workouts/999/sets", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/exercises/999/sets", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	body := fmt.Sprintf(`{"exerciseId":%d,"workoutId":999,"repetitions":8,"weight":80}`, benchID)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("POST", "/sets", strings.NewReader(body)))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "workout not found")

	body = fmt.Sprintf(`{"exerciseId":999,"workoutId":%d,"repetitions":8,"weight":80}`, workoutID)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("POST", "/sets", strings.NewReader(body)))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "exercise not found")
}
