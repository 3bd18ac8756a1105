package workouts

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"traintrack/internal/telemetry/metrics"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (*mux.Router, *Repo, *metrics.Manager) {
	t.Helper()

	repo, _ := newTestRepo(t)
	metricsManager := metrics.NewTestManager()
	handler := NewHandler(repo, metricsManager)

	r := mux.NewRouter()
	r.HandleFunc("/workouts", handler.HandleList).Methods("GET")
	r.HandleFunc("/workouts", handler.HandleCreate).Methods("POST")
	r.HandleFunc("/workouts/{id}", handler.HandleGet).Methods("GET")
	r.HandleFunc("/workouts/{id}", handler.HandleDelete).Methods("DELETE")
	r.HandleFunc("/workouts/{id}/note", handler.HandleUpdateNote).Methods("PUT")

	return r, repo, metricsManager
}

func TestHandler_Create(t *testing.T) {
	router, repo, metricsManager := newTestRouter(t)

	started := time.Date(2024, 5, 20, 18, 30, 45, 0, time.UTC)
	repo.now = func() time.Time { return started }

	req := httptest.NewRequest("POST", "/workouts", strings.NewReader(`{"note":"leg day"}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)

	var created Workout
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Positive(t, created.ID)
	assert.Equal(t, started, created.StartedAt)
	require.NotNil(t, created.Note)
	assert.Equal(t, "leg day", *created.Note)

	assert.InDelta(t, 1, testutil.ToFloat64(metricsManager.CounterWorkoutsCreated), 0.01)
}

func TestHandler_Create_emptyBody(t *testing.T) {
	router, _, _ := newTestRouter(t)

	req := httptest.NewRequest("POST", "/workouts", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)

	var created Workout
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Nil(t, created.Note)
}

func TestHandler_GetList(t *testing.T) {
	router, repo, _ := newTestRouter(t)
	ctx := context.Background()

	first, err := repo.Create(ctx, "push day")
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", fmt.Sprintf("/workouts/%d", first.ID), nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var got Workout
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, *first, got)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/workouts", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var list WorkoutsListResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Total)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/workouts/999", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandler_UpdateNote(t *testing.T) {
	router, repo, _ := newTestRouter(t)

	created, err := repo.Create(context.Background(), "")
	require.NoError(t, err)

	req := httptest.NewRequest(
		"PUT",
		fmt.Sprintf("/workouts/%d/note", created.ID),
		strings.NewReader(`{"note":"deload week"}`),
	)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var updated Workout
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &updated))
	require.NotNil(t, updated.Note)
	assert.Equal(t, "deload week", *updated.Note)

	req = httptest.NewRequest("PUT", "/workouts/999/note", strings.NewReader(`{"note":"x"}`))
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandler_Delete(t *testing.T) {
	router, repo, _ := newTestRouter(t)

	created, err := repo.Create(context.Background(), "")
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("DELETE", fmt.Sprintf("/workouts/%d", created.ID), nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var deleted DeleteWorkoutResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &deleted))
	assert.Equal(t, created.ID, deleted.DeletedID)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("DELETE", fmt.Sprintf("/workouts/%d", created.ID), nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
