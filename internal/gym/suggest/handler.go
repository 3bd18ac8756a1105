package suggest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"traintrack/internal/telemetry/metrics"
	"traintrack/internal/telemetry/tracing"
	"traintrack/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type suggestionEngine interface {
	Suggest(ctx context.Context, workoutID int64, exerciseID *int64) (Suggestion, error)
}

type workoutsChecker interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

type SuggestRequest struct {
	ExerciseID *int64 `json:"exerciseId,omitempty"`
}

type Handler struct {
	engine   suggestionEngine
	workouts workoutsChecker
	metrics  *metrics.Manager
}

func NewHandler(engine suggestionEngine, workouts workoutsChecker, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		engine:   engine,
		workouts: workouts,
		metrics:  metricsManager,
	}
}

func (handler *Handler) HandleSuggest(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.suggest")
	defer span.End()

	idStr := mux.Vars(r)["id"]
	if idStr == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return
	}
	workoutID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		http.Error(w, "error, id NaN", http.StatusBadRequest)
		return
	}

	workoutExists, err := handler.workouts.Exists(ctx, workoutID)
	if err != nil {
		log.Errorf("suggest, check workout %d: %s", workoutID, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if !workoutExists {
		http.Error(w, "workout not found", http.StatusNotFound)
		return
	}

	// the exercise id is optional, an empty body suggests for the
	// workout as a whole
	var req SuggestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		log.Errorf("suggest, unmarshal json params: %s", err)
		http.Error(w, "invalid suggest request", http.StatusBadRequest)
		return
	}

	suggestion, err := handler.engine.Suggest(ctx, workoutID, req.ExerciseID)
	if err != nil {
		log.Errorf("failed to suggest next set for workout %d: %s", workoutID, err)
		http.Error(w, "failed to suggest next set", http.StatusInternalServerError)
		return
	}

	handler.metrics.CounterSuggestionsServed.Inc()

	suggestionJson, err := json.Marshal(suggestion)
	if err != nil {
		log.Errorf("failed to marshal suggestion: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, suggestionJson, http.StatusOK)
}
