package sets

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"traintrack/internal/telemetry/metrics"
	"traintrack/internal/telemetry/tracing"
	"traintrack/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type setsRepo interface {
	Get(ctx context.Context, id int64) (*ExerciseSet, error)
	List(ctx context.Context) ([]ExerciseSet, error)
	ListByWorkout(ctx context.Context, workoutID int64) ([]ExerciseSet, error)
	ListByExercise(ctx context.Context, exerciseID int64) ([]ExerciseSet, error)
	Upsert(ctx context.Context, params UpsertParams) (*ExerciseSet, error)
	Delete(ctx context.Context, id int64) error
}

type workoutsChecker interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

type exercisesChecker interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

type SetRequest struct {
	ExerciseID  int64  `json:"exerciseId"`
	WorkoutID   int64  `json:"workoutId"`
	Repetitions int    `json:"repetitions"`
	Weight      int    `json:"weight"`
	Note        string `json:"note"`
}

type DeleteSetResponse struct {
	DeletedID int64 `json:"deletedId"`
}

type SetsListResponse struct {
	Sets  []ExerciseSet `json:"sets"`
	Total int           `json:"total"`
}

type Handler struct {
	repo      setsRepo
	workouts  workoutsChecker
	exercises exercisesChecker
	metrics   *metrics.Manager
}

func NewHandler(
	repo setsRepo,
	workouts workoutsChecker,
	exercises exercisesChecker,
	metricsManager *metrics.Manager,
) *Handler {
	return &Handler{
		repo:      repo,
		workouts:  workouts,
		exercises: exercises,
		metrics:   metricsManager,
	}
}

// referencedEntitiesExist answers 404 and returns false when the
// workout or exercise a set points at does not exist.
func (handler *Handler) referencedEntitiesExist(ctx context.Context, w http.ResponseWriter, req SetRequest) bool {
	workoutExists, err := handler.workouts.Exists(ctx, req.WorkoutID)
	if err != nil {
		log.Errorf("set request, check workout %d: %s", req.WorkoutID, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return false
	}
	if !workoutExists {
		http.Error(w, "workout not found", http.StatusNotFound)
		return false
	}

	exerciseExists, err := handler.exercises.Exists(ctx, req.ExerciseID)
	if err != nil {
		log.Errorf("set request, check exercise %d: %s", req.ExerciseID, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return false
	}
	if !exerciseExists {
		http.Error(w, "exercise not found", http.StatusNotFound)
		return false
	}

	return true
}

func (handler *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.sets.create")
	defer span.End()

	req, ok := decodeSetRequest(w, r)
	if !ok {
		return
	}
	if !handler.referencedEntitiesExist(ctx, w, req) {
		return
	}

	added, err := handler.repo.Upsert(ctx, UpsertParams{
		ExerciseID:  req.ExerciseID,
		WorkoutID:   req.WorkoutID,
		Repetitions: req.Repetitions,
		Weight:      req.Weight,
		Note:        req.Note,
	})
	if err != nil {
		log.Errorf("failed to add new set [workout %d, exercise %d]: %s", req.WorkoutID, req.ExerciseID, err)
		http.Error(w, "error, failed to add new set", http.StatusInternalServerError)
		return
	}

	handler.metrics.CounterSetsLogged.Inc()
	log.Debugf("new set logged: %d [%s] %d x %d", added.ID, added.ExerciseName, added.Repetitions, added.Weight)

	addedJson, err := json.Marshal(added)
	if err != nil {
		log.Errorf("failed to marshal new set: %s", err)
		http.Error(w, "error, failed to add new set", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, addedJson, http.StatusCreated)
}

func (handler *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.sets.update")
	defer span.End()

	id, err := idParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	req, ok := decodeSetRequest(w, r)
	if !ok {
		return
	}
	if !handler.referencedEntitiesExist(ctx, w, req) {
		return
	}

	updated, err := handler.repo.Upsert(ctx, UpsertParams{
		ID:          &id,
		ExerciseID:  req.ExerciseID,
		WorkoutID:   req.WorkoutID,
		Repetitions: req.Repetitions,
		Weight:      req.Weight,
		Note:        req.Note,
	})
	if errors.Is(err, ErrSetNotFound) {
		http.Error(w, "set not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Errorf("failed to update set %d: %s", id, err)
		http.Error(w, "error, failed to update set", http.StatusInternalServerError)
		return
	}

	updatedJson, err := json.Marshal(updated)
	if err != nil {
		log.Errorf("failed to marshal updated set: %s", err)
		http.Error(w, "failed to marshal updated set", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, updatedJson, http.StatusOK)
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.sets.get")
	defer span.End()

	id, err := idParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s, err := handler.repo.Get(ctx, id)
	if errors.Is(err, ErrSetNotFound) {
		http.Error(w, "set not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Errorf("failed to get set %d: %s", id, err)
		http.Error(w, "failed to get set", http.StatusInternalServerError)
		return
	}

	setJson, err := json.Marshal(s)
	if err != nil {
		log.Errorf("failed to marshal set: %s", err)
		http.Error(w, "failed to marshal set", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, setJson, http.StatusOK)
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.sets.list")
	defer span.End()

	sets, err := handler.repo.List(ctx)
	if err != nil {
		log.Errorf("list sets error: %s", err)
		http.Error(w, "failed to get sets", http.StatusInternalServerError)
		return
	}

	handler.writeSetsList(w, sets)
}

func (handler *Handler) HandleListByWorkout(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.sets.listByWorkout")
	defer span.End()

	workoutID, err := idParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	workoutExists, err := handler.workouts.Exists(ctx, workoutID)
	if err != nil {
		log.Errorf("list sets, check workout %d: %s", workoutID, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if !workoutExists {
		http.Error(w, "workout not found", http.StatusNotFound)
		return
	}

	sets, err := handler.repo.ListByWorkout(ctx, workoutID)
	if err != nil {
		log.Errorf("list sets for workout %d error: %s", workoutID, err)
		http.Error(w, "failed to get sets", http.StatusInternalServerError)
		return
	}

	handler.writeSetsList(w, sets)
}

func (handler *Handler) HandleListByExercise(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.sets.listByExercise")
	defer span.End()

	exerciseID, err := idParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	exerciseExists, err := handler.exercises.Exists(ctx, exerciseID)
	if err != nil {
		log.Errorf("list sets, check exercise %d: %s", exerciseID, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if !exerciseExists {
		http.Error(w, "exercise not found", http.StatusNotFound)
		return
	}

	sets, err := handler.repo.ListByExercise(ctx, exerciseID)
	if err != nil {
		log.Errorf("list sets for exercise %d error: %s", exerciseID, err)
		http.Error(w, "failed to get sets", http.StatusInternalServerError)
		return
	}

	handler.writeSetsList(w, sets)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.sets.delete")
	defer span.End()

	id, err := idParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err = handler.repo.Delete(ctx, id)
	if errors.Is(err, ErrSetNotFound) {
		http.Error(w, "set not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Errorf("failed to delete set %d: %s", id, err)
		http.Error(w, "set not deleted", http.StatusInternalServerError)
		return
	}

	deleteRespJson, err := json.Marshal(DeleteSetResponse{
		DeletedID: id,
	})
	if err != nil {
		log.Errorf("failed to marshal delete response: %s", err)
		http.Error(w, "failed to marshal delete response", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONResponseOK(w, string(deleteRespJson))
}

func (handler *Handler) writeSetsList(w http.ResponseWriter, sets []ExerciseSet) {
	if sets == nil {
		sets = []ExerciseSet{}
	}

	listRespJson, err := json.Marshal(SetsListResponse{
		Sets:  sets,
		Total: len(sets),
	})
	if err != nil {
		log.Errorf("marshal sets error: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, listRespJson, http.StatusOK)
}

func decodeSetRequest(w http.ResponseWriter, r *http.Request) (SetRequest, bool) {
	var req SetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("set request, unmarshal json params: %s", err)
		http.Error(w, "invalid set request", http.StatusBadRequest)
		return req, false
	}
	if req.ExerciseID <= 0 || req.WorkoutID <= 0 {
		http.Error(w, "error, exercise id or workout id missing", http.StatusBadRequest)
		return req, false
	}
	if req.Repetitions < 0 {
		http.Error(w, "error, negative repetitions", http.StatusBadRequest)
		return req, false
	}
	return req, true
}

func idParam(r *http.Request) (int64, error) {
	idStr := mux.Vars(r)["id"]
	if idStr == "" {
		return 0, errors.New("error, id empty")
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return 0, errors.New("error, id NaN")
	}
	return id, nil
}
