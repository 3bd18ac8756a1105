package exercises

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"traintrack/internal/telemetry/tracing"
	"traintrack/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type exercisesRepo interface {
	Get(ctx context.Context, id int64) (*Exercise, error)
	List(ctx context.Context) ([]Exercise, error)
	Create(ctx context.Context, name string) (*Exercise, error)
	Update(ctx context.Context, id int64, name string) (*Exercise, error)
	Delete(ctx context.Context, id int64) error
	CountInSets(ctx context.Context, id int64) (int64, error)
	ExistsName(ctx context.Context, name string) (bool, error)
}

type NewExerciseRequest struct {
	Name string `json:"name"`
}

type DeleteExerciseResponse struct {
	DeletedID int64 `json:"deletedId"`
}

type ExercisesListResponse struct {
	Exercises []Exercise `json:"exercises"`
	Total     int        `json:"total"`
}

type UsageCountResponse struct {
	ExerciseID int64 `json:"exerciseId"`
	SetsCount  int64 `json:"setsCount"`
}

type ExistsResponse struct {
	Exists bool `json:"exists"`
}

type Handler struct {
	repo exercisesRepo
}

func NewHandler(repo exercisesRepo) *Handler {
	return &Handler{
		repo: repo,
	}
}

func (handler *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.create")
	defer span.End()

	var req NewExerciseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("new exercise, unmarshal json params: %s", err)
		http.Error(w, "add exercise failed", http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		http.Error(w, "error, exercise name empty", http.StatusBadRequest)
		return
	}

	exists, err := handler.repo.ExistsName(ctx, name)
	if err != nil {
		log.Errorf("new exercise, check name [%s]: %s", name, err)
		http.Error(w, "error, failed to add new exercise", http.StatusInternalServerError)
		return
	}
	if exists {
		http.Error(w, "error, exercise name taken", http.StatusBadRequest)
		return
	}

	addedExercise, err := handler.repo.Create(ctx, name)
	if err != nil {
		log.Errorf("failed to add new exercise [%s]: %s", name, err)
		http.Error(w, "error, failed to add new exercise", http.StatusInternalServerError)
		return
	}

	log.Debugf("new exercise added: [%s]: %d", addedExercise.Name, addedExercise.ID)

	addedExJson, err := json.Marshal(addedExercise)
	if err != nil {
		log.Errorf("failed to marshal new exercise: %s", err)
		http.Error(w, "error, failed to add new exercise", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, addedExJson, http.StatusCreated)
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.get")
	defer span.End()

	id, err := idParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	e, err := handler.repo.Get(ctx, id)
	if errors.Is(err, ErrExerciseNotFound) {
		http.Error(w, "exercise not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Errorf("failed to get exercise %d: %s", id, err)
		http.Error(w, "failed to get exercise", http.StatusInternalServerError)
		return
	}

	exJson, err := json.Marshal(e)
	if err != nil {
		log.Errorf("failed to marshal exercise: %s", err)
		http.Error(w, "failed to marshal exercise", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, exJson, http.StatusOK)
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.list")
	defer span.End()

	exercises, err := handler.repo.List(ctx)
	if err != nil {
		log.Errorf("list exercises error: %s", err)
		http.Error(w, "failed to get exercises", http.StatusInternalServerError)
		return
	}
	if exercises == nil {
		exercises = []Exercise{}
	}

	listRespJson, err := json.Marshal(ExercisesListResponse{
		Exercises: exercises,
		Total:     len(exercises),
	})
	if err != nil {
		log.Errorf("marshal exercises error: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, listRespJson, http.StatusOK)
}

func (handler *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.update")
	defer span.End()

	id, err := idParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req NewExerciseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("update exercise, unmarshal json params: %s", err)
		http.Error(w, "update exercise failed", http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		http.Error(w, "error, exercise name empty", http.StatusBadRequest)
		return
	}

	updated, err := handler.repo.Update(ctx, id, name)
	if errors.Is(err, ErrExerciseNotFound) {
		http.Error(w, "exercise not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Errorf("failed to update exercise %d: %s", id, err)
		http.Error(w, "error, failed to update exercise", http.StatusInternalServerError)
		return
	}

	log.Debugf("exercise updated: [%s]: %d", updated.Name, updated.ID)

	updatedExJson, err := json.Marshal(updated)
	if err != nil {
		log.Errorf("failed to marshal updated exercise: %s", err)
		http.Error(w, "failed to marshal updated exercise", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, updatedExJson, http.StatusOK)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.delete")
	defer span.End()

	id, err := idParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err = handler.repo.Delete(ctx, id)
	switch {
	case errors.Is(err, ErrExerciseNotFound):
		http.Error(w, "exercise not found", http.StatusNotFound)
		return
	case errors.Is(err, ErrExerciseInUse):
		http.Error(w, "error, exercise is used in sets", http.StatusBadRequest)
		return
	case err != nil:
		log.Errorf("failed to delete exercise %d: %s", id, err)
		http.Error(w, "exercise not deleted", http.StatusInternalServerError)
		return
	}

	deleteRespJson, err := json.Marshal(DeleteExerciseResponse{
		DeletedID: id,
	})
	if err != nil {
		log.Errorf("failed to marshal delete response: %s", err)
		http.Error(w, "failed to marshal delete response", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSONResponseOK(w, string(deleteRespJson))
}

func (handler *Handler) HandleUsageCount(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.usageCount")
	defer span.End()

	id, err := idParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if _, err := handler.repo.Get(ctx, id); errors.Is(err, ErrExerciseNotFound) {
		http.Error(w, "exercise not found", http.StatusNotFound)
		return
	} else if err != nil {
		log.Errorf("failed to get exercise %d: %s", id, err)
		http.Error(w, "failed to get exercise", http.StatusInternalServerError)
		return
	}

	count, err := handler.repo.CountInSets(ctx, id)
	if err != nil {
		log.Errorf("failed to count sets for exercise %d: %s", id, err)
		http.Error(w, "failed to count sets", http.StatusInternalServerError)
		return
	}

	countRespJson, err := json.Marshal(UsageCountResponse{
		ExerciseID: id,
		SetsCount:  count,
	})
	if err != nil {
		log.Errorf("failed to marshal usage count response: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, countRespJson, http.StatusOK)
}

func (handler *Handler) HandleExists(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.exists")
	defer span.End()

	var req NewExerciseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("exercise exists, unmarshal json params: %s", err)
		http.Error(w, "exists check failed", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		http.Error(w, "error, exercise name empty", http.StatusBadRequest)
		return
	}

	exists, err := handler.repo.ExistsName(ctx, req.Name)
	if err != nil {
		log.Errorf("exercise exists check [%s]: %s", req.Name, err)
		http.Error(w, "exists check failed", http.StatusInternalServerError)
		return
	}

	existsRespJson, err := json.Marshal(ExistsResponse{Exists: exists})
	if err != nil {
		log.Errorf("failed to marshal exists response: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, existsRespJson, http.StatusOK)
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
