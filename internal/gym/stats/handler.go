package stats

import (
	"context"
	"encoding/json"
	"net/http"

	"traintrack/internal/telemetry/tracing"
	"traintrack/pkg"

	log "github.com/sirupsen/logrus"
)

type statsRepo interface {
	Overview(ctx context.Context) (Overview, error)
}

type Handler struct {
	repo statsRepo
}

func NewHandler(repo statsRepo) *Handler {
	return &Handler{
		repo: repo,
	}
}

func (handler *Handler) HandleOverview(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.stats.overview")
	defer span.End()

	overview, err := handler.repo.Overview(ctx)
	if err != nil {
		log.Errorf("failed to compute statistics overview: %s", err)
		http.Error(w, "failed to compute statistics", http.StatusInternalServerError)
		return
	}

	overviewJson, err := json.Marshal(overview)
	if err != nil {
		log.Errorf("failed to marshal statistics overview: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, overviewJson, http.StatusOK)
}
