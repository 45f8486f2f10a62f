package handlers

import (
	"context"
	"net/http"

	"github.com/upb/task-tracker/models"
	"github.com/upb/task-tracker/utils"
	"go.uber.org/zap"
)

// StatsService computes dashboard counters
type StatsService interface {
	Overview(ctx context.Context, actor *models.User) (*models.Overview, error)
}

// StatsHandler handles /stats
type StatsHandler struct {
	svc    StatsService
	logger *zap.Logger
}

// NewStatsHandler creates a new StatsHandler
func NewStatsHandler(svc StatsService, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{svc: svc, logger: logger}
}

// HandleOverview handles GET /stats/overview
func (h *StatsHandler) HandleOverview(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	overview, err := h.svc.Overview(r.Context(), user)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, overview)
}
