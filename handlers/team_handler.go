package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/upb/task-tracker/models"
	"github.com/upb/task-tracker/services/team"
	"github.com/upb/task-tracker/utils"
	"go.uber.org/zap"
)

// TeamService is the team use-case surface used by TeamHandler
type TeamService interface {
	List(ctx context.Context, actor *models.User) ([]*models.Team, error)
	Get(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Team, error)
	Create(ctx context.Context, actor *models.User, in team.CreateInput) (*models.Team, error)
	Update(ctx context.Context, actor *models.User, id uuid.UUID, in team.UpdateInput) (*models.Team, error)
	Delete(ctx context.Context, actor *models.User, id uuid.UUID) error
}

// TeamHandler handles /teams
type TeamHandler struct {
	svc    TeamService
	logger *zap.Logger
}

// NewTeamHandler creates a new TeamHandler
func NewTeamHandler(svc TeamService, logger *zap.Logger) *TeamHandler {
	return &TeamHandler{svc: svc, logger: logger}
}

// HandleList handles GET /teams
func (h *TeamHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	teams, err := h.svc.List(r.Context(), user)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, teams)
}

// HandleGet handles GET /teams/{id}
func (h *TeamHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	t, err := h.svc.Get(r.Context(), user, id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, t)
}

// HandleCreate handles POST /teams
func (h *TeamHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	var in team.CreateInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		HandleDecodeError(w, err, h.logger)
		return
	}
	t, err := h.svc.Create(r.Context(), user, in)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteCreated(w, t)
}

// HandleUpdate handles PUT /teams/{id}
func (h *TeamHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in team.UpdateInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		HandleDecodeError(w, err, h.logger)
		return
	}
	t, err := h.svc.Update(r.Context(), user, id, in)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, t)
}

// HandleDelete handles DELETE /teams/{id}
func (h *TeamHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), user, id); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	utils.WriteNoContent(w)
}
