package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/upb/task-tracker/models"
	"github.com/upb/task-tracker/services/project"
	"github.com/upb/task-tracker/utils"
	"go.uber.org/zap"
)

// ProjectService is the project use-case surface used by ProjectHandler
type ProjectService interface {
	List(ctx context.Context, actor *models.User, status string) ([]*models.Project, error)
	Get(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Project, error)
	Create(ctx context.Context, actor *models.User, in project.CreateInput) (*models.Project, error)
	Update(ctx context.Context, actor *models.User, id uuid.UUID, in project.UpdateInput) (*models.Project, error)
	Delete(ctx context.Context, actor *models.User, id uuid.UUID) error
}

// ProjectHandler handles /projects
type ProjectHandler struct {
	svc    ProjectService
	logger *zap.Logger
}

// NewProjectHandler creates a new ProjectHandler
func NewProjectHandler(svc ProjectService, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{svc: svc, logger: logger}
}

// HandleList handles GET /projects?status=
func (h *ProjectHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	projects, err := h.svc.List(r.Context(), user, r.URL.Query().Get("status"))
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, projects)
}

// HandleGet handles GET /projects/{id}
func (h *ProjectHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	p, err := h.svc.Get(r.Context(), user, id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, p)
}

// HandleCreate handles POST /projects
func (h *ProjectHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	var in project.CreateInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		HandleDecodeError(w, err, h.logger)
		return
	}
	p, err := h.svc.Create(r.Context(), user, in)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteCreated(w, p)
}

// HandleUpdate handles PUT /projects/{id}
func (h *ProjectHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var in project.UpdateInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		HandleDecodeError(w, err, h.logger)
		return
	}
	p, err := h.svc.Update(r.Context(), user, id, in)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, p)
}

// HandleDelete handles DELETE /projects/{id}
func (h *ProjectHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
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
