package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/upb/task-tracker/models"
	"github.com/upb/task-tracker/services/comment"
	"github.com/upb/task-tracker/utils"
	"go.uber.org/zap"
)

// CommentService is the comment use-case surface used by CommentHandler
type CommentService interface {
	ListByTask(ctx context.Context, actor *models.User, taskID uuid.UUID) ([]*models.Comment, error)
	Create(ctx context.Context, actor *models.User, in comment.CreateInput) (*models.Comment, error)
}

// CommentHandler handles /comments
type CommentHandler struct {
	svc    CommentService
	logger *zap.Logger
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(svc CommentService, logger *zap.Logger) *CommentHandler {
	return &CommentHandler{svc: svc, logger: logger}
}

// HandleList handles GET /comments/{taskID}
func (h *CommentHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	taskID, ok := pathID(w, r, "taskID")
	if !ok {
		return
	}
	comments, err := h.svc.ListByTask(r.Context(), user, taskID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, comments)
}

// HandleCreate handles POST /comments
func (h *CommentHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	var in comment.CreateInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		HandleDecodeError(w, err, h.logger)
		return
	}
	c, err := h.svc.Create(r.Context(), user, in)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteCreated(w, c)
}
