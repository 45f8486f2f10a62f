package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/upb/task-tracker/models"
	"github.com/upb/task-tracker/services/task"
	"github.com/upb/task-tracker/utils"
	"go.uber.org/zap"
)

// TaskService is the task use-case surface used by TaskHandler
type TaskService interface {
	List(ctx context.Context, actor *models.User, status string) ([]*models.Task, error)
	Get(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Task, error)
	Create(ctx context.Context, actor *models.User, in task.CreateInput) (*models.Task, error)
	Update(ctx context.Context, actor *models.User, id uuid.UUID, in task.UpdateInput) (*models.Task, error)
	Delete(ctx context.Context, actor *models.User, id uuid.UUID) error
}

// TaskHandler handles /tasks
type TaskHandler struct {
	svc    TaskService
	logger *zap.Logger
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(svc TaskService, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{svc: svc, logger: logger}
}

// HandleList handles GET /tasks?status=
func (h *TaskHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	tasks, err := h.svc.List(r.Context(), user, r.URL.Query().Get("status"))
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, tasks)
}

// HandleGet handles GET /tasks/{id}
func (h *TaskHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
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

// HandleCreate handles POST /tasks
func (h *TaskHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	var in task.CreateInput
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

// HandleUpdate handles PUT /tasks/{id}. Every key present in the body,
// including keys sent as null, is reported to the service so members
// touching anything but the status are refused.
func (h *TaskHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := principal(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	in, err := decodeTaskUpdate(r)
	if err != nil {
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

// HandleDelete handles DELETE /tasks/{id}
func (h *TaskHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
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

func decodeTaskUpdate(r *http.Request) (task.UpdateInput, error) {
	var in task.UpdateInput

	var raw json.RawMessage
	if err := utils.DecodeJSON(r, &raw); err != nil {
		return in, err
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		return in, fmt.Errorf("invalid request body: expected a JSON object")
	}
	if err := json.Unmarshal(raw, &in); err != nil {
		return in, fmt.Errorf("invalid request body: %w", err)
	}

	seen := make(map[string]bool, len(keys))
	in.Fields = make([]string, 0, len(keys))
	for k := range keys {
		name := canonicalTaskField(k)
		if seen[name] {
			continue
		}
		seen[name] = true
		in.Fields = append(in.Fields, name)
	}
	sort.Strings(in.Fields)
	return in, nil
}

// taskUpdateFields are the json names of task.UpdateInput
var taskUpdateFields = []string{"title", "description", "assigned_to", "status", "due_date"}

// canonicalTaskField maps a body key to the field encoding/json decodes it
// into, which matches names case-insensitively. Unknown keys pass through.
func canonicalTaskField(key string) string {
	for _, name := range taskUpdateFields {
		if strings.EqualFold(key, name) {
			return name
		}
	}
	return key
}
