package task

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/upb/task-tracker/internal/policy"
	"github.com/upb/task-tracker/models"
	"github.com/upb/task-tracker/repositories"
	"github.com/upb/task-tracker/services"
	"go.uber.org/zap"
)

// StatusAll disables status filtering when listing
const StatusAll = "all"

// CreateInput is the body of a task creation
type CreateInput struct {
	Title       string     `json:"title" validate:"required,min=1,max=255"`
	Description *string    `json:"description,omitempty"`
	ProjectID   uuid.UUID  `json:"project_id" validate:"required"`
	AssignedTo  uuid.UUID  `json:"assigned_to" validate:"required"`
	Status      *string    `json:"status,omitempty" validate:"omitempty,oneof=todo in_progress done"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

// UpdateInput changes the non-nil fields of a task
type UpdateInput struct {
	Title       *string    `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	Description *string    `json:"description,omitempty"`
	AssignedTo  *uuid.UUID `json:"assigned_to,omitempty"`
	Status      *string    `json:"status,omitempty" validate:"omitempty,oneof=todo in_progress done"`
	DueDate     *time.Time `json:"due_date,omitempty"`

	// Fields names every key present in the request body, including keys
	// sent as null. When nil it is derived from the non-nil fields above.
	Fields []string `json:"-"`
}

func (in UpdateInput) present() []string {
	if in.Fields != nil {
		return in.Fields
	}
	fields := []string{}
	if in.Title != nil {
		fields = append(fields, "title")
	}
	if in.Description != nil {
		fields = append(fields, "description")
	}
	if in.AssignedTo != nil {
		fields = append(fields, "assigned_to")
	}
	if in.Status != nil {
		fields = append(fields, policy.FieldStatus)
	}
	if in.DueDate != nil {
		fields = append(fields, "due_date")
	}
	return fields
}

// Service manages tasks
type Service struct {
	repos  *repositories.Repositories
	txMgr  repositories.TransactionManager
	authz  services.Authorizer
	logger *zap.Logger
}

// NewService creates a new task Service
func NewService(repos *repositories.Repositories, txMgr repositories.TransactionManager, authz services.Authorizer, logger *zap.Logger) *Service {
	return &Service{
		repos:  repos,
		txMgr:  txMgr,
		authz:  authz,
		logger: logger,
	}
}

// List returns the tasks actor may see ordered by due date, nulls last.
// status may be empty or "all" to disable status filtering.
func (s *Service) List(ctx context.Context, actor *models.User, status string) ([]*models.Task, error) {
	filter := repositories.TaskFilter{}
	if status != "" && status != StatusAll {
		st := models.TaskStatus(status)
		if !st.Valid() {
			return nil, services.Validation("status", fmt.Sprintf("Invalid status filter: %s", status))
		}
		filter.Status = &st
	}

	d := s.authz.Decide(policy.ActorOf(actor), policy.Request{Resource: policy.ResourceTask, Action: policy.ActionList})
	if err := services.Enforce(d); err != nil {
		return nil, err
	}
	if d.Effect == policy.EffectScope {
		filter.ManagerID = d.Filter.ManagerID
		filter.AssignedTo = d.Filter.AssigneeID
	}

	tasks, err := s.repos.Tasks.List(ctx, filter)
	if err != nil {
		return nil, services.WrapInternal("failed to list tasks", err)
	}
	return tasks, nil
}

// Get returns one task visible to actor
func (s *Service) Get(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Task, error) {
	task, project, err := s.loadWithProject(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.decide(actor, policy.Request{
		Action: policy.ActionGet,
		Owners: policy.Owners{ManagerID: &project.ManagerID, AssigneeID: &task.AssignedTo},
	}); err != nil {
		return nil, err
	}
	return task, nil
}

// Create adds a task to a project actor manages
func (s *Service) Create(ctx context.Context, actor *models.User, in CreateInput) (*models.Task, error) {
	if err := services.Enforce(s.authz.Gate(actor.Role, policy.ResourceTask, policy.ActionCreate)); err != nil {
		return nil, err
	}
	if err := services.ValidateInput(&in); err != nil {
		return nil, err
	}

	project, err := s.loadProject(ctx, in.ProjectID)
	if err != nil {
		return nil, err
	}
	if err := s.decide(actor, policy.Request{
		Action: policy.ActionCreate,
		Owners: policy.Owners{ManagerID: &project.ManagerID},
	}); err != nil {
		return nil, err
	}
	if err := s.ensureAssignee(ctx, in.AssignedTo); err != nil {
		return nil, err
	}

	task := models.NewTask(in.Title, in.ProjectID, in.AssignedTo)
	task.Description = in.Description
	task.DueDate = in.DueDate
	if in.Status != nil {
		task.Status = models.TaskStatus(*in.Status)
	}

	if err := s.repos.Tasks.Create(ctx, task); err != nil {
		return nil, services.WrapInternal("failed to create task", err)
	}

	s.logger.Info("task created",
		zap.String("task_id", task.ID.String()),
		zap.String("project_id", task.ProjectID.String()),
		zap.String("assigned_to", task.AssignedTo.String()),
	)
	return task, nil
}

// Update applies in to a task. Members assigned to the task may change
// only its status; a request touching any other field is refused whole.
func (s *Service) Update(ctx context.Context, actor *models.User, id uuid.UUID, in UpdateInput) (*models.Task, error) {
	if err := services.ValidateInput(&in); err != nil {
		return nil, err
	}

	task, project, err := s.loadWithProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.decide(actor, policy.Request{
		Action: policy.ActionUpdate,
		Owners: policy.Owners{ManagerID: &project.ManagerID, AssigneeID: &task.AssignedTo},
		Fields: in.present(),
	}); err != nil {
		return nil, err
	}

	if in.Title != nil {
		task.Title = *in.Title
	}
	if in.Description != nil {
		task.Description = in.Description
	}
	if in.AssignedTo != nil {
		if err := s.ensureAssignee(ctx, *in.AssignedTo); err != nil {
			return nil, err
		}
		task.AssignedTo = *in.AssignedTo
	}
	if in.Status != nil {
		task.Status = models.TaskStatus(*in.Status)
	}
	if in.DueDate != nil {
		task.DueDate = in.DueDate
	}

	if err := s.repos.Tasks.Update(ctx, task); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrTaskNotFound
		}
		return nil, services.WrapInternal("failed to update task", err)
	}
	return task, nil
}

// Delete removes a task and its comments
func (s *Service) Delete(ctx context.Context, actor *models.User, id uuid.UUID) error {
	if err := services.Enforce(s.authz.Gate(actor.Role, policy.ResourceTask, policy.ActionDelete)); err != nil {
		return err
	}

	task, project, err := s.loadWithProject(ctx, id)
	if err != nil {
		return err
	}
	if err := s.decide(actor, policy.Request{
		Action: policy.ActionDelete,
		Owners: policy.Owners{ManagerID: &project.ManagerID, AssigneeID: &task.AssignedTo},
	}); err != nil {
		return err
	}

	err = services.WithTransaction(ctx, s.txMgr, func(ctx context.Context, tx repositories.Transaction) error {
		if err := s.repos.Comments.DeleteByTask(ctx, id); err != nil {
			return err
		}
		return s.repos.Tasks.Delete(ctx, id)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return services.ErrTaskNotFound
		}
		return services.WrapInternal("failed to delete task", err)
	}

	s.logger.Info("task deleted", zap.String("task_id", id.String()))
	return nil
}

func (s *Service) decide(actor *models.User, req policy.Request) error {
	req.Resource = policy.ResourceTask
	return services.Enforce(s.authz.Decide(policy.ActorOf(actor), req))
}

func (s *Service) loadWithProject(ctx context.Context, id uuid.UUID) (*models.Task, *models.Project, error) {
	task, err := s.repos.Tasks.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, nil, services.ErrTaskNotFound
	}
	if err != nil {
		return nil, nil, services.WrapInternal("failed to get task", err)
	}

	project, err := s.loadProject(ctx, task.ProjectID)
	if err != nil {
		return nil, nil, err
	}
	return task, project, nil
}

func (s *Service) loadProject(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	project, err := s.repos.Projects.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, services.ErrProjectNotFound
	}
	if err != nil {
		return nil, services.WrapInternal("failed to get project", err)
	}
	return project, nil
}

func (s *Service) ensureAssignee(ctx context.Context, id uuid.UUID) error {
	_, err := s.repos.Users.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return services.ErrAssigneeNotFound
	}
	if err != nil {
		return services.WrapInternal("failed to get assignee", err)
	}
	return nil
}
