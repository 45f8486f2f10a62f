package comment

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/upb/task-tracker/internal/policy"
	"github.com/upb/task-tracker/models"
	"github.com/upb/task-tracker/repositories"
	"github.com/upb/task-tracker/services"
	"go.uber.org/zap"
)

// CreateInput is the body of a new comment
type CreateInput struct {
	TaskID  uuid.UUID `json:"task_id" validate:"required"`
	Message string    `json:"message" validate:"required,min=1,max=5000"`
}

// Service manages task comments. Any authenticated principal may read and
// write comments on any existing task.
type Service struct {
	tasks    repositories.TaskRepository
	comments repositories.CommentRepository
	authz    services.Authorizer
	logger   *zap.Logger
}

// NewService creates a new comment Service
func NewService(tasks repositories.TaskRepository, comments repositories.CommentRepository, authz services.Authorizer, logger *zap.Logger) *Service {
	return &Service{
		tasks:    tasks,
		comments: comments,
		authz:    authz,
		logger:   logger,
	}
}

// ListByTask returns a task's comments oldest first, with author names
func (s *Service) ListByTask(ctx context.Context, actor *models.User, taskID uuid.UUID) ([]*models.Comment, error) {
	if err := s.enforce(actor, policy.ActionList); err != nil {
		return nil, err
	}
	if err := s.ensureTask(ctx, taskID); err != nil {
		return nil, err
	}

	comments, err := s.comments.ListByTask(ctx, taskID)
	if err != nil {
		return nil, services.WrapInternal("failed to list comments", err)
	}
	return comments, nil
}

// Create posts a comment authored by actor
func (s *Service) Create(ctx context.Context, actor *models.User, in CreateInput) (*models.Comment, error) {
	if err := s.enforce(actor, policy.ActionCreate); err != nil {
		return nil, err
	}
	if err := services.ValidateInput(&in); err != nil {
		return nil, err
	}
	if err := s.ensureTask(ctx, in.TaskID); err != nil {
		return nil, err
	}

	comment := models.NewComment(in.TaskID, actor.ID, in.Message)
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, services.WrapInternal("failed to create comment", err)
	}
	comment.AuthorName = actor.Username

	s.logger.Debug("comment created",
		zap.String("comment_id", comment.ID.String()),
		zap.String("task_id", comment.TaskID.String()),
	)
	return comment, nil
}

func (s *Service) enforce(actor *models.User, action policy.Action) error {
	return services.Enforce(s.authz.Decide(policy.ActorOf(actor), policy.Request{
		Resource: policy.ResourceComment,
		Action:   action,
	}))
}

func (s *Service) ensureTask(ctx context.Context, id uuid.UUID) error {
	_, err := s.tasks.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return services.ErrTaskNotFound
	}
	if err != nil {
		return services.WrapInternal("failed to get task", err)
	}
	return nil
}
