package project

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/upb/task-tracker/internal/policy"
	"github.com/upb/task-tracker/models"
	"github.com/upb/task-tracker/repositories"
	"github.com/upb/task-tracker/services"
	"go.uber.org/zap"
)

// CreateInput is the body of a project creation. The creator becomes the
// project's manager.
type CreateInput struct {
	Name        string     `json:"name" validate:"required,min=1,max=255"`
	Description *string    `json:"description,omitempty"`
	TeamID      uuid.UUID  `json:"team_id" validate:"required"`
	Status      *string    `json:"status,omitempty" validate:"omitempty,oneof=active completed"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
}

// UpdateInput changes the non-nil fields of a project
type UpdateInput struct {
	Name        *string    `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Description *string    `json:"description,omitempty"`
	TeamID      *uuid.UUID `json:"team_id,omitempty"`
	Status      *string    `json:"status,omitempty" validate:"omitempty,oneof=active completed"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
}

// Service manages projects
type Service struct {
	repos  *repositories.Repositories
	txMgr  repositories.TransactionManager
	authz  services.Authorizer
	logger *zap.Logger
}

// NewService creates a new project Service
func NewService(repos *repositories.Repositories, txMgr repositories.TransactionManager, authz services.Authorizer, logger *zap.Logger) *Service {
	return &Service{
		repos:  repos,
		txMgr:  txMgr,
		authz:  authz,
		logger: logger,
	}
}

// List returns the projects actor may see, optionally narrowed by status
func (s *Service) List(ctx context.Context, actor *models.User, status string) ([]*models.Project, error) {
	filter := repositories.ProjectFilter{}
	if status != "" {
		st := models.ProjectStatus(status)
		if !st.Valid() {
			return nil, services.Validation("status", "Invalid status. Must be 'active' or 'completed'")
		}
		filter.Status = &st
	}

	d := s.authz.Decide(policy.ActorOf(actor), policy.Request{Resource: policy.ResourceProject, Action: policy.ActionList})
	if err := services.Enforce(d); err != nil {
		return nil, err
	}
	if d.Effect == policy.EffectScope {
		filter.ManagerID = d.Filter.ManagerID
		filter.ParticipantID = d.Filter.ParticipantID
	}

	projects, err := s.repos.Projects.List(ctx, filter)
	if err != nil {
		return nil, services.WrapInternal("failed to list projects", err)
	}
	return projects, nil
}

// Get returns one project
func (s *Service) Get(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Project, error) {
	if err := s.gate(actor, policy.ActionGet); err != nil {
		return nil, err
	}

	project, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.decide(actor, policy.ActionGet, policy.Owners{ManagerID: &project.ManagerID}); err != nil {
		return nil, err
	}
	return project, nil
}

// Create adds a project to a team, managed by actor
func (s *Service) Create(ctx context.Context, actor *models.User, in CreateInput) (*models.Project, error) {
	if err := s.gate(actor, policy.ActionCreate); err != nil {
		return nil, err
	}
	if err := services.ValidateInput(&in); err != nil {
		return nil, err
	}

	team, err := s.loadTeam(ctx, in.TeamID)
	if err != nil {
		return nil, err
	}
	if err := s.decide(actor, policy.ActionCreate, policy.Owners{TeamCreatorID: &team.CreatedBy}); err != nil {
		return nil, err
	}

	project := models.NewProject(in.Name, in.TeamID, actor.ID)
	project.Description = in.Description
	project.StartDate = in.StartDate
	project.EndDate = in.EndDate
	if in.Status != nil {
		project.Status = models.ProjectStatus(*in.Status)
	}

	if err := s.repos.Projects.Create(ctx, project); err != nil {
		return nil, services.WrapInternal("failed to create project", err)
	}

	s.logger.Info("project created",
		zap.String("project_id", project.ID.String()),
		zap.String("team_id", team.ID.String()),
		zap.String("manager_id", actor.ID.String()),
	)
	return project, nil
}

// Update applies in to a project actor may manage
func (s *Service) Update(ctx context.Context, actor *models.User, id uuid.UUID, in UpdateInput) (*models.Project, error) {
	if err := s.gate(actor, policy.ActionUpdate); err != nil {
		return nil, err
	}
	if err := services.ValidateInput(&in); err != nil {
		return nil, err
	}

	project, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.decide(actor, policy.ActionUpdate, policy.Owners{ManagerID: &project.ManagerID}); err != nil {
		return nil, err
	}

	if in.Name != nil {
		project.Name = *in.Name
	}
	if in.Description != nil {
		project.Description = in.Description
	}
	if in.TeamID != nil {
		if _, err := s.loadTeam(ctx, *in.TeamID); err != nil {
			return nil, err
		}
		project.TeamID = *in.TeamID
	}
	if in.Status != nil {
		project.Status = models.ProjectStatus(*in.Status)
	}
	if in.StartDate != nil {
		project.StartDate = in.StartDate
	}
	if in.EndDate != nil {
		project.EndDate = in.EndDate
	}

	if err := s.repos.Projects.Update(ctx, project); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrProjectNotFound
		}
		return nil, services.WrapInternal("failed to update project", err)
	}
	return project, nil
}

// Delete removes a project together with its tasks and their comments
func (s *Service) Delete(ctx context.Context, actor *models.User, id uuid.UUID) error {
	if err := s.gate(actor, policy.ActionDelete); err != nil {
		return err
	}

	project, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.decide(actor, policy.ActionDelete, policy.Owners{ManagerID: &project.ManagerID}); err != nil {
		return err
	}

	err = services.WithTransaction(ctx, s.txMgr, func(ctx context.Context, tx repositories.Transaction) error {
		if err := s.repos.Comments.DeleteByProject(ctx, id); err != nil {
			return err
		}
		if err := s.repos.Tasks.DeleteByProject(ctx, id); err != nil {
			return err
		}
		return s.repos.Projects.Delete(ctx, id)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return services.ErrProjectNotFound
		}
		return services.WrapInternal("failed to delete project", err)
	}

	s.logger.Info("project deleted", zap.String("project_id", id.String()))
	return nil
}

func (s *Service) gate(actor *models.User, action policy.Action) error {
	return services.Enforce(s.authz.Gate(actor.Role, policy.ResourceProject, action))
}

func (s *Service) decide(actor *models.User, action policy.Action, owners policy.Owners) error {
	return services.Enforce(s.authz.Decide(policy.ActorOf(actor), policy.Request{
		Resource: policy.ResourceProject,
		Action:   action,
		Owners:   owners,
	}))
}

func (s *Service) load(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	project, err := s.repos.Projects.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, services.ErrProjectNotFound
	}
	if err != nil {
		return nil, services.WrapInternal("failed to get project", err)
	}
	return project, nil
}

func (s *Service) loadTeam(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	team, err := s.repos.Teams.GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, services.ErrTeamNotFound
	}
	if err != nil {
		return nil, services.WrapInternal("failed to get team", err)
	}
	return team, nil
}
