package team

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

// CreateInput is the body of a team creation
type CreateInput struct {
	Name        string  `json:"name" validate:"required,min=1,max=255"`
	Description *string `json:"description,omitempty"`
}

// UpdateInput changes the non-nil fields of a team
type UpdateInput struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description,omitempty"`
}

// Service manages teams. Everyone may read them; only admins may change them.
type Service struct {
	teams  repositories.TeamRepository
	authz  services.Authorizer
	logger *zap.Logger
}

// NewService creates a new team Service
func NewService(teams repositories.TeamRepository, authz services.Authorizer, logger *zap.Logger) *Service {
	return &Service{
		teams:  teams,
		authz:  authz,
		logger: logger,
	}
}

// List returns all teams
func (s *Service) List(ctx context.Context, actor *models.User) ([]*models.Team, error) {
	if err := s.enforce(actor, policy.ActionList); err != nil {
		return nil, err
	}

	teams, err := s.teams.List(ctx)
	if err != nil {
		return nil, services.WrapInternal("failed to list teams", err)
	}
	return teams, nil
}

// Get returns one team
func (s *Service) Get(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Team, error) {
	if err := s.enforce(actor, policy.ActionGet); err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

// Create adds a team owned by actor
func (s *Service) Create(ctx context.Context, actor *models.User, in CreateInput) (*models.Team, error) {
	if err := s.enforce(actor, policy.ActionCreate); err != nil {
		return nil, err
	}
	if err := services.ValidateInput(&in); err != nil {
		return nil, err
	}

	team := models.NewTeam(in.Name, in.Description, actor.ID)
	if err := s.teams.Create(ctx, team); err != nil {
		return nil, translate(err, "failed to create team")
	}

	s.logger.Info("team created",
		zap.String("team_id", team.ID.String()),
		zap.String("created_by", actor.ID.String()),
	)
	return team, nil
}

// Update applies in to an existing team
func (s *Service) Update(ctx context.Context, actor *models.User, id uuid.UUID, in UpdateInput) (*models.Team, error) {
	if err := s.enforce(actor, policy.ActionUpdate); err != nil {
		return nil, err
	}
	if err := services.ValidateInput(&in); err != nil {
		return nil, err
	}

	team, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		team.Name = *in.Name
	}
	if in.Description != nil {
		team.Description = in.Description
	}

	if err := s.teams.Update(ctx, team); err != nil {
		return nil, translate(err, "failed to update team")
	}
	return team, nil
}

// Delete removes a team that no project belongs to
func (s *Service) Delete(ctx context.Context, actor *models.User, id uuid.UUID) error {
	if err := s.enforce(actor, policy.ActionDelete); err != nil {
		return err
	}

	if err := s.teams.Delete(ctx, id); err != nil {
		return translate(err, "failed to delete team")
	}

	s.logger.Info("team deleted", zap.String("team_id", id.String()))
	return nil
}

func (s *Service) enforce(actor *models.User, action policy.Action) error {
	return services.Enforce(s.authz.Decide(policy.ActorOf(actor), policy.Request{
		Resource: policy.ResourceTeam,
		Action:   action,
	}))
}

func (s *Service) load(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	team, err := s.teams.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, "failed to get team")
	}
	return team, nil
}

func translate(err error, msg string) error {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return services.ErrTeamNotFound
	case errors.Is(err, repositories.ErrDuplicateTeamName):
		return services.ErrDuplicateTeamName
	case errors.Is(err, repositories.ErrStillReferenced):
		return services.ErrTeamInUse
	default:
		return services.WrapInternal(msg, err)
	}
}
