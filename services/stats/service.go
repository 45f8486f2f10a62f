package stats

import (
	"context"

	"github.com/upb/task-tracker/internal/policy"
	"github.com/upb/task-tracker/models"
	"github.com/upb/task-tracker/repositories"
	"github.com/upb/task-tracker/services"
	"go.uber.org/zap"
)

// Service computes dashboard counters scoped to the caller's role
type Service struct {
	repos  *repositories.Repositories
	authz  services.Authorizer
	logger *zap.Logger
}

// NewService creates a new stats Service
func NewService(repos *repositories.Repositories, authz services.Authorizer, logger *zap.Logger) *Service {
	return &Service{
		repos:  repos,
		authz:  authz,
		logger: logger,
	}
}

// Overview counts the projects and tasks actor can see by status. Team and
// user totals are global.
func (s *Service) Overview(ctx context.Context, actor *models.User) (*models.Overview, error) {
	d := s.authz.Decide(policy.ActorOf(actor), policy.Request{Resource: policy.ResourceStats, Action: policy.ActionGet})
	if err := services.Enforce(d); err != nil {
		return nil, err
	}

	var projectFilter repositories.ProjectFilter
	var taskFilter repositories.TaskFilter
	if d.Effect == policy.EffectScope {
		projectFilter = repositories.ProjectFilter{ManagerID: d.Filter.ManagerID, ParticipantID: d.Filter.ParticipantID}
		taskFilter = repositories.TaskFilter{ManagerID: d.Filter.ManagerID, AssignedTo: d.Filter.AssigneeID}
	}

	projects, err := s.repos.Projects.CountByStatus(ctx, projectFilter)
	if err != nil {
		return nil, services.WrapInternal("failed to count projects", err)
	}
	tasks, err := s.repos.Tasks.CountByStatus(ctx, taskFilter)
	if err != nil {
		return nil, services.WrapInternal("failed to count tasks", err)
	}
	teams, err := s.repos.Teams.Count(ctx)
	if err != nil {
		return nil, services.WrapInternal("failed to count teams", err)
	}
	users, err := s.repos.Users.Count(ctx)
	if err != nil {
		return nil, services.WrapInternal("failed to count users", err)
	}

	overview := &models.Overview{
		Projects: models.ProjectCounts{
			Active:    projects[models.ProjectStatusActive],
			Completed: projects[models.ProjectStatusCompleted],
		},
		Tasks: models.TaskCounts{
			Todo:       tasks[models.TaskStatusTodo],
			InProgress: tasks[models.TaskStatusInProgress],
			Done:       tasks[models.TaskStatusDone],
		},
		Teams: teams,
		Users: users,
	}
	overview.Projects.Total = overview.Projects.Active + overview.Projects.Completed
	overview.Tasks.Total = overview.Tasks.Todo + overview.Tasks.InProgress + overview.Tasks.Done
	return overview, nil
}
