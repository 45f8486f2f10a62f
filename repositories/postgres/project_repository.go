package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/upb/task-tracker/models"
	"github.com/upb/task-tracker/repositories"
	"go.uber.org/zap"
)

const projectColumns = `p.id, p.name, p.description, p.team_id, p.manager_id, p.status, p.start_date, p.end_date, p.created_at`

// ProjectRepository implements the repositories.ProjectRepository interface
type ProjectRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(db *DB, logger *zap.Logger) repositories.ProjectRepository {
	return &ProjectRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new project
func (r *ProjectRepository) Create(ctx context.Context, project *models.Project) error {
	query := `
		INSERT INTO projects (id, name, description, team_id, manager_id, status, start_date, end_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := GetExecutor(ctx, r.db).ExecContext(ctx, query,
		project.ID,
		project.Name,
		project.Description,
		project.TeamID,
		project.ManagerID,
		project.Status,
		project.StartDate,
		project.EndDate,
		project.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	r.logger.Debug("project created", zap.String("id", project.ID.String()))
	return nil
}

// GetByID retrieves a project by ID
func (r *ProjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects p WHERE p.id = $1`

	project, err := scanProject(GetExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return project, nil
}

// List retrieves the projects matching filter, newest first
func (r *ProjectRepository) List(ctx context.Context, filter repositories.ProjectFilter) ([]*models.Project, error) {
	where := projectWhere(filter)
	query := `SELECT ` + projectColumns + ` FROM projects p ` + where.String() + ` ORDER BY p.created_at DESC`

	rows, err := GetExecutor(ctx, r.db).QueryContext(ctx, query, where.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	projects := []*models.Project{}
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, project)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating project rows: %w", err)
	}

	return projects, nil
}

// Update updates a project
func (r *ProjectRepository) Update(ctx context.Context, project *models.Project) error {
	query := `
		UPDATE projects
		SET name = $2,
		    description = $3,
		    team_id = $4,
		    status = $5,
		    start_date = $6,
		    end_date = $7
		WHERE id = $1
	`

	result, err := GetExecutor(ctx, r.db).ExecContext(ctx, query,
		project.ID,
		project.Name,
		project.Description,
		project.TeamID,
		project.Status,
		project.StartDate,
		project.EndDate,
	)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}

	return requireOneRow(result)
}

// Delete deletes a project. Tasks and comments must be removed first.
func (r *ProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := GetExecutor(ctx, r.db).ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		if foreignKeyViolation(err) {
			return repositories.ErrStillReferenced
		}
		return fmt.Errorf("failed to delete project: %w", err)
	}

	if err := requireOneRow(result); err != nil {
		return err
	}

	r.logger.Debug("project deleted", zap.String("id", id.String()))
	return nil
}

// CountByStatus returns project counts keyed by status
func (r *ProjectRepository) CountByStatus(ctx context.Context, filter repositories.ProjectFilter) (map[models.ProjectStatus]int, error) {
	where := projectWhere(filter)
	query := `SELECT p.status, COUNT(*) FROM projects p ` + where.String() + ` GROUP BY p.status`

	rows, err := GetExecutor(ctx, r.db).QueryContext(ctx, query, where.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count projects: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.ProjectStatus]int)
	for rows.Next() {
		var status models.ProjectStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan project count: %w", err)
		}
		counts[status] = n
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating project counts: %w", err)
	}

	return counts, nil
}

func projectWhere(filter repositories.ProjectFilter) *whereBuilder {
	b := &whereBuilder{}
	if filter.ManagerID != nil {
		b.orScope("p.manager_id = " + b.bind(*filter.ManagerID))
	}
	if filter.ParticipantID != nil {
		b.orScope("EXISTS (SELECT 1 FROM tasks t WHERE t.project_id = p.id AND t.assigned_to = " + b.bind(*filter.ParticipantID) + ")")
	}
	if filter.Status != nil {
		b.and("p.status = " + b.bind(string(*filter.Status)))
	}
	return b
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProject(row rowScanner) (*models.Project, error) {
	project := &models.Project{}
	err := row.Scan(
		&project.ID,
		&project.Name,
		&project.Description,
		&project.TeamID,
		&project.ManagerID,
		&project.Status,
		&project.StartDate,
		&project.EndDate,
		&project.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return project, nil
}
