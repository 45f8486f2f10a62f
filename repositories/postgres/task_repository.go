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

const taskColumns = `t.id, t.title, t.description, t.project_id, t.assigned_to, t.status, t.due_date, t.created_at`

// TaskRepository implements the repositories.TaskRepository interface
type TaskRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *DB, logger *zap.Logger) repositories.TaskRepository {
	return &TaskRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new task
func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	query := `
		INSERT INTO tasks (id, title, description, project_id, assigned_to, status, due_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := GetExecutor(ctx, r.db).ExecContext(ctx, query,
		task.ID,
		task.Title,
		task.Description,
		task.ProjectID,
		task.AssignedTo,
		task.Status,
		task.DueDate,
		task.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	r.logger.Debug("task created", zap.String("id", task.ID.String()))
	return nil
}

// GetByID retrieves a task by ID
func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks t WHERE t.id = $1`

	task, err := scanTask(GetExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repositories.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

// List retrieves tasks matching filter ordered by due date, nulls last, then newest first
func (r *TaskRepository) List(ctx context.Context, filter repositories.TaskFilter) ([]*models.Task, error) {
	where := taskWhere(filter)
	query := `SELECT ` + taskColumns + ` FROM tasks t ` + taskJoin(filter) + where.String() +
		` ORDER BY t.due_date ASC NULLS LAST, t.created_at DESC`

	rows, err := GetExecutor(ctx, r.db).QueryContext(ctx, query, where.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []*models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task rows: %w", err)
	}

	return tasks, nil
}

// Update updates a task
func (r *TaskRepository) Update(ctx context.Context, task *models.Task) error {
	query := `
		UPDATE tasks
		SET title = $2,
		    description = $3,
		    assigned_to = $4,
		    status = $5,
		    due_date = $6
		WHERE id = $1
	`

	result, err := GetExecutor(ctx, r.db).ExecContext(ctx, query,
		task.ID,
		task.Title,
		task.Description,
		task.AssignedTo,
		task.Status,
		task.DueDate,
	)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	return requireOneRow(result)
}

// Delete deletes a task. Its comments must be removed first.
func (r *TaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := GetExecutor(ctx, r.db).ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		if foreignKeyViolation(err) {
			return repositories.ErrStillReferenced
		}
		return fmt.Errorf("failed to delete task: %w", err)
	}

	if err := requireOneRow(result); err != nil {
		return err
	}

	r.logger.Debug("task deleted", zap.String("id", id.String()))
	return nil
}

// DeleteByProject deletes every task of a project
func (r *TaskRepository) DeleteByProject(ctx context.Context, projectID uuid.UUID) error {
	if _, err := GetExecutor(ctx, r.db).ExecContext(ctx, `DELETE FROM tasks WHERE project_id = $1`, projectID); err != nil {
		return fmt.Errorf("failed to delete project tasks: %w", err)
	}
	return nil
}

// CountByStatus returns task counts keyed by status
func (r *TaskRepository) CountByStatus(ctx context.Context, filter repositories.TaskFilter) (map[models.TaskStatus]int, error) {
	where := taskWhere(filter)
	query := `SELECT t.status, COUNT(*) FROM tasks t ` + taskJoin(filter) + where.String() + ` GROUP BY t.status`

	rows, err := GetExecutor(ctx, r.db).QueryContext(ctx, query, where.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.TaskStatus]int)
	for rows.Next() {
		var status models.TaskStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan task count: %w", err)
		}
		counts[status] = n
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task counts: %w", err)
	}

	return counts, nil
}

// taskJoin adds the project join needed by the manager clause
func taskJoin(filter repositories.TaskFilter) string {
	if filter.ManagerID != nil {
		return `JOIN projects p ON p.id = t.project_id `
	}
	return ""
}

func taskWhere(filter repositories.TaskFilter) *whereBuilder {
	b := &whereBuilder{}
	if filter.ManagerID != nil {
		b.orScope("p.manager_id = " + b.bind(*filter.ManagerID))
	}
	if filter.AssignedTo != nil {
		b.orScope("t.assigned_to = " + b.bind(*filter.AssignedTo))
	}
	if filter.Status != nil {
		b.and("t.status = " + b.bind(string(*filter.Status)))
	}
	return b
}

func scanTask(row rowScanner) (*models.Task, error) {
	task := &models.Task{}
	err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.ProjectID,
		&task.AssignedTo,
		&task.Status,
		&task.DueDate,
		&task.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return task, nil
}
