package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/upb/task-tracker/models"
	"github.com/upb/task-tracker/repositories"
	"go.uber.org/zap"
)

// CommentRepository implements the repositories.CommentRepository interface
type CommentRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *DB, logger *zap.Logger) repositories.CommentRepository {
	return &CommentRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new comment
func (r *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	query := `
		INSERT INTO comments (id, task_id, author_id, message, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := GetExecutor(ctx, r.db).ExecContext(ctx, query,
		comment.ID,
		comment.TaskID,
		comment.AuthorID,
		comment.Message,
		comment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}

	r.logger.Debug("comment created", zap.String("id", comment.ID.String()), zap.String("task_id", comment.TaskID.String()))
	return nil
}

// ListByTask retrieves a task's comments oldest first with the author's username
func (r *CommentRepository) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*models.Comment, error) {
	query := `
		SELECT c.id, c.task_id, c.author_id, u.username, c.message, c.created_at
		FROM comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.task_id = $1
		ORDER BY c.created_at ASC
	`

	rows, err := GetExecutor(ctx, r.db).QueryContext(ctx, query, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments: %w", err)
	}
	defer rows.Close()

	comments := []*models.Comment{}
	for rows.Next() {
		comment := &models.Comment{}
		if err := rows.Scan(
			&comment.ID,
			&comment.TaskID,
			&comment.AuthorID,
			&comment.AuthorName,
			&comment.Message,
			&comment.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, comment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating comment rows: %w", err)
	}

	return comments, nil
}

// DeleteByTask deletes every comment on a task
func (r *CommentRepository) DeleteByTask(ctx context.Context, taskID uuid.UUID) error {
	if _, err := GetExecutor(ctx, r.db).ExecContext(ctx, `DELETE FROM comments WHERE task_id = $1`, taskID); err != nil {
		return fmt.Errorf("failed to delete task comments: %w", err)
	}
	return nil
}

// DeleteByProject deletes every comment on every task of a project
func (r *CommentRepository) DeleteByProject(ctx context.Context, projectID uuid.UUID) error {
	query := `DELETE FROM comments WHERE task_id IN (SELECT id FROM tasks WHERE project_id = $1)`
	if _, err := GetExecutor(ctx, r.db).ExecContext(ctx, query, projectID); err != nil {
		return fmt.Errorf("failed to delete project comments: %w", err)
	}
	return nil
}
