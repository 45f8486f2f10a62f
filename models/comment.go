package models

import (
	"time"

	"github.com/google/uuid"
)

// Comment is a message left on a task
type Comment struct {
	ID         uuid.UUID `json:"id" db:"id"`
	TaskID     uuid.UUID `json:"task_id" db:"task_id"`
	AuthorID   uuid.UUID `json:"author_id" db:"author_id"`
	AuthorName string    `json:"author_name,omitempty" db:"-"`
	Message    string    `json:"message" db:"message"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the Comment model
func (Comment) TableName() string {
	return "comments"
}

// NewComment creates a new Comment instance
func NewComment(taskID, authorID uuid.UUID, message string) *Comment {
	return &Comment{
		ID:        uuid.New(),
		TaskID:    taskID,
		AuthorID:  authorID,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
}
