package models

import (
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the progress of a task
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusDone       TaskStatus = "done"
)

// Valid reports whether s is a known task status
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusDone:
		return true
	}
	return false
}

// Task belongs to one project and is assigned to exactly one user
type Task struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	Title       string     `json:"title" db:"title"`
	Description *string    `json:"description,omitempty" db:"description"`
	ProjectID   uuid.UUID  `json:"project_id" db:"project_id"`
	AssignedTo  uuid.UUID  `json:"assigned_to" db:"assigned_to"`
	Status      TaskStatus `json:"status" db:"status"`
	DueDate     *time.Time `json:"due_date,omitempty" db:"due_date"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the Task model
func (Task) TableName() string {
	return "tasks"
}

// NewTask creates a new Task in the todo state
func NewTask(title string, projectID, assignedTo uuid.UUID) *Task {
	return &Task{
		ID:         uuid.New(),
		Title:      title,
		ProjectID:  projectID,
		AssignedTo: assignedTo,
		Status:     TaskStatusTodo,
		CreatedAt:  time.Now().UTC(),
	}
}
