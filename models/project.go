package models

import (
	"time"

	"github.com/google/uuid"
)

// ProjectStatus represents the lifecycle state of a project
type ProjectStatus string

const (
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusCompleted ProjectStatus = "completed"
)

// Valid reports whether s is a known project status
func (s ProjectStatus) Valid() bool {
	return s == ProjectStatusActive || s == ProjectStatusCompleted
}

// Project belongs to one team and has exactly one managing user
type Project struct {
	ID          uuid.UUID     `json:"id" db:"id"`
	Name        string        `json:"name" db:"name"`
	Description *string       `json:"description,omitempty" db:"description"`
	TeamID      uuid.UUID     `json:"team_id" db:"team_id"`
	ManagerID   uuid.UUID     `json:"manager_id" db:"manager_id"`
	Status      ProjectStatus `json:"status" db:"status"`
	StartDate   *time.Time    `json:"start_date,omitempty" db:"start_date"`
	EndDate     *time.Time    `json:"end_date,omitempty" db:"end_date"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the Project model
func (Project) TableName() string {
	return "projects"
}

// NewProject creates a new active Project managed by managerID
func NewProject(name string, teamID, managerID uuid.UUID) *Project {
	return &Project{
		ID:        uuid.New(),
		Name:      name,
		TeamID:    teamID,
		ManagerID: managerID,
		Status:    ProjectStatusActive,
		CreatedAt: time.Now().UTC(),
	}
}
