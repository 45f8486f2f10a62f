package models

import (
	"time"

	"github.com/google/uuid"
)

// Team groups projects. Team names are unique.
type Team struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description,omitempty" db:"description"`
	CreatedBy   uuid.UUID `json:"created_by" db:"created_by"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the Team model
func (Team) TableName() string {
	return "teams"
}

// NewTeam creates a new Team instance
func NewTeam(name string, description *string, createdBy uuid.UUID) *Team {
	return &Team{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		CreatedBy:   createdBy,
		CreatedAt:   time.Now().UTC(),
	}
}
