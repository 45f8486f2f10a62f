package policy

import (
	"github.com/google/uuid"
	"github.com/upb/task-tracker/models"
)

// Resource names a guarded entity type
type Resource string

const (
	ResourceTeam    Resource = "team"
	ResourceProject Resource = "project"
	ResourceTask    Resource = "task"
	ResourceComment Resource = "comment"
	ResourceStats   Resource = "stats"
)

// Action names an operation on a resource
type Action string

const (
	ActionList   Action = "list"
	ActionGet    Action = "get"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Effect is the outcome of a decision. The zero value denies.
type Effect uint8

const (
	EffectDeny Effect = iota
	EffectAllow
	EffectScope
)

func (e Effect) String() string {
	switch e {
	case EffectAllow:
		return "allow"
	case EffectScope:
		return "scope"
	default:
		return "deny"
	}
}

// Actor is the principal a decision is made for. Role must be the role
// loaded from the store for this request.
type Actor struct {
	ID   uuid.UUID
	Role models.Role
}

// ActorOf builds an Actor from a loaded user
func ActorOf(u *models.User) Actor {
	return Actor{ID: u.ID, Role: u.Role}
}

// Owners carries the ownership references of the resource being acted on.
// Unknown references are left nil.
type Owners struct {
	// ManagerID is the project's manager; for tasks, the manager of the
	// project the task belongs to
	ManagerID *uuid.UUID

	// AssigneeID is the task's assignee
	AssigneeID *uuid.UUID

	// TeamCreatorID is the creator of the team a project is created in
	TeamCreatorID *uuid.UUID
}

// Request describes one operation to decide
type Request struct {
	Resource Resource
	Action   Action
	Owners   Owners

	// Fields lists the body fields present in an update request
	Fields []string
}

// Filter narrows list queries. Non-nil clauses are ORed. Project queries
// honour ManagerID and ParticipantID; task queries honour ManagerID and
// AssigneeID.
type Filter struct {
	ManagerID     *uuid.UUID
	AssigneeID    *uuid.UUID
	ParticipantID *uuid.UUID
}

// Decision is the evaluator's verdict
type Decision struct {
	Effect Effect
	Filter Filter
	Reason string
}

// Allowed reports whether the operation may proceed, scoped or not
func (d Decision) Allowed() bool {
	return d.Effect != EffectDeny
}
