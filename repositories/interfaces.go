package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/upb/task-tracker/models"
)

var (
	// ErrNotFound is returned when a lookup matches no row
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateEmail is returned when a user insert collides on email
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrDuplicateUsername is returned when a user insert collides on username
	ErrDuplicateUsername = errors.New("username already taken")

	// ErrDuplicateTeamName is returned when a team insert or rename collides on name
	ErrDuplicateTeamName = errors.New("team name already exists")

	// ErrStillReferenced is returned when a delete is blocked by dependent rows
	ErrStillReferenced = errors.New("record is still referenced")
)

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes a function within a transaction
	// Automatically commits if function succeeds, rolls back on error
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction
type Transaction interface {
	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Context returns a context carrying the transaction. Repositories called
	// with it run their statements inside the transaction.
	Context() context.Context
}

// UserRepository handles user data operations
type UserRepository interface {
	// Create inserts a new user. Unique violations surface as
	// ErrDuplicateEmail or ErrDuplicateUsername.
	Create(ctx context.Context, user *models.User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// GetByEmail retrieves a user by exact, case-sensitive email
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// GetByUsername retrieves a user by username
	GetByUsername(ctx context.Context, username string) (*models.User, error)

	// UpdateRole persists a new role for the user
	UpdateRole(ctx context.Context, id uuid.UUID, role models.Role) error

	// Count returns the number of users
	Count(ctx context.Context) (int, error)
}

// TeamRepository handles team data operations
type TeamRepository interface {
	Create(ctx context.Context, team *models.Team) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Team, error)
	List(ctx context.Context) ([]*models.Team, error)
	Update(ctx context.Context, team *models.Team) error

	// Delete removes a team. Returns ErrStillReferenced while projects use it.
	Delete(ctx context.Context, id uuid.UUID) error

	Count(ctx context.Context) (int, error)
}

// ProjectFilter narrows project queries. Non-nil scope clauses are ORed;
// Status is ANDed with the result.
type ProjectFilter struct {
	ManagerID     *uuid.UUID
	ParticipantID *uuid.UUID // projects holding a task assigned to this user
	Status        *models.ProjectStatus
}

// ProjectRepository handles project data operations
type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
	List(ctx context.Context, filter ProjectFilter) ([]*models.Project, error)
	Update(ctx context.Context, project *models.Project) error
	Delete(ctx context.Context, id uuid.UUID) error

	// CountByStatus returns project counts keyed by status
	CountByStatus(ctx context.Context, filter ProjectFilter) (map[models.ProjectStatus]int, error)
}

// TaskFilter narrows task queries. Non-nil scope clauses are ORed;
// Status is ANDed with the result.
type TaskFilter struct {
	ManagerID  *uuid.UUID // tasks in projects managed by this user
	AssignedTo *uuid.UUID
	Status     *models.TaskStatus
}

// TaskRepository handles task data operations
type TaskRepository interface {
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error)

	// List returns tasks ordered by due date (nulls last), then newest first
	List(ctx context.Context, filter TaskFilter) ([]*models.Task, error)

	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByProject(ctx context.Context, projectID uuid.UUID) error

	// CountByStatus returns task counts keyed by status
	CountByStatus(ctx context.Context, filter TaskFilter) (map[models.TaskStatus]int, error)
}

// CommentRepository handles comment data operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error

	// ListByTask returns comments oldest first with AuthorName populated
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]*models.Comment, error)

	DeleteByTask(ctx context.Context, taskID uuid.UUID) error
	DeleteByProject(ctx context.Context, projectID uuid.UUID) error
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Users    UserRepository
	Teams    TeamRepository
	Projects ProjectRepository
	Tasks    TaskRepository
	Comments CommentRepository
}
