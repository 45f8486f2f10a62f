package postgres

import (
	"errors"

	"github.com/lib/pq"
	"github.com/upb/task-tracker/repositories"
)

// PostgreSQL SQLSTATE codes we translate.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// constraintErrors maps unique constraint names from Schema to sentinels.
var constraintErrors = map[string]error{
	"users_email_key":    repositories.ErrDuplicateEmail,
	"users_username_key": repositories.ErrDuplicateUsername,
	"teams_name_key":     repositories.ErrDuplicateTeamName,
}

// uniqueViolation returns the sentinel for a unique violation on one of the
// named constraints, or nil for any other error.
func uniqueViolation(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || string(pqErr.Code) != codeUniqueViolation {
		return nil
	}
	return constraintErrors[pqErr.Constraint]
}

// foreignKeyViolation reports whether err was raised by a foreign key constraint.
func foreignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == codeForeignKeyViolation
}
