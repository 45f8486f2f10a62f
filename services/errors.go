package services

import (
	"errors"
	"fmt"

	"github.com/upb/task-tracker/utils"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	ErrorTypeForbidden    ErrorType = "forbidden"
	ErrorTypeConflict     ErrorType = "conflict"
	ErrorTypeInternal     ErrorType = "internal"
)

// DomainError represents a structured error with additional context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]interface{}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches any DomainError of the same Type
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WithDetail adds a detail to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

// Domain error variables. They are matched by type with errors.Is; build a
// fresh error with NewDomainError when a specific message is needed.
var (
	ErrUserNotFound    = NewDomainError(ErrorTypeNotFound, "user not found", nil)
	ErrTeamNotFound    = NewDomainError(ErrorTypeNotFound, "team not found", nil)
	ErrProjectNotFound = NewDomainError(ErrorTypeNotFound, "project not found", nil)
	ErrTaskNotFound    = NewDomainError(ErrorTypeNotFound, "task not found", nil)

	// ErrAssigneeNotFound is returned when a task names a user that does not exist
	ErrAssigneeNotFound = NewDomainError(ErrorTypeNotFound, "assigned user not found", nil)

	ErrInvalidInput = NewDomainError(ErrorTypeValidation, "invalid input", nil)

	// ErrInvalidCredentials is returned for a wrong password on an existing account
	ErrInvalidCredentials = NewDomainError(ErrorTypeUnauthorized, "incorrect email or password", nil)
	// ErrUnauthenticated is returned when a bearer token cannot be turned into a live principal
	ErrUnauthenticated = NewDomainError(ErrorTypeUnauthorized, "could not validate credentials", nil)

	ErrForbidden = NewDomainError(ErrorTypeForbidden, "access forbidden", nil)

	ErrDuplicateEmail    = NewDomainError(ErrorTypeConflict, "email already registered", nil)
	ErrDuplicateUsername = NewDomainError(ErrorTypeConflict, "username already taken", nil)
	ErrDuplicateTeamName = NewDomainError(ErrorTypeConflict, "team name already exists", nil)
	ErrTeamInUse         = NewDomainError(ErrorTypeConflict, "team still has projects", nil)

	ErrInternal = NewDomainError(ErrorTypeInternal, "internal server error", nil)
)

// Forbidden builds a forbidden error carrying a human-readable reason
func Forbidden(reason string) *DomainError {
	return NewDomainError(ErrorTypeForbidden, reason, nil)
}

// Validation builds a validation error for a single field
func Validation(field, message string) *DomainError {
	return NewDomainError(ErrorTypeValidation, message, nil).WithDetail(field, message)
}

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool {
	return GetErrorType(err) == ErrorTypeNotFound
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return GetErrorType(err) == ErrorTypeValidation
}

// IsUnauthorizedError checks if an error is an unauthorized error
func IsUnauthorizedError(err error) bool {
	return GetErrorType(err) == ErrorTypeUnauthorized
}

// IsForbiddenError checks if an error is a forbidden error
func IsForbiddenError(err error) bool {
	return GetErrorType(err) == ErrorTypeForbidden
}

// IsConflictError checks if an error is a conflict error
func IsConflictError(err error) bool {
	return GetErrorType(err) == ErrorTypeConflict
}

// IsInternalError checks if an error is an internal error
func IsInternalError(err error) bool {
	return GetErrorType(err) == ErrorTypeInternal
}

// GetErrorType returns the ErrorType of a domain error, or empty string if not a domain error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// GetErrorDetails returns the details map of a domain error, or nil if not a domain error
func GetErrorDetails(err error) map[string]interface{} {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}

// GetErrorMessage returns the client-facing message of a domain error
func GetErrorMessage(err error) string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return ""
}

// WrapInternal wraps an error as an internal error
func WrapInternal(message string, err error) error {
	return NewDomainError(ErrorTypeInternal, message, err)
}

// ValidateInput runs struct-tag validation and converts failures into a
// validation DomainError carrying per-field messages
func ValidateInput(input interface{}) error {
	err := utils.ValidateStruct(input)
	if err == nil {
		return nil
	}

	domainErr := NewDomainError(ErrorTypeValidation, "validation failed", nil)
	for field, msg := range utils.GetValidationFields(err) {
		domainErr.WithDetail(field, msg)
	}
	if len(domainErr.Details) == 0 {
		domainErr.Err = err
	}
	return domainErr
}
