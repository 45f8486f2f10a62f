package identity

import (
	"context"
	"errors"

	"github.com/upb/task-tracker/models"
	"github.com/upb/task-tracker/repositories"
	"github.com/upb/task-tracker/services"
	"github.com/upb/task-tracker/session"
	"go.uber.org/zap"
)

// TokenVerifier decodes bearer tokens
type TokenVerifier interface {
	Verify(token string) (*session.ParsedClaims, error)
}

// Loader turns a bearer token into the live principal it names
type Loader struct {
	verifier TokenVerifier
	users    repositories.UserRepository
	logger   *zap.Logger
}

// NewLoader creates a new Loader
func NewLoader(verifier TokenVerifier, users repositories.UserRepository, logger *zap.Logger) *Loader {
	return &Loader{
		verifier: verifier,
		users:    users,
		logger:   logger,
	}
}

// Load verifies token and loads its subject from the store. The returned
// user carries the stored role; the role embedded in the token is ignored.
func (l *Loader) Load(ctx context.Context, token string) (*models.User, error) {
	claims, err := l.verifier.Verify(token)
	if err != nil {
		l.logger.Debug("bearer token rejected", zap.Error(err))
		return nil, services.ErrUnauthenticated
	}

	user, err := l.users.GetByID(ctx, claims.Subject)
	if errors.Is(err, repositories.ErrNotFound) {
		l.logger.Debug("token subject no longer exists", zap.String("user_id", claims.Subject.String()))
		return nil, services.ErrUnauthenticated
	}
	if err != nil {
		return nil, services.WrapInternal("failed to load principal", err)
	}

	return user, nil
}
