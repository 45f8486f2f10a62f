// Package identity turns submitted credentials into principals: it verifies
// passwords, provisions unknown emails, and re-derives roles on every login.
package identity

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/upb/task-tracker/models"
	"github.com/upb/task-tracker/repositories"
	"github.com/upb/task-tracker/services"
	"go.uber.org/zap"
)

const (
	suffixMin = 1000
	suffixMax = 9999

	// maxProvisionAttempts bounds username collision retries during provisioning
	maxProvisionAttempts = 10
)

// LoginInput is a login attempt
type LoginInput struct {
	Email          string  `json:"email" validate:"required,email"`
	Password       string  `json:"password" validate:"required,maxbytes=72"`
	EscalationCode *string `json:"escalation_code,omitempty"`
}

// RegisterInput is an explicit signup
type RegisterInput struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,maxbytes=72"`
}

// Result is a resolved principal together with the role assigned by this login.
// Role always equals User.Role after a successful resolution.
type Result struct {
	User        *models.User
	Role        models.Role
	Provisioned bool
}

// Resolver establishes principals from credentials
type Resolver struct {
	users  repositories.UserRepository
	hasher *PasswordHasher
	rules  RoleRules
	logger *zap.Logger
	suffix func() int
}

// ResolverOption configures a Resolver
type ResolverOption func(*Resolver)

// WithSuffixSource overrides the random username suffix generator
func WithSuffixSource(fn func() int) ResolverOption {
	return func(r *Resolver) {
		r.suffix = fn
	}
}

// NewResolver creates a new Resolver
func NewResolver(users repositories.UserRepository, hasher *PasswordHasher, rules RoleRules, logger *zap.Logger, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		users:  users,
		hasher: hasher,
		rules:  rules,
		logger: logger,
		suffix: func() int { return suffixMin + rand.IntN(suffixMax-suffixMin+1) },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Login resolves an email/password pair. Unknown emails are provisioned;
// known ones must present the right password. Either way the role is
// re-derived from what was submitted and persisted when it changes.
func (r *Resolver) Login(ctx context.Context, in LoginInput) (*Result, error) {
	if err := services.ValidateInput(&in); err != nil {
		return nil, err
	}

	user, err := r.users.GetByEmail(ctx, in.Email)
	if errors.Is(err, repositories.ErrNotFound) {
		return r.provision(ctx, in)
	}
	if err != nil {
		return nil, services.WrapInternal("failed to look up user", err)
	}

	return r.authenticate(ctx, user, in)
}

// Register creates a member account with the chosen username
func (r *Resolver) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if err := services.ValidateInput(&in); err != nil {
		return nil, err
	}

	hash, err := r.hasher.Hash(in.Password)
	if err != nil {
		return nil, services.WrapInternal("failed to register user", err)
	}

	user := models.NewUser(in.Username, in.Email, hash, models.RoleMember)
	switch err := r.users.Create(ctx, user); {
	case errors.Is(err, repositories.ErrDuplicateEmail):
		return nil, services.ErrDuplicateEmail
	case errors.Is(err, repositories.ErrDuplicateUsername):
		return nil, services.ErrDuplicateUsername
	case err != nil:
		return nil, services.WrapInternal("failed to register user", err)
	}

	r.logger.Info("user registered",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username),
	)
	return user, nil
}

func (r *Resolver) authenticate(ctx context.Context, user *models.User, in LoginInput) (*Result, error) {
	ok, err := r.hasher.Verify(in.Password, user.PasswordHash)
	if err != nil {
		return nil, services.WrapInternal("failed to verify password", err)
	}
	if !ok {
		return nil, services.ErrInvalidCredentials
	}

	role := r.rules.Assign(in.Email, in.EscalationCode)
	if role != user.Role {
		if err := r.users.UpdateRole(ctx, user.ID, role); err != nil {
			return nil, services.WrapInternal("failed to update role", err)
		}
		r.logger.Info("role changed at login",
			zap.String("user_id", user.ID.String()),
			zap.Stringer("from", user.Role),
			zap.Stringer("to", role),
		)
		user.Role = role
	}

	return &Result{User: user, Role: role}, nil
}

func (r *Resolver) provision(ctx context.Context, in LoginInput) (*Result, error) {
	hash, err := r.hasher.Hash(in.Password)
	if err != nil {
		return nil, services.WrapInternal("failed to provision user", err)
	}
	role := r.rules.Assign(in.Email, in.EscalationCode)
	base := usernameFromEmail(in.Email)

	for attempt := 0; attempt < maxProvisionAttempts; attempt++ {
		username, err := r.freeUsername(ctx, base, attempt > 0)
		if err != nil {
			return nil, err
		}

		user := models.NewUser(username, in.Email, hash, role)
		err = r.users.Create(ctx, user)
		switch {
		case err == nil:
			r.logger.Info("user provisioned at login",
				zap.String("user_id", user.ID.String()),
				zap.String("username", user.Username),
				zap.Stringer("role", role),
			)
			return &Result{User: user, Role: role, Provisioned: true}, nil

		case errors.Is(err, repositories.ErrDuplicateEmail):
			// a concurrent login created the account first
			existing, err := r.users.GetByEmail(ctx, in.Email)
			if err != nil {
				return nil, services.WrapInternal("failed to re-read provisioned user", err)
			}
			return r.authenticate(ctx, existing, in)

		case errors.Is(err, repositories.ErrDuplicateUsername):
			continue

		default:
			return nil, services.WrapInternal("failed to provision user", err)
		}
	}

	return nil, services.WrapInternal("failed to provision user",
		fmt.Errorf("no free username for %q after %d attempts", base, maxProvisionAttempts))
}

// freeUsername returns base if no user holds it, otherwise base with a
// random numeric suffix that no existing user holds
func (r *Resolver) freeUsername(ctx context.Context, base string, skipBase bool) (string, error) {
	candidate := base
	if skipBase {
		candidate = r.suffixed(base)
	}

	for i := 0; i < maxProvisionAttempts; i++ {
		_, err := r.users.GetByUsername(ctx, candidate)
		if errors.Is(err, repositories.ErrNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", services.WrapInternal("failed to check username", err)
		}
		candidate = r.suffixed(base)
	}

	return "", services.WrapInternal("failed to provision user",
		fmt.Errorf("no free username for %q after %d attempts", base, maxProvisionAttempts))
}

func (r *Resolver) suffixed(base string) string {
	return fmt.Sprintf("%s_%d", base, r.suffix())
}

func usernameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}
