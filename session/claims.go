package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/upb/task-tracker/models"
)

var (
	// ErrInvalidToken is returned for any token that must not be trusted
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired is returned when the token's exp is in the past. It
	// wraps ErrInvalidToken.
	ErrTokenExpired = fmt.Errorf("%w: token expired", ErrInvalidToken)

	// ErrMissingClaim is returned when a required claim is absent. It wraps
	// ErrInvalidToken.
	ErrMissingClaim = fmt.Errorf("%w: missing required claim", ErrInvalidToken)
)

// Claims is the signed claim set carried by a session token
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role"`
}

// ParsedClaims holds verified and typed claims
type ParsedClaims struct {
	Subject   uuid.UUID
	Email     string
	Role      models.Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

func parseClaims(claims *Claims) (*ParsedClaims, error) {
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: sub", ErrMissingClaim)
	}
	sub, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: sub is not a UUID", ErrInvalidToken)
	}

	role, err := models.ParseRole(claims.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: exp", ErrMissingClaim)
	}

	parsed := &ParsedClaims{
		Subject:   sub,
		Email:     claims.Email,
		Role:      role,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		parsed.IssuedAt = claims.IssuedAt.Time
	}
	return parsed, nil
}
