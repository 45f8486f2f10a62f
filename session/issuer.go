package session

import (
	"fmt"
	"time"

	"github.com/upb/task-tracker/models"
)

// TokenTypeBearer is the only token type issued
const TokenTypeBearer = "bearer"

// Token is the login response body
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// Issuer wraps a resolved principal into a signed token
type Issuer struct {
	codec *Codec
	ttl   time.Duration
}

// NewIssuer creates an issuer producing tokens valid for ttl
func NewIssuer(codec *Codec, ttl time.Duration) *Issuer {
	return &Issuer{codec: codec, ttl: ttl}
}

// Issue signs a token embedding the role just assigned at login
func (i *Issuer) Issue(user *models.User, assigned models.Role) (*Token, error) {
	signed, _, err := i.codec.Sign(user.ID, user.Email, assigned, i.ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session: %w", err)
	}

	return &Token{
		AccessToken: signed,
		TokenType:   TokenTypeBearer,
		ExpiresIn:   int(i.ttl.Seconds()),
	}, nil
}
