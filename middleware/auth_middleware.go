package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/upb/task-tracker/models"
	"github.com/upb/task-tracker/utils"
	"go.uber.org/zap"
)

// PrincipalLoader resolves a bearer token into the stored user
type PrincipalLoader interface {
	Load(ctx context.Context, token string) (*models.User, error)
}

// AuthMiddleware provides authentication middleware functionality
type AuthMiddleware struct {
	loader PrincipalLoader
	logger *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(loader PrincipalLoader, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		loader: loader,
		logger: logger,
	}
}

// RequireAuth rejects requests without a valid bearer token and stores the
// loaded principal in the request context. The role used downstream is the
// one currently stored, not the one embedded in the token.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := GetRequestIDFromContext(ctx)

		token := extractBearerToken(r)
		if token == "" {
			m.logger.Debug("missing bearer token",
				zap.String("request_id", requestID))
			_ = utils.WriteUnauthorized(w, "Missing or invalid authorization")
			return
		}

		user, err := m.loader.Load(ctx, token)
		if err != nil {
			m.logger.Warn("token rejected",
				zap.String("request_id", requestID),
				zap.Error(err))
			_ = utils.WriteUnauthorized(w, "Could not validate credentials")
			return
		}

		m.logger.Debug("authentication successful",
			zap.String("request_id", requestID),
			zap.String("user_id", user.ID.String()),
			zap.Stringer("role", user.Role))

		next.ServeHTTP(w, r.WithContext(WithUser(ctx, user)))
	})
}

// extractBearerToken extracts the Bearer token from the Authorization header
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
