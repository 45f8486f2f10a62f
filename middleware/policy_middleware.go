package middleware

import (
	"net/http"

	"github.com/upb/task-tracker/internal/policy"
	"github.com/upb/task-tracker/models"
	"github.com/upb/task-tracker/utils"
	"go.uber.org/zap"
)

// RoleGate decides an operation from the caller's role alone
type RoleGate interface {
	Gate(role models.Role, resource policy.Resource, action policy.Action) policy.Decision
}

// PolicyMiddleware rejects requests whose role can never perform the
// routed operation, before the handler decodes the body or loads anything
type PolicyMiddleware struct {
	gate   RoleGate
	logger *zap.Logger
}

// NewPolicyMiddleware creates a new PolicyMiddleware
func NewPolicyMiddleware(gate RoleGate, logger *zap.Logger) *PolicyMiddleware {
	return &PolicyMiddleware{
		gate:   gate,
		logger: logger,
	}
}

// Require must be mounted after RequireAuth
func (m *PolicyMiddleware) Require(resource policy.Resource, action policy.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := GetRequestIDFromContext(ctx)

			user := GetUserFromContext(ctx)
			if user == nil {
				m.logger.Error("principal not found in context",
					zap.String("request_id", requestID))
				_ = utils.WriteUnauthorized(w, "Authentication required")
				return
			}

			d := m.gate.Gate(user.Role, resource, action)
			if !d.Allowed() {
				m.logger.Info("request blocked by policy",
					zap.String("request_id", requestID),
					zap.String("resource", string(resource)),
					zap.String("action", string(action)),
					zap.Stringer("role", user.Role))
				_ = utils.WriteForbidden(w, d.Reason)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
