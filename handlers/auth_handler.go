package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/upb/task-tracker/internal/observability"
	"github.com/upb/task-tracker/middleware"
	"github.com/upb/task-tracker/models"
	"github.com/upb/task-tracker/services"
	"github.com/upb/task-tracker/services/identity"
	"github.com/upb/task-tracker/session"
	"github.com/upb/task-tracker/utils"
	"go.uber.org/zap"
)

// IdentityResolver turns credentials into a principal
type IdentityResolver interface {
	Login(ctx context.Context, in identity.LoginInput) (*identity.Result, error)
	Register(ctx context.Context, in identity.RegisterInput) (*models.User, error)
}

// SessionIssuer signs a token for a resolved principal
type SessionIssuer interface {
	Issue(user *models.User, assigned models.Role) (*session.Token, error)
}

// loginRequest accepts secret_code as an alias of escalation_code
type loginRequest struct {
	Email          string  `json:"email"`
	Password       string  `json:"password"`
	EscalationCode *string `json:"escalation_code"`
	SecretCode     *string `json:"secret_code"`
}

func (r loginRequest) input() identity.LoginInput {
	code := r.EscalationCode
	if code == nil {
		code = r.SecretCode
	}
	return identity.LoginInput{Email: r.Email, Password: r.Password, EscalationCode: code}
}

// AuthHandler handles login, registration and the current principal
type AuthHandler struct {
	resolver IdentityResolver
	issuer   SessionIssuer
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewAuthHandler creates a new AuthHandler. metrics may be nil.
func NewAuthHandler(resolver IdentityResolver, issuer SessionIssuer, metrics *observability.Metrics, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		resolver: resolver,
		issuer:   issuer,
		metrics:  metrics,
		logger:   logger,
	}
}

// HandleLogin handles POST /auth/login. The response is the bare token
// object, not wrapped in the data envelope.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		HandleDecodeError(w, err, h.logger)
		return
	}

	result, err := h.resolver.Login(r.Context(), req.input())
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			h.metrics.RecordLogin(observability.LoginInvalidCredentials)
		} else {
			h.metrics.RecordLogin(observability.LoginRejected)
		}
		HandleServiceError(w, err, h.logger)
		return
	}

	token, err := h.issuer.Issue(result.User, result.Role)
	if err != nil {
		HandleServiceError(w, services.WrapInternal("failed to issue token", err), h.logger)
		return
	}

	if result.Provisioned {
		h.metrics.RecordLogin(observability.LoginProvisioned)
	} else {
		h.metrics.RecordLogin(observability.LoginAuthenticated)
	}

	h.logger.Debug("token issued",
		zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
		zap.String("user_id", result.User.ID.String()),
		zap.Stringer("role", result.Role))

	if err := utils.WriteJSON(w, http.StatusOK, token); err != nil {
		h.logger.Error("failed to write login response", zap.Error(err))
	}
}

// HandleRegister handles POST /auth/register
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var in identity.RegisterInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		HandleDecodeError(w, err, h.logger)
		return
	}

	user, err := h.resolver.Register(r.Context(), in)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteCreated(w, user)
}

// HandleMe handles GET /auth/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		_ = utils.WriteUnauthorized(w, "")
		return
	}
	_ = utils.WriteOK(w, user)
}
