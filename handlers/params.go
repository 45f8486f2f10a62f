package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/upb/task-tracker/middleware"
	"github.com/upb/task-tracker/models"
	"github.com/upb/task-tracker/utils"
	"go.uber.org/zap"
)

// pathID parses the named chi URL parameter. On failure it writes a 400
// and returns false.
func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := utils.ParseUUID(chi.URLParam(r, name), name)
	if err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return uuid.Nil, false
	}
	return id, true
}

// principal returns the authenticated user. Routes are mounted behind
// RequireAuth, so a missing principal is a wiring error.
func principal(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (*models.User, bool) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		logger.Error("principal missing from request context",
			zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())))
		_ = utils.WriteUnauthorized(w, "")
		return nil, false
	}
	return user, true
}
