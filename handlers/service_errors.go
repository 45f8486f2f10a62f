package handlers

import (
	"net/http"

	"github.com/upb/task-tracker/services"
	"github.com/upb/task-tracker/utils"
	"go.uber.org/zap"
)

// HandleServiceError maps domain errors to HTTP responses. Internal errors
// are logged and answered with a generic message.
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	message := services.GetErrorMessage(err)
	details := services.GetErrorDetails(err)
	if len(details) == 0 {
		details = nil
	}

	var writeErr error
	switch {
	case services.IsNotFoundError(err):
		writeErr = utils.WriteNotFound(w, message)

	case services.IsValidationError(err):
		writeErr = utils.WriteBadRequest(w, message, details)

	case services.IsUnauthorizedError(err):
		writeErr = utils.WriteUnauthorized(w, message)

	case services.IsForbiddenError(err):
		writeErr = utils.WriteForbidden(w, message)

	case services.IsConflictError(err):
		writeErr = utils.WriteConflict(w, message, details)

	case services.IsInternalError(err):
		logger.Error("internal server error", zap.Error(err))
		writeErr = utils.WriteInternalServerError(w, "An internal error occurred")

	default:
		logger.Error("unhandled error type",
			zap.Error(err),
			zap.String("error_type", string(services.GetErrorType(err))))
		writeErr = utils.WriteError(w, http.StatusInternalServerError, "An unexpected error occurred", nil)
	}

	if writeErr != nil {
		logger.Error("failed to write error response", zap.Error(writeErr))
	}
}

// HandleDecodeError answers a request whose body could not be parsed
func HandleDecodeError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if writeErr := utils.WriteBadRequest(w, err.Error(), nil); writeErr != nil {
		logger.Error("failed to write decode error response", zap.Error(writeErr))
	}
}
