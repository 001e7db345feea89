package transport

import (
	"errors"
	"net/http"

	"freezer-inventory/internal/middleware"
	"freezer-inventory/internal/service"

	"go.uber.org/zap"
)

// statusForError maps the service error taxonomy onto HTTP status codes.
// Anything unrecognised is an internal error.
func statusForError(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrInvalidStatus):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrDuplicateName),
		errors.Is(err, service.ErrDuplicateIdentifier),
		errors.Is(err, service.ErrHasDependents):
		return http.StatusConflict
	case errors.Is(err, service.ErrForbidden), errors.Is(err, service.ErrProtectedCategory):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// respondWithServiceError writes the error envelope for err. Internal errors
// are logged and replaced by fallback so storage details never reach clients.
func respondWithServiceError(w http.ResponseWriter, logger *zap.Logger, err error, fallback string) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		logger.Error(fallback, zap.Error(err))
		middleware.RespondWithError(w, status, fallback)
		return
	}

	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		middleware.RespondWithValidationErrors(w, []middleware.ValidationError{{
			Field:   validationErr.Field,
			Message: validationErr.Message,
		}})
		return
	}

	logger.Debug("Request rejected", zap.Int("status", status), zap.Error(err))
	middleware.RespondWithError(w, status, err.Error())
}
