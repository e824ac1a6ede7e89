package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/nkiryanov/mediashare/internal/apperrors"
	"github.com/nkiryanov/mediashare/internal/handlers/render"
	"github.com/nkiryanov/mediashare/internal/logger"
)

// Render service error. Client caused errors are rendered as is, the rest are logged first
func renderError(w http.ResponseWriter, l logger.Logger, msg string, err error) {
	if !isClientError(err) {
		l.Error(msg, "error", err)
	}
	render.AppError(w, err)
}

func isClientError(err error) bool {
	return errors.Is(err, apperrors.ErrValidation) ||
		errors.Is(err, apperrors.ErrAuth) ||
		errors.Is(err, apperrors.ErrTokenInvalid) ||
		errors.Is(err, apperrors.ErrTokenReused) ||
		errors.Is(err, apperrors.ErrUnauthorized) ||
		errors.Is(err, apperrors.ErrConflict) ||
		errors.Is(err, apperrors.ErrUserNotFound) ||
		errors.Is(err, apperrors.ErrRelationNotFound)
}

// Parse uuid path value
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, apperrors.NewValidationError(name, "Must be a valid uuid")
	}
	return id, nil
}
