package controllers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"projecthub/internal/delivery/http/helpers"
	"projecthub/internal/domain"
)

// writeDomainError maps domain sentinel errors to the API error envelope.
// Unexpected errors are logged with full detail and reported generically.
func writeDomainError(ctx context.Context, w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrUserNotFound):
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "not found")
	case errors.Is(err, domain.ErrForbidden):
		helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
	case errors.Is(err, domain.ErrInvalidInput):
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid input")
	case errors.Is(err, domain.ErrInvalidToken):
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "invalid identity token")
	case errors.Is(err, domain.ErrAlreadyMember):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "already a member")
	case errors.Is(err, domain.ErrCannotRemoveOwner):
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "cannot remove the project owner")
	case errors.Is(err, domain.ErrDuplicateProjectName):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "project name already in use")
	case errors.Is(err, domain.ErrCodeGenerationExhausted):
		helpers.WriteJSONError(w, http.StatusServiceUnavailable, helpers.ErrCodeInternalError, "failed to generate unique invite code")
	default:
		logger.ErrorContext(ctx, "request failed", "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "internal error")
	}
}
