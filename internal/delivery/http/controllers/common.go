package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	h "confcentral/internal/delivery/http/helpers"
	"confcentral/internal/delivery/http/middleware"
	"confcentral/internal/domain"
)

// respondError writes the mapped error response and logs errors that surface
// as 500s. Client-side failures (bad input, missing entities, conflicts) are
// not logged.
func respondError(logger *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	if !isClientError(err) {
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
	}
	h.WriteServiceError(w, err)
}

func isClientError(err error) bool {
	return errors.Is(err, domain.ErrUnauthorized) ||
		errors.Is(err, domain.ErrForbidden) ||
		errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrConflict) ||
		errors.Is(err, domain.ErrInvalidInput) ||
		errors.Is(err, domain.ErrInvalidFilter) ||
		errors.Is(err, domain.ErrInvalidFilterValue) ||
		errors.Is(err, domain.ErrMultipleInequalityFields)
}

// callerIdentity reads the authenticated identity set by the auth middleware.
// Responds 401 and returns false when the request is unauthenticated.
func callerIdentity(w http.ResponseWriter, r *http.Request) (userID, email string, ok bool) {
	userID, email, ok = middleware.IdentityFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
	}
	return userID, email, ok
}
