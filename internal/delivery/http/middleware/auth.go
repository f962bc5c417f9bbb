package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	h "confcentral/internal/delivery/http/helpers"
	"confcentral/internal/domain"
)

type contextKey string

const identityKey contextKey = "identity"

type identity struct {
	UserID string
	Email  string
}

// SetIdentity returns a context with the caller identity set. Used by auth middleware.
func SetIdentity(ctx context.Context, userID, email string) context.Context {
	return context.WithValue(ctx, identityKey, identity{UserID: userID, Email: email})
}

// IdentityFromContext returns the authenticated user ID and email from the
// context, if present.
func IdentityFromContext(ctx context.Context) (userID, email string, ok bool) {
	id, ok := ctx.Value(identityKey).(identity)
	return id.UserID, id.Email, ok
}

// RequireAuth returns a wrapper that validates the Bearer token and sets the
// caller identity in the request context.
// If the token is missing or invalid, it responds with 401 and does not call next.
func RequireAuth(verifier domain.TokenVerifier, logger *slog.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth == "" {
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "missing authorization header")
				return
			}
			const prefix = "Bearer "
			if !strings.HasPrefix(auth, prefix) {
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "invalid authorization format")
				return
			}
			token := strings.TrimSpace(auth[len(prefix):])
			if token == "" {
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "missing token")
				return
			}
			userID, email, err := verifier.Verify(token)
			if err != nil {
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "invalid or expired token")
				return
			}
			r = r.WithContext(SetIdentity(r.Context(), userID, email))
			next(w, r)
		}
	}
}
