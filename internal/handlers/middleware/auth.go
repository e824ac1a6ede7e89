package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/nkiryanov/mediashare/internal/apperrors"
	"github.com/nkiryanov/mediashare/internal/handlers/render"
	"github.com/nkiryanov/mediashare/internal/handlers/userctx"
	"github.com/nkiryanov/mediashare/internal/models"
)

type authService interface {
	// Has to return apperrors.ErrUnauthorized if request has no valid credentials
	// Any other error treated as transient
	GetUserFromRequest(ctx context.Context, r *http.Request) (models.User, error)
}

// Let request through only if it carries valid access token
// Authenticated user is available to handlers via userctx.FromContext
func AuthMiddleware(as authService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := as.GetUserFromRequest(r.Context(), r)

			switch {
			case err == nil:
			case errors.Is(err, apperrors.ErrUnauthorized):
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			default:
				render.ServiceError(w, "Service temporarily unavailable", http.StatusServiceUnavailable)
				return
			}

			ctx := userctx.New(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
