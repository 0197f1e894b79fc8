package middleware

import (
	"errors"
	"net/http"

	"storefront-be/internal/auth"
	"storefront-be/internal/logger"
	"storefront-be/internal/utils"

	"go.uber.org/zap"
)

// Authenticator validates an admin credential taken from the request.
type Authenticator interface {
	Authenticate(credential string) error
}

// AdminOnly rejects requests that do not carry a valid admin token or password.
func AdminOnly(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			err := a.Authenticate(auth.ExtractAccessToken(r))
			if err != nil {
				log := logger.FromCtx(r.Context()).With(zap.String("layer", "middleware"))
				if errors.Is(err, auth.ErrNotConfigured) {
					log.Error("admin authentication not configured")
				} else {
					log.Warn("admin authentication failed", zap.String("path", r.URL.Path))
				}
				utils.WriteJSONError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
