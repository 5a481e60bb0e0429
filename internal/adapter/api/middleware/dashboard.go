package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/josefe-ing/storepulse/internal/domain"
	"github.com/josefe-ing/storepulse/internal/usecase"
)

// DashboardAuth guards admin routes with a session token and a required
// permission set. On success the verified claims are attached to the request
// context.
func DashboardAuth(tokens *usecase.TokenService, logger *slog.Logger, required ...string) func(http.Handler) http.Handler {
	logger = logger.With("component", "dashboard_auth")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerCredential(r)
			if !ok || token == "" {
				writeJSONError(w, http.StatusUnauthorized, "invalid or missing token")
				return
			}

			claims, err := tokens.Verify(r.Context(), token)
			if err != nil {
				logger.Warn("token rejected", "reason", err.Error(), "remote_addr", r.RemoteAddr)
				writeJSONError(w, http.StatusUnauthorized, "invalid or missing token")
				return
			}

			if err := usecase.RequirePermissions(claims, required...); err != nil {
				// The missing permission is named; it is not sensitive.
				writeJSONError(w, http.StatusForbidden, fmt.Sprintf("permission denied: %s", trimSentinel(err)))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func trimSentinel(err error) string {
	if errors.Is(err, domain.ErrPermissionDenied) {
		return err.Error()
	}
	return "insufficient permissions"
}
