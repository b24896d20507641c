package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/recipevault/recipevault/internal/auth"
)

// FeatureChecker reports whether a user may use a premium feature.
type FeatureChecker interface {
	HasFeatureAccess(ctx context.Context, userID, feature string) bool
}

// RequireAdmin returns middleware that only lets admins through.
// Must be applied after Auth middleware.
func RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authCtx := auth.AuthFromContext(r.Context())
			if authCtx == nil {
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
				return
			}
			if !authCtx.IsAdmin() {
				writeError(w, http.StatusForbidden, "FORBIDDEN", "Admin role required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireFeature returns middleware that gates a route on a premium feature.
// Must be applied after Auth middleware.
func RequireFeature(checker FeatureChecker, feature string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authCtx := auth.AuthFromContext(r.Context())
			if authCtx == nil {
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
				return
			}
			if !checker.HasFeatureAccess(r.Context(), authCtx.UserID, feature) {
				writeError(w, http.StatusForbidden, "PREMIUM_REQUIRED",
					fmt.Sprintf("Feature %s requires a premium subscription", feature))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
