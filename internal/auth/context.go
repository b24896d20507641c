package auth

import (
	"context"

	"github.com/recipevault/recipevault/internal/model"
)

type authKey struct{}

// ContextWithAuth attaches the resolved session identity to ctx.
func ContextWithAuth(ctx context.Context, ac *model.AuthContext) context.Context {
	return context.WithValue(ctx, authKey{}, ac)
}

// AuthFromContext returns the caller's identity, or nil for anonymous
// requests.
func AuthFromContext(ctx context.Context) *model.AuthContext {
	ac, _ := ctx.Value(authKey{}).(*model.AuthContext)
	return ac
}

// UserIDFromContext returns the caller's user id, or "" when anonymous.
// Public recipe reads use it to decide draft visibility.
func UserIDFromContext(ctx context.Context) string {
	if ac := AuthFromContext(ctx); ac != nil {
		return ac.UserID
	}
	return ""
}
