package auth

import (
	"context"
	"testing"

	"github.com/recipevault/recipevault/internal/model"
)

func TestContextWithAuth(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if AuthFromContext(ctx) != nil || UserIDFromContext(ctx) != "" {
		t.Fatal("empty context should carry no auth")
	}

	want := &model.AuthContext{UserID: "u1", SessionID: "s1", Role: model.RoleUser}
	ctx = ContextWithAuth(ctx, want)
	if got := AuthFromContext(ctx); got != want {
		t.Errorf("AuthFromContext = %+v, want %+v", got, want)
	}
	if UserIDFromContext(ctx) != "u1" {
		t.Errorf("UserIDFromContext = %q", UserIDFromContext(ctx))
	}
}

func TestAuthFromContext_NilIdentity(t *testing.T) {
	t.Parallel()

	ctx := ContextWithAuth(context.Background(), nil)
	if AuthFromContext(ctx) != nil || UserIDFromContext(ctx) != "" {
		t.Error("nil identity must read back as anonymous")
	}
}
