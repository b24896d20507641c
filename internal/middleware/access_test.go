package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/recipevault/recipevault/internal/auth"
	"github.com/recipevault/recipevault/internal/model"
)

type stubFeatures map[string]bool

func (s stubFeatures) HasFeatureAccess(ctx context.Context, userID, feature string) bool {
	return s[userID+":"+feature]
}

func serveWithAuth(h http.Handler, ac *model.AuthContext) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if ac != nil {
		req = req.WithContext(auth.ContextWithAuth(req.Context(), ac))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAdmin(t *testing.T) {
	testCases := []struct {
		name       string
		authCtx    *model.AuthContext
		wantStatus int
	}{
		{"admin passes", &model.AuthContext{UserID: "a", Role: model.RoleAdmin}, http.StatusOK},
		{"user forbidden", &model.AuthContext{UserID: "u", Role: model.RoleUser}, http.StatusForbidden},
		{"no auth context", nil, http.StatusUnauthorized},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serveWithAuth(RequireAdmin()(okHandler()), tc.authCtx)
			if rec.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
		})
	}
}

func TestRequireFeature(t *testing.T) {
	checker := stubFeatures{"premium-user:" + model.FeatureExportRecipes: true}
	gate := RequireFeature(checker, model.FeatureExportRecipes)(okHandler())

	if rec := serveWithAuth(gate, &model.AuthContext{UserID: "premium-user"}); rec.Code != http.StatusOK {
		t.Errorf("premium status = %d, want 200", rec.Code)
	}

	rec := serveWithAuth(gate, &model.AuthContext{UserID: "free-user"})
	if rec.Code != http.StatusForbidden {
		t.Errorf("free status = %d, want 403", rec.Code)
	}
	if got := rec.Body.String(); !strings.Contains(got, "PREMIUM_REQUIRED") {
		t.Errorf("unexpected body: %s", got)
	}

	if rec := serveWithAuth(gate, nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous status = %d, want 401", rec.Code)
	}
}
