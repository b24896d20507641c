package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/recipevault/recipevault/internal/handler/dto"
	"github.com/recipevault/recipevault/internal/model"
	"github.com/recipevault/recipevault/internal/service"
)

func TestRecipeHandler_List_Dispatch(t *testing.T) {
	testCases := []struct {
		name  string
		query string
		want  string
	}{
		{"plain", "", "list"},
		{"search by text", "?q=pasta", "search"},
		{"search by difficulty", "?difficulty=Easy&category=Dinner", "search"},
		{"tags", "?tags=vegan,%20quick", "tags"},
		{"category", "?category=Dinner", "category"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakeRecipeService{}
			h := NewRecipeHandler(svc, discardLogger())

			rec := httptest.NewRecorder()
			h.List(rec, newRequest(http.MethodGet, "/api/v1/recipes"+tc.query, "", nil, nil))

			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
			}
			if svc.called != tc.want {
				t.Errorf("dispatched to %q, want %q", svc.called, tc.want)
			}
		})
	}
}

func TestRecipeHandler_List_TagsAreTrimmed(t *testing.T) {
	svc := &fakeRecipeService{}
	h := NewRecipeHandler(svc, discardLogger())

	rec := httptest.NewRecorder()
	h.List(rec, newRequest(http.MethodGet, "/api/v1/recipes?tags=vegan,%20quick,,", "", nil, nil))

	if !slices.Equal(svc.lastTags, []string{"vegan", "quick"}) {
		t.Errorf("tags = %v", svc.lastTags)
	}
}

func TestRecipeHandler_List_Envelope(t *testing.T) {
	h := NewRecipeHandler(&fakeRecipeService{}, discardLogger())

	rec := httptest.NewRecorder()
	h.List(rec, newRequest(http.MethodGet, "/api/v1/recipes?limit=5", "", nil, nil))

	var resp dto.ListResponse[model.Recipe]
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Data) != 1 {
		t.Fatalf("expected 1 recipe, got %d", len(resp.Data))
	}
	if resp.Pagination == nil || !resp.Pagination.HasMore || resp.Pagination.NextCursor != "next" {
		t.Errorf("unexpected pagination: %+v", resp.Pagination)
	}
}

func TestRecipeHandler_List_AdvancedSearchRequiresPremium(t *testing.T) {
	svc := &fakeRecipeService{searchErr: service.ErrFeatureNotAvailable}
	h := NewRecipeHandler(svc, discardLogger())

	ac := &model.AuthContext{UserID: "user-1"}
	rec := httptest.NewRecorder()
	h.List(rec, newRequest(http.MethodGet, "/api/v1/recipes?q=soup&difficulty=Hard", "", ac, nil))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if code := decodeError(t, rec).Code; code != "PREMIUM_REQUIRED" {
		t.Errorf("code = %s, want PREMIUM_REQUIRED", code)
	}
}

func TestRecipeHandler_Get(t *testing.T) {
	svc := &fakeRecipeService{recipes: map[string]*model.Recipe{
		"r1": {ID: "r1", Title: "Soup"},
	}}
	h := NewRecipeHandler(svc, discardLogger())

	rec := httptest.NewRecorder()
	h.Get(rec, newRequest(http.MethodGet, "/api/v1/recipes/r1", "", nil, map[string]string{"id": "r1"}))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Get(rec, newRequest(http.MethodGet, "/api/v1/recipes/nope", "", nil, map[string]string{"id": "nope"}))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if code := decodeError(t, rec).Code; code != "RECIPE_NOT_FOUND" {
		t.Errorf("code = %s, want RECIPE_NOT_FOUND", code)
	}
}

func TestRecipeHandler_Create(t *testing.T) {
	h := NewRecipeHandler(&fakeRecipeService{}, discardLogger())
	body := `{"title":"Soup","description":"Warm","ingredients":["Water, 1 l"],"instructions":["Boil"]}`

	rec := httptest.NewRecorder()
	h.Create(rec, newRequest(http.MethodPost, "/api/v1/recipes", body, nil, nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: expected 401, got %d", rec.Code)
	}

	ac := &model.AuthContext{UserID: "user-1"}
	rec = httptest.NewRecorder()
	h.Create(rec, newRequest(http.MethodPost, "/api/v1/recipes", body, ac, nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var recipe model.Recipe
	if err := json.NewDecoder(rec.Body).Decode(&recipe); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if recipe.CreatorUserID != "user-1" || recipe.Title != "Soup" {
		t.Errorf("unexpected recipe: %+v", recipe)
	}
}

func TestRecipeHandler_Update_Forbidden(t *testing.T) {
	h := NewRecipeHandler(&fakeRecipeService{}, discardLogger())

	ac := &model.AuthContext{UserID: "intruder"}
	rec := httptest.NewRecorder()
	h.Update(rec, newRequest(http.MethodPatch, "/api/v1/recipes/r1", `{"title":"Mine now"}`, ac, map[string]string{"id": "r1"}))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if code := decodeError(t, rec).Code; code != "FORBIDDEN" {
		t.Errorf("code = %s, want FORBIDDEN", code)
	}
}

func TestRecipeHandler_Export(t *testing.T) {
	h := NewRecipeHandler(&fakeRecipeService{}, discardLogger())

	ac := &model.AuthContext{UserID: "user-1"}
	rec := httptest.NewRecorder()
	h.Export(rec, newRequest(http.MethodGet, "/api/v1/recipes/export", "", ac, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment;") {
		t.Errorf("Content-Disposition = %q", cd)
	}
}

func TestRecipeHandler_Stats_DaysBounds(t *testing.T) {
	h := NewRecipeHandler(&fakeRecipeService{}, discardLogger())
	params := map[string]string{"id": "r1"}

	for _, days := range []string{"0", "-3", "abc", "100000"} {
		rec := httptest.NewRecorder()
		h.Stats(rec, newRequest(http.MethodGet, "/api/v1/recipes/r1/stats?days="+days, "", nil, params))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("days=%s: expected 400, got %d", days, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	h.Stats(rec, newRequest(http.MethodGet, "/api/v1/recipes/r1/stats?days=7", "", nil, params))
	if rec.Code != http.StatusOK {
		t.Errorf("days=7: expected 200, got %d", rec.Code)
	}
}
