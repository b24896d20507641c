package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/recipevault/recipevault/internal/metrics"
)

func TestMetricsHandler_Snapshot(t *testing.T) {
	rec := metrics.NewInMemory()
	rec.IncRecipeCacheHit()
	rec.IncRecipeCreated()
	rec.IncFavoriteChange("remove")
	rec.IncFavoriteChange("add")

	h := NewMetricsHandler(nil, rec)
	w := httptest.NewRecorder()
	h.Metrics(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := w.Body.String()
	for _, want := range []string{
		`recipevault_recipe_cache_total{result="hit"} 1`,
		`recipevault_recipe_changes_total{action="create"} 1`,
		`recipevault_favorite_changes_total{action="add"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("missing %q in:\n%s", want, body)
		}
	}
	if strings.Index(body, `action="add"`) > strings.Index(body, `action="remove"`) {
		t.Error("labelled series should be sorted")
	}
}

func TestMetricsHandler_PrefersRegistry(t *testing.T) {
	registry := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("from registry"))
	})

	h := NewMetricsHandler(registry, metrics.NewInMemory())
	w := httptest.NewRecorder()
	h.Metrics(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Body.String() != "from registry" {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestMetricsHandler_Unavailable(t *testing.T) {
	h := NewMetricsHandler(nil, nil)
	w := httptest.NewRecorder()
	h.Metrics(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", w.Code)
	}
}
