package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestPrometheusRecorder_ExposesCounters(t *testing.T) {
	p := NewPrometheus()
	p.IncRecipeCacheHit()
	p.IncAuthAttempt("password", "success")
	p.IncReminderDelivery("delivered")

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	for _, want := range []string{
		`recipevault_recipes_cache_lookups_total{result="hit"} 1`,
		`recipevault_auth_attempts_total{method="password",outcome="success"} 1`,
		`recipevault_reminders_deliveries_total{status="delivered"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestPrometheusRecorder_InstrumentHandlerUsesRoutePattern(t *testing.T) {
	p := NewPrometheus()

	r := chi.NewRouter()
	r.Use(p.InstrumentHandler)
	r.Get("/recipes/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/recipes/abc", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/recipes/def", nil))

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()

	want := `recipevault_http_requests_total{method="GET",route="/recipes/{id}",status="404"} 2`
	if !strings.Contains(body, want) {
		t.Errorf("expected %q in output", want)
	}
	if strings.Contains(body, "/recipes/abc") {
		t.Error("raw path leaked into labels")
	}
}

func TestInMemoryRecorder_Snapshot(t *testing.T) {
	m := NewInMemory()
	m.IncRecipeCacheMiss()
	m.IncFavoriteChange("add")
	m.IncFavoriteChange("add")
	m.IncAuthAttempt("google", "failure")

	s := m.Snapshot()
	if s.RecipeCacheMisses != 1 {
		t.Errorf("RecipeCacheMisses = %d", s.RecipeCacheMisses)
	}
	if s.FavoriteChanges["add"] != 2 {
		t.Errorf("FavoriteChanges[add] = %d", s.FavoriteChanges["add"])
	}
	if s.AuthAttempts["google:failure"] != 1 {
		t.Errorf("AuthAttempts = %v", s.AuthAttempts)
	}
}
