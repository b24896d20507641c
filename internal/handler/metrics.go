package handler

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/recipevault/recipevault/internal/metrics"
)

// MetricsHandler exposes metrics in Prometheus exposition format.
type MetricsHandler struct {
	registry    http.Handler
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler serves registry when set and falls back to rendering
// an in-memory snapshot.
func NewMetricsHandler(registry http.Handler, snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{registry: registry, snapshotter: snapshotter}
}

// Metrics handles GET /metrics.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.registry != nil {
		h.registry.ServeHTTP(w, r)
		return
	}
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "recipevault_recipe_cache_total{result=\"hit\"} %d\n", snap.RecipeCacheHits)
	writeMetric(w, "recipevault_recipe_cache_total{result=\"miss\"} %d\n", snap.RecipeCacheMisses)
	writeMetric(w, "recipevault_recipe_changes_total{action=\"create\"} %d\n", snap.RecipesCreated)
	writeMetric(w, "recipevault_recipe_changes_total{action=\"update\"} %d\n", snap.RecipesUpdated)
	writeMetric(w, "recipevault_recipe_changes_total{action=\"delete\"} %d\n", snap.RecipesDeleted)

	writeLabelled(w, "recipevault_auth_attempts_total", "method_outcome", snap.AuthAttempts)
	writeLabelled(w, "recipevault_favorite_changes_total", "action", snap.FavoriteChanges)
	writeLabelled(w, "recipevault_reviews_total", "outcome", snap.ReviewsSubmitted)
	writeLabelled(w, "recipevault_premium_changes_total", "action", snap.PremiumChanges)
	writeLabelled(w, "recipevault_recipe_events_published_total", "status", snap.EventsPublished)
	writeLabelled(w, "recipevault_recipe_events_processed_total", "status", snap.EventsProcessed)
	writeLabelled(w, "recipevault_reminder_deliveries_total", "status", snap.ReminderDeliveries)
}

func writeLabelled(w http.ResponseWriter, name, label string, values map[string]uint64) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		writeMetric(w, "%s{%s=%q} %d\n", name, label, k, values[k])
	}
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
