package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "recipevault"

// PrometheusRecorder implements Recorder on a private Prometheus registry.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	httpInFlight prometheus.Gauge
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	recipeCache    *prometheus.CounterVec
	recipeChanges  *prometheus.CounterVec
	authAttempts   *prometheus.CounterVec
	favorites      *prometheus.CounterVec
	reviews        *prometheus.CounterVec
	premium        *prometheus.CounterVec
	eventsOut      *prometheus.CounterVec
	eventsIn       *prometheus.CounterVec
	eventBatch     prometheus.Histogram
	eventBatchTime prometheus.Histogram
	eventQueue     prometheus.Gauge
	reminders      *prometheus.CounterVec
	reminderTime   prometheus.Histogram
	reminderQueue  prometheus.Gauge
}

// NewPrometheus creates a recorder with all collectors registered.
func NewPrometheus() *PrometheusRecorder {
	p := &PrometheusRecorder{
		registry: prometheus.NewRegistry(),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "http", Name: "inflight_requests",
			Help: "Current number of in-flight HTTP requests.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http", Name: "requests_total",
			Help: "Total number of HTTP requests handled.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "http", Name: "request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 10),
		}, []string{"method", "route"}),
		recipeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "recipes", Name: "cache_lookups_total",
			Help: "Recipe cache lookups by result.",
		}, []string{"result"}),
		recipeChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "recipes", Name: "changes_total",
			Help: "Recipe writes by action.",
		}, []string{"action"}),
		authAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "auth", Name: "attempts_total",
			Help: "Authentication attempts by method and outcome.",
		}, []string{"method", "outcome"}),
		favorites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "favorites", Name: "changes_total",
			Help: "Favorite additions and removals.",
		}, []string{"action"}),
		reviews: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "reviews", Name: "submitted_total",
			Help: "Review submissions by outcome.",
		}, []string{"outcome"}),
		premium: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "premium", Name: "changes_total",
			Help: "Premium subscription state changes.",
		}, []string{"action"}),
		eventsOut: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "events", Name: "published_total",
			Help: "Recipe events published to the stream.",
		}, []string{"status"}),
		eventsIn: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "events", Name: "processed_total",
			Help: "Recipe events processed by the consumer.",
		}, []string{"status"}),
		eventBatch: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "events", Name: "batch_size",
			Help:    "Consumer batch sizes.",
			Buckets: prometheus.LinearBuckets(10, 10, 10),
		}),
		eventBatchTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "events", Name: "batch_duration_seconds",
			Help:    "Consumer batch processing time.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
		eventQueue: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "events", Name: "pending",
			Help: "Pending entries in the consumer group.",
		}),
		reminders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "reminders", Name: "deliveries_total",
			Help: "Reminder delivery attempts by status.",
		}, []string{"status"}),
		reminderTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "reminders", Name: "delivery_duration_seconds",
			Help:    "Reminder delivery time.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 10),
		}),
		reminderQueue: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "reminders", Name: "due",
			Help: "Reminders due and not yet delivered.",
		}),
	}

	p.registry.MustRegister(
		p.httpInFlight, p.httpRequests, p.httpDuration,
		p.recipeCache, p.recipeChanges, p.authAttempts,
		p.favorites, p.reviews, p.premium,
		p.eventsOut, p.eventsIn, p.eventBatch, p.eventBatchTime, p.eventQueue,
		p.reminders, p.reminderTime, p.reminderQueue,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	return p
}

// Handler exposes the registry in the Prometheus text format.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (p *PrometheusRecorder) Registry() *prometheus.Registry {
	return p.registry
}

// InstrumentHandler records request counts and latency labelled by the
// matched chi route pattern, so ids never become label values.
func (p *PrometheusRecorder) InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		p.httpInFlight.Inc()
		defer p.httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		route := routePattern(r)
		method := strings.ToUpper(r.Method)

		p.httpRequests.WithLabelValues(method, route, strconv.Itoa(rec.status)).Inc()
		p.httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	})
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (p *PrometheusRecorder) IncRecipeCacheHit()  { p.recipeCache.WithLabelValues("hit").Inc() }
func (p *PrometheusRecorder) IncRecipeCacheMiss() { p.recipeCache.WithLabelValues("miss").Inc() }
func (p *PrometheusRecorder) IncRecipeCreated()   { p.recipeChanges.WithLabelValues("create").Inc() }
func (p *PrometheusRecorder) IncRecipeUpdated()   { p.recipeChanges.WithLabelValues("update").Inc() }
func (p *PrometheusRecorder) IncRecipeDeleted()   { p.recipeChanges.WithLabelValues("delete").Inc() }

func (p *PrometheusRecorder) IncAuthAttempt(method, outcome string) {
	p.authAttempts.WithLabelValues(method, outcome).Inc()
}

func (p *PrometheusRecorder) IncFavoriteChange(action string) {
	p.favorites.WithLabelValues(action).Inc()
}

func (p *PrometheusRecorder) IncReviewSubmitted(outcome string) {
	p.reviews.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) IncPremiumChange(action string) {
	p.premium.WithLabelValues(action).Inc()
}

func (p *PrometheusRecorder) IncRecipeEventPublished(status string) {
	p.eventsOut.WithLabelValues(status).Inc()
}

func (p *PrometheusRecorder) IncRecipeEventProcessed(status string) {
	p.eventsIn.WithLabelValues(status).Inc()
}

func (p *PrometheusRecorder) ObserveRecipeEventBatchSize(size int) {
	p.eventBatch.Observe(float64(size))
}

func (p *PrometheusRecorder) ObserveRecipeEventBatchDuration(duration time.Duration) {
	p.eventBatchTime.Observe(duration.Seconds())
}

func (p *PrometheusRecorder) SetRecipeEventQueueDepth(depth int64) {
	p.eventQueue.Set(float64(depth))
}

func (p *PrometheusRecorder) IncReminderDelivery(status string) {
	p.reminders.WithLabelValues(status).Inc()
}

func (p *PrometheusRecorder) ObserveReminderDeliveryDuration(duration time.Duration) {
	p.reminderTime.Observe(duration.Seconds())
}

func (p *PrometheusRecorder) SetReminderQueueDepth(depth int64) {
	p.reminderQueue.Set(float64(depth))
}
