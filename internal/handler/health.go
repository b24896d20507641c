package handler

import (
	"context"
	"net/http"
	"sync"
	"time"
)

const readinessTimeout = 3 * time.Second

// HealthChecker is a dependency readiness depends on.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthFunc adapts a ping function such as (*sql.DB).PingContext.
type HealthFunc func(ctx context.Context) error

// Ping calls f.
func (f HealthFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthCheck names one readiness dependency.
type HealthCheck struct {
	Name    string
	Checker HealthChecker
}

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	checks []HealthCheck
}

// NewHealthHandler creates a HealthHandler. Checks with a nil Checker are
// reported as not configured and do not fail readiness.
func NewHealthHandler(checks ...HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// HealthResponse is the body of both probes.
type HealthResponse struct {
	Status string                 `json:"status"`
	Checks map[string]CheckResult `json:"checks,omitempty"`
}

// CheckResult is the outcome of one dependency ping.
type CheckResult struct {
	Status    string `json:"status"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

// Healthz is the liveness probe. It never touches dependencies.
//
// GET /healthz
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Readyz pings every dependency in parallel and returns 503 if any fails.
//
// GET /readyz
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	results := make(map[string]CheckResult, len(h.checks))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, check := range h.checks {
		if check.Checker == nil {
			results[check.Name] = CheckResult{Status: "not configured"}
			continue
		}

		wg.Add(1)
		go func(check HealthCheck) {
			defer wg.Done()
			start := time.Now()
			err := check.Checker.Ping(ctx)

			res := CheckResult{Status: "ok", LatencyMS: time.Since(start).Milliseconds()}
			if err != nil {
				res.Status = "error"
				res.Error = err.Error()
			}

			mu.Lock()
			results[check.Name] = res
			mu.Unlock()
		}(check)
	}
	wg.Wait()

	resp := HealthResponse{Status: "ok", Checks: results}
	code := http.StatusOK
	for _, res := range results {
		if res.Status == "error" {
			resp.Status = "unhealthy"
			code = http.StatusServiceUnavailable
			break
		}
	}

	writeJSON(w, code, resp)
}
