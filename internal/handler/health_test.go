package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func pingOK(context.Context) error { return nil }

func TestHealthHandler_Healthz(t *testing.T) {
	h := NewHealthHandler(HealthCheck{Name: "postgres", Checker: HealthFunc(func(context.Context) error {
		t.Error("liveness must not ping dependencies")
		return nil
	})})

	rec := httptest.NewRecorder()
	h.Healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" || len(resp.Checks) != 0 {
		t.Errorf("unexpected body: %+v", resp)
	}
}

func TestHealthHandler_Readyz(t *testing.T) {
	testCases := []struct {
		name       string
		checks     []HealthCheck
		wantCode   int
		wantStatus string
		wantChecks map[string]string
	}{
		{
			name:       "no dependencies",
			wantCode:   http.StatusOK,
			wantStatus: "ok",
			wantChecks: map[string]string{},
		},
		{
			name: "all healthy",
			checks: []HealthCheck{
				{Name: "postgres", Checker: HealthFunc(pingOK)},
				{Name: "redis", Checker: HealthFunc(pingOK)},
				{Name: "reminder_store", Checker: HealthFunc(pingOK)},
			},
			wantCode:   http.StatusOK,
			wantStatus: "ok",
			wantChecks: map[string]string{"postgres": "ok", "redis": "ok", "reminder_store": "ok"},
		},
		{
			name: "database down",
			checks: []HealthCheck{
				{Name: "postgres", Checker: HealthFunc(func(context.Context) error { return errors.New("connection refused") })},
				{Name: "redis", Checker: HealthFunc(pingOK)},
			},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "unhealthy",
			wantChecks: map[string]string{"postgres": "error", "redis": "ok"},
		},
		{
			name: "unconfigured dependency does not fail",
			checks: []HealthCheck{
				{Name: "postgres", Checker: HealthFunc(pingOK)},
				{Name: "redis"},
			},
			wantCode:   http.StatusOK,
			wantStatus: "ok",
			wantChecks: map[string]string{"postgres": "ok", "redis": "not configured"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHealthHandler(tc.checks...)

			rec := httptest.NewRecorder()
			h.Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			if rec.Code != tc.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantCode)
			}
			var resp HealthResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Status != tc.wantStatus {
				t.Errorf("status field = %s, want %s", resp.Status, tc.wantStatus)
			}
			if len(resp.Checks) != len(tc.wantChecks) {
				t.Errorf("checks = %+v, want %v", resp.Checks, tc.wantChecks)
			}
			for name, want := range tc.wantChecks {
				if got := resp.Checks[name].Status; got != want {
					t.Errorf("check %s = %s, want %s", name, got, want)
				}
			}
		})
	}
}

func TestHealthHandler_ReadyzReportsError(t *testing.T) {
	h := NewHealthHandler(HealthCheck{Name: "redis", Checker: HealthFunc(func(context.Context) error {
		return errors.New("i/o timeout")
	})})

	rec := httptest.NewRecorder()
	h.Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Checks["redis"].Error != "i/o timeout" {
		t.Errorf("error = %q", resp.Checks["redis"].Error)
	}
}
