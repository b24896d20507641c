package middleware

import (
	"net/http"
	"time"

	"github.com/rs/cors"
)

// CORSConfig lists the browser origins allowed to call the API. Entries may
// use one wildcard, e.g. "https://*.recipevault.app". An empty list denies
// every cross-origin request.
type CORSConfig struct {
	AllowedOrigins []string
	// MaxAge bounds preflight caching; zero means one day.
	MaxAge time.Duration
}

var (
	corsMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete}

	corsRequestHeaders = []string{"Accept", "Accept-Language", "Authorization", "Content-Type", RequestIDHeader, TraceIDHeader}

	// Clients read these for correlation and backoff.
	corsExposedHeaders = []string{
		RequestIDHeader, TraceIDHeader,
		"Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset",
	}
)

// CORS answers preflight requests and decorates cross-origin responses.
// Sessions travel in the Authorization header, so credentials mode stays off.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = 24 * time.Hour
	}

	opts := cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: corsMethods,
		AllowedHeaders: corsRequestHeaders,
		ExposedHeaders: corsExposedHeaders,
		MaxAge:         int(maxAge.Seconds()),
	}
	if len(cfg.AllowedOrigins) == 0 {
		// rs/cors reads an empty list as "*".
		opts.AllowOriginFunc = func(string) bool { return false }
	}
	return cors.New(opts).Handler
}
