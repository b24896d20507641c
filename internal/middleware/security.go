package middleware

import (
	"net/http"
)

// SecurityConfig controls the response hardening headers.
type SecurityConfig struct {
	// IsDevelopment omits HSTS so plain-HTTP local setups keep working.
	IsDevelopment bool
	// MaxRequestBodySize caps JSON request bodies, in bytes.
	MaxRequestBodySize int64
}

// apiHeaders are set on every response. The API never serves HTML, so the
// content policy denies everything.
var apiHeaders = [][2]string{
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "DENY"},
	{"X-XSS-Protection", "0"},
	{"Referrer-Policy", "strict-origin-when-cross-origin"},
	{"Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'"},
	{"Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=(), usb=()"},
	{"Cross-Origin-Opener-Policy", "same-origin"},
	{"Cross-Origin-Resource-Policy", "same-origin"},
}

const hstsValue = "max-age=31536000; includeSubDomains; preload"

// Security sets the hardening headers. Responses to requests carrying a
// session token are marked no-store since they may hold private favorites
// and premium data. Other responses default to no-cache unless a handler
// already chose a policy.
func Security(cfg SecurityConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			for _, kv := range apiHeaders {
				h.Set(kv[0], kv[1])
			}
			if !cfg.IsDevelopment {
				h.Set("Strict-Transport-Security", hstsValue)
			}

			switch {
			case r.Header.Get("Authorization") != "":
				h.Set("Cache-Control", "no-store")
			case h.Get("Cache-Control") == "":
				h.Set("Cache-Control", "no-cache")
			}
			h.Del("Server")

			next.ServeHTTP(w, r)
		})
	}
}

// MaxBodySize rejects bodies whose declared length exceeds maxBytes with 413
// and caps the rest with http.MaxBytesReader, which handlers surface as a
// decode error.
func MaxBodySize(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body == nil || r.Body == http.NoBody {
				next.ServeHTTP(w, r)
				return
			}
			if r.ContentLength > maxBytes {
				writeError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Request body too large")
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
