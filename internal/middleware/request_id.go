// Package middleware holds the HTTP middleware chain shared by every route.
package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

const (
	RequestIDHeader = "X-Request-ID"
	TraceIDHeader   = "X-Trace-ID"
)

const maxClientIDLength = 128

type requestIDsKey struct{}

// requestIDs are the correlation ids attached to one request.
type requestIDs struct {
	request string
	trace   string
}

// RequestID assigns every request an id, echoed in X-Request-ID. A client
// supplied id is reused when it is short printable ASCII. X-Trace-ID is
// propagated under the same rule and dropped otherwise.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids := requestIDs{request: r.Header.Get(RequestIDHeader), trace: r.Header.Get(TraceIDHeader)}
		if !isSafeClientID(ids.request) {
			ids.request = uuid.NewString()
		}
		if !isSafeClientID(ids.trace) {
			ids.trace = ""
		}

		h := w.Header()
		h.Set(RequestIDHeader, ids.request)
		if ids.trace != "" {
			h.Set(TraceIDHeader, ids.trace)
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDsKey{}, ids)))
	})
}

// GetRequestID returns the id assigned by RequestID, or "".
func GetRequestID(ctx context.Context) string {
	ids, _ := ctx.Value(requestIDsKey{}).(requestIDs)
	return ids.request
}

// GetTraceID returns the propagated trace id, or "".
func GetTraceID(ctx context.Context) string {
	ids, _ := ctx.Value(requestIDsKey{}).(requestIDs)
	return ids.trace
}

func isSafeClientID(id string) bool {
	if id == "" || len(id) > maxClientIDLength {
		return false
	}
	for _, c := range []byte(id) {
		if c <= ' ' || c > '~' {
			return false
		}
	}
	return true
}
