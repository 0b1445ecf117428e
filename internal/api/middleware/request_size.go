package middleware

import (
	"net/http"
)

const (
	// DefaultMaxBodySize bounds JSON and form bodies.
	DefaultMaxBodySize int64 = 1 << 20

	// UploadMaxBodySize bounds multipart resume uploads: a 5 MiB file plus
	// form overhead.
	UploadMaxBodySize int64 = 6 << 20
)

// RequestSize wraps the body in http.MaxBytesReader. Reads past maxBytes
// fail and handlers answer 413.
func RequestSize(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
