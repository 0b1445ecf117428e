package middleware

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

type responseWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *responseWriter) WriteHeader(statusCode int) {
	w.status = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *responseWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(p)
	w.bytes += n
	return n, err
}

func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// RequestLogging logs one line per request with the request-scoped logger.
// 5xx responses log at error, 4xx at warn.
func RequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w}

		next.ServeHTTP(rw, r)

		if rw.status == 0 {
			rw.status = http.StatusOK
		}
		logger := LoggerFromContext(r.Context())
		var event *zerolog.Event
		switch {
		case rw.status >= 500:
			event = logger.Error()
		case rw.status >= 400:
			event = logger.Warn()
		default:
			event = logger.Info()
		}
		event.
			Int("status", rw.status).
			Int("bytes", rw.bytes).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
