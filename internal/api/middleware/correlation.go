package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

// RequestIDKey is the context key for the request correlation ID.
const RequestIDKey contextKey = "request_id"

const maxRequestIDLength = 128

// CorrelationID tags each request with an id, echoed in X-Request-ID, and
// puts a request-scoped logger carrying it into the context.
func CorrelationID(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := strings.TrimSpace(r.Header.Get("X-Request-ID"))
			if requestID == "" || len(requestID) > maxRequestIDLength {
				requestID = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", requestID)

			reqLogger := logger.With().
				Str("request_id", requestID).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Logger()

			ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
			ctx = reqLogger.WithContext(ctx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// LoggerFromContext returns the request logger, or a no-op logger outside a
// request.
func LoggerFromContext(ctx context.Context) *zerolog.Logger {
	logger := zerolog.Ctx(ctx)
	if logger.GetLevel() == zerolog.Disabled {
		noop := zerolog.Nop()
		return &noop
	}
	return logger
}
