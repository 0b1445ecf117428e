package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Requests served, by method, route and status class.",
		},
		[]string{"method", "route", "code"},
	)

	HTTPRequestDuration = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Time to first byte plus body write, by route.",
			Buckets:   prometheus.ExponentialBuckets(0.002, 2.5, 10),
		},
		[]string{"method", "route"},
	)

	HTTPInFlight = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight",
			Help:      "Requests currently being served.",
		},
	)

	// Resume uploads dominate this histogram.
	HTTPRequestBytes = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_bytes",
			Help:      "Declared request body size.",
			Buckets:   prometheus.ExponentialBuckets(256, 4, 8),
		},
		[]string{"route"},
	)
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	return s.ResponseWriter.Write(b)
}

func (s *statusRecorder) Unwrap() http.ResponseWriter { return s.ResponseWriter }

// HTTPMiddleware records request counts and latency per route.
func HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		HTTPInFlight.Inc()
		defer HTTPInFlight.Dec()

		rec := &statusRecorder{ResponseWriter: w}
		began := time.Now()
		next.ServeHTTP(rec, r)

		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		route := routeLabel(r.URL.Path)
		HTTPRequestsTotal.WithLabelValues(r.Method, route, statusClass(rec.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(began).Seconds())
		if r.ContentLength > 0 {
			HTTPRequestBytes.WithLabelValues(route).Observe(float64(r.ContentLength))
		}
	})
}

func statusClass(code int) string {
	return strconv.Itoa(code/100) + "xx"
}

// routeLabel replaces record ids (UUIDs and import ULIDs) with {id} and folds
// static assets into one series.
func routeLabel(path string) string {
	switch {
	case strings.HasPrefix(path, "/static/"):
		return "/static/*"
	case !strings.HasPrefix(path, "/"):
		return path
	}
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if isRecordID(p) {
			parts[i] = "{id}"
		}
	}
	return strings.Join(parts, "/")
}

func isRecordID(segment string) bool {
	if segment == "" {
		return false
	}
	if _, err := uuid.Parse(segment); err == nil {
		return true
	}
	if len(segment) == ulid.EncodedSize {
		_, err := ulid.ParseStrict(segment)
		return err == nil
	}
	return false
}
