package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRouteLabel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/api/internships", "/api/internships"},
		{"/internships/6f1c1f8e-4f43-4c3a-9a53-6f0d2b7f0e11", "/internships/{id}"},
		{"/api/internships/6F1C1F8E-4F43-4C3A-9A53-6F0D2B7F0E11/reviews", "/api/internships/{id}/reviews"},
		{"/api/imports/01HZX3V8Q9K2M4N6P8R0S2T4V6", "/api/imports/{id}"},
		{"/static/app.css", "/static/*"},
		{"", ""},
		{"api/internships", "api/internships"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, routeLabel(tt.in))
		})
	}
}

func TestHTTPMiddleware_CountsByStatusClass(t *testing.T) {
	h := HTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/missing-thing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))

	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/missing-thing", "4xx"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/missing-thing", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/ok-thing", nil))

	assert.Equal(t, before+1, testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/missing-thing", "4xx")))
	assert.GreaterOrEqual(t, testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/ok-thing", "2xx")), 1.0)
	assert.Equal(t, 0.0, testutil.ToFloat64(HTTPInFlight))
}
