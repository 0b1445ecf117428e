package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSecurityHeaders(t *testing.T) {
	handler := SecurityHeaders(true)(noContent())

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/", nil))

	want := map[string]string{
		"X-Frame-Options":         "DENY",
		"X-Content-Type-Options":  "nosniff",
		"Referrer-Policy":         "strict-origin-when-cross-origin",
		"Content-Security-Policy": contentSecurityPolicy,
	}
	for header, value := range want {
		if got := res.Header().Get(header); got != value {
			t.Errorf("%s = %q, want %q", header, got, value)
		}
	}
	if got := res.Header().Get("Strict-Transport-Security"); got != "" {
		t.Errorf("HSTS set on plaintext request: %q", got)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.TLS = &tls.ConnectionState{}
	res = httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Header().Get("Strict-Transport-Security") == "" {
		t.Error("HSTS missing on TLS request")
	}
}
