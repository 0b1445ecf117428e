package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/mrintern/server/internal/auth"
	"github.com/mrintern/server/internal/config"
)

func noContent() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestRateLimit_PublicTierBlocksAfterBurst(t *testing.T) {
	handler := RateLimit(config.RateLimitConfig{PublicPerMinute: 3})(noContent())

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/internships", nil)
		req.RemoteAddr = "192.0.2.10:1234"
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, req)
		assert.Equal(t, http.StatusNoContent, res.Code, "request %d", i+1)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/internships", nil)
	req.RemoteAddr = "192.0.2.10:1234"
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	assert.Equal(t, http.StatusTooManyRequests, res.Code)
	assert.Equal(t, "60", res.Header().Get("Retry-After"))

	req = httptest.NewRequest(http.MethodGet, "/api/internships", nil)
	req.RemoteAddr = "192.0.2.11:1234"
	res = httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	assert.Equal(t, http.StatusNoContent, res.Code, "other clients are unaffected")
}

func TestRateLimit_HealthPathsAreExempt(t *testing.T) {
	handler := RateLimit(config.RateLimitConfig{PublicPerMinute: 1})(noContent())
	for i := 0; i < 5; i++ {
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusNoContent, res.Code)
	}
}

func TestRateLimit_AuthenticatedTierKeyedByUser(t *testing.T) {
	manager := auth.NewJWTManager("secret", time.Hour, "test")
	handler := Session(manager, "sid")(RateLimit(config.RateLimitConfig{PublicPerMinute: 1, AuthenticatedPerMinute: 3})(noContent()))
	token := issue(t, manager, "student")

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/saved", nil)
		req.AddCookie(&http.Cookie{Name: "sid", Value: token})
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, req)
		assert.Equal(t, http.StatusNoContent, res.Code, "request %d", i+1)
	}
}

func TestStrictTier_LoginLimit(t *testing.T) {
	handler := RateLimit(config.RateLimitConfig{LoginPer15Minutes: 2})(StrictTier(TierLogin)(noContent()))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "198.51.100.7:5555"
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, req)
		codes = append(codes, res.Code)
		if res.Code == http.StatusTooManyRequests {
			assert.Equal(t, "180", res.Header().Get("Retry-After"))
		}
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)
}

func TestStrictTier_LogsRejectedTier(t *testing.T) {
	var logs bytes.Buffer
	logger := zerolog.New(&logs)
	handler := RateLimit(config.RateLimitConfig{LoginPer15Minutes: 1})(StrictTier(TierLogin)(noContent()))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/register", nil)
		req.RemoteAddr = "198.51.100.8:5555"
		req = req.WithContext(logger.WithContext(req.Context()))
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	assert.Contains(t, logs.String(), `"tier":"login"`)
	assert.Contains(t, logs.String(), `"path":"/api/auth/register"`)
}

func TestClientKey_TrustedProxy(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.5:443"
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.5")

	assert.Equal(t, "10.0.0.5", clientKey(req, nil), "untrusted proxy headers are ignored")
	assert.Equal(t, "203.0.113.9", clientKey(req, []string{"10.0.0.0/8"}))
}

func TestLimiterStore_Cleanup(t *testing.T) {
	store := &limiterStore{limiters: map[string]*limiterEntry{}, perMinute: map[RateLimitTier]int{TierPublic: 10}}
	store.limiter(TierPublic, "a")
	store.cleanup(time.Now().Add(time.Hour), 15*time.Minute)
	assert.Empty(t, store.limiters)
}
