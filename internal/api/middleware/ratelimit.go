package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/mrintern/server/internal/api/problem"
	"github.com/mrintern/server/internal/config"
)

type RateLimitTier string

const (
	TierPublic        RateLimitTier = "public"
	TierAuthenticated RateLimitTier = "authenticated"
	// TierLogin applies to login and registration: a small burst refilled
	// over 15 minutes.
	TierLogin RateLimitTier = "login"
)

type rateLimitKey string

var errRateLimited = errors.New("rate limit exceeded")

// RateLimit enforces per-client token buckets. Signed-in callers get the
// authenticated tier and are keyed by user id; everyone else is keyed by IP.
// It must run after Session. StrictTier adds a per-route limit on top.
func RateLimit(cfg config.RateLimitConfig) func(http.Handler) http.Handler {
	store := newLimiterStore(cfg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isHealthPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			tier, key := TierPublic, clientKey(r, cfg.TrustedProxyCIDRs)
			if userID := UserID(r); userID != "" {
				tier, key = TierAuthenticated, "user:"+userID
			}
			if !store.allow(tier, key) {
				tooManyRequests(w, r, tier)
				return
			}

			ctx := context.WithValue(r.Context(), limiterStoreKey, &tierCheck{store: store, key: clientKey(r, cfg.TrustedProxyCIDRs)})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// StrictTier applies an additional per-IP limit for tier on top of the
// global limit. Used for login and registration.
func StrictTier(tier RateLimitTier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			check, ok := r.Context().Value(limiterStoreKey).(*tierCheck)
			if ok && !check.store.allow(tier, check.key) {
				tooManyRequests(w, r, tier)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

const limiterStoreKey rateLimitKey = "limiterStore"

type tierCheck struct {
	store *limiterStore
	key   string
}

func tooManyRequests(w http.ResponseWriter, r *http.Request, tier RateLimitTier) {
	retryAfter := "60"
	if tier == TierLogin {
		retryAfter = "180"
	}
	LoggerFromContext(r.Context()).Warn().
		Str("tier", string(tier)).
		Str("path", r.URL.Path).
		Msg("rate limited")
	w.Header().Set("Retry-After", retryAfter)
	problem.Write(w, r, http.StatusTooManyRequests, problem.TypeRateLimited, "Too Many Requests", errRateLimited, "")
}

func isHealthPath(path string) bool {
	return path == "/healthz" || path == "/readyz" || path == "/metrics"
}

type limiterStore struct {
	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	perMinute map[RateLimitTier]int
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLimiterStore(cfg config.RateLimitConfig) *limiterStore {
	store := &limiterStore{
		limiters: make(map[string]*limiterEntry),
		perMinute: map[RateLimitTier]int{
			TierPublic:        cfg.PublicPerMinute,
			TierAuthenticated: cfg.AuthenticatedPerMinute,
			TierLogin:         cfg.LoginPer15Minutes,
		},
	}
	go store.cleanupLoop()
	return store
}

func (s *limiterStore) allow(tier RateLimitTier, key string) bool {
	limiter := s.limiter(tier, key)
	return limiter == nil || limiter.Allow()
}

// limiter returns nil when the tier is unlimited.
func (s *limiterStore) limiter(tier RateLimitTier, key string) *rate.Limiter {
	limit := s.perMinute[tier]
	if limit <= 0 {
		return nil
	}

	lookup := string(tier) + ":" + key

	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.limiters[lookup]; ok {
		entry.lastSeen = time.Now()
		return entry.limiter
	}

	var limiter *rate.Limiter
	if tier == TierLogin {
		limiter = rate.NewLimiter(rate.Every(15*time.Minute/time.Duration(limit)), limit)
	} else {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(limit)), limit)
	}
	s.limiters[lookup] = &limiterEntry{limiter: limiter, lastSeen: time.Now()}
	return limiter
}

func (s *limiterStore) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		s.cleanup(time.Now(), 15*time.Minute)
	}
}

func (s *limiterStore) cleanup(now time.Time, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, entry := range s.limiters {
		if now.Sub(entry.lastSeen) > ttl {
			delete(s.limiters, key)
		}
	}
}

// clientKey returns the caller's IP. X-Forwarded-For and X-Real-IP are only
// honoured when the connection comes from a trusted proxy.
func clientKey(r *http.Request, trustedProxyCIDRs []string) string {
	if r == nil {
		return ""
	}

	remoteIP := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		remoteIP = host
	}

	if isTrustedProxy(remoteIP, trustedProxyCIDRs) {
		if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
			first, _, _ := strings.Cut(forwarded, ",")
			return strings.TrimSpace(first)
		}
		if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
			return strings.TrimSpace(realIP)
		}
	}
	return remoteIP
}

func isTrustedProxy(ip string, trustedCIDRs []string) bool {
	parsedIP := net.ParseIP(ip)
	if parsedIP == nil {
		return false
	}
	for _, cidrStr := range trustedCIDRs {
		_, cidr, err := net.ParseCIDR(cidrStr)
		if err != nil {
			continue
		}
		if cidr.Contains(parsedIP) {
			return true
		}
	}
	return false
}
