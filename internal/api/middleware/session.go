package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mrintern/server/internal/api/problem"
	"github.com/mrintern/server/internal/auth"
)

// DefaultSessionCookie is used when no cookie name is configured.
const DefaultSessionCookie = "mrintern_session"

type contextKeyAuth string

const sessionClaimsKey contextKeyAuth = "sessionClaims"

// Session attaches the caller's claims to the request when a valid token is
// present in the session cookie or an Authorization Bearer header. Requests
// without a valid token pass through anonymously.
func Session(manager *auth.JWTManager, cookieName string) func(http.Handler) http.Handler {
	if cookieName == "" {
		cookieName = DefaultSessionCookie
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if manager == nil {
				next.ServeHTTP(w, r)
				return
			}
			token := sessionToken(r, cookieName)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := manager.Validate(token)
			if err != nil {
				LoggerFromContext(r.Context()).Debug().Err(err).Msg("ignoring invalid session token")
				next.ServeHTTP(w, r)
				return
			}
			logger := LoggerFromContext(r.Context()).With().Str("user_id", claims.Subject).Logger()
			ctx := logger.WithContext(ContextWithClaims(r.Context(), claims))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionToken(r *http.Request, cookieName string) string {
	if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
		if token, err := auth.TokenFromHeader(header); err == nil {
			return token
		}
	}
	if cookie, err := r.Cookie(cookieName); err == nil {
		return strings.TrimSpace(cookie.Value)
	}
	return ""
}

// RequireUser rejects anonymous requests with 401.
func RequireUser(env string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if Claims(r) == nil {
				problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", problem.ErrUnauthorized, env)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin rejects anonymous requests with 401 and non-admins with 403.
func RequireAdmin(env string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := Claims(r)
			if claims == nil {
				problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", problem.ErrUnauthorized, env)
				return
			}
			if !auth.IsAdmin(claims.Role) {
				problem.Write(w, r, http.StatusForbidden, problem.TypeForbidden, "Insufficient permissions", problem.ErrForbidden, env)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func ContextWithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, sessionClaimsKey, claims)
}

// Claims returns the session claims, or nil for anonymous requests.
func Claims(r *http.Request) *auth.Claims {
	if r == nil {
		return nil
	}
	if claims, ok := r.Context().Value(sessionClaimsKey).(*auth.Claims); ok {
		return claims
	}
	return nil
}

// UserID returns the caller's user id, or "" for anonymous requests.
func UserID(r *http.Request) string {
	if claims := Claims(r); claims != nil {
		return claims.Subject
	}
	return ""
}
