package middleware

import (
	"net/http"

	"github.com/gorilla/csrf"

	"github.com/mrintern/server/internal/api/problem"
)

// CSRFFieldName is the hidden form field carrying the token.
const CSRFFieldName = "csrf_token"

// CSRFProtection guards the HTML form routes with gorilla/csrf's
// double-submit cookie. JSON API routes authenticate with the session cookie
// under SameSite=Lax and are not wrapped. When secure is false requests are
// treated as plaintext HTTP so local development skips the Referer check.
func CSRFProtection(authKey []byte, secure bool) func(http.Handler) http.Handler {
	protect := csrf.Protect(authKey,
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.HttpOnly(true),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.FieldName(CSRFFieldName),
		csrf.CookieName("mrintern_csrf"),
		csrf.ErrorHandler(http.HandlerFunc(csrfErrorHandler)),
	)
	return func(next http.Handler) http.Handler {
		protected := protect(next)
		if secure {
			return protected
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			protected.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
		})
	}
}

func csrfErrorHandler(w http.ResponseWriter, r *http.Request) {
	problem.Write(w, r, http.StatusForbidden, problem.TypeCSRF, "CSRF token validation failed", csrf.FailureReason(r), "")
}

// CSRFToken returns the token to embed in a form.
func CSRFToken(r *http.Request) string {
	return csrf.Token(r)
}
