package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/mrintern/server/internal/api/middleware"
	"github.com/mrintern/server/internal/api/problem"
	"github.com/mrintern/server/internal/audit"
	"github.com/mrintern/server/internal/auth"
	"github.com/mrintern/server/internal/domain/users"
)

// UserService registers and authenticates accounts.
type UserService interface {
	Register(ctx context.Context, input users.RegisterInput) (*users.User, error)
	Authenticate(ctx context.Context, email, password string) (*users.User, error)
}

// AuthHandler issues and clears session cookies.
type AuthHandler struct {
	users      UserService
	jwt        *auth.JWTManager
	audit      *audit.Logger
	cookieName string
	secure     bool
	env        string
}

func NewAuthHandler(service UserService, jwt *auth.JWTManager, auditLogger *audit.Logger, cookieName string, secure bool, env string) *AuthHandler {
	if cookieName == "" {
		cookieName = middleware.DefaultSessionCookie
	}
	return &AuthHandler{
		users:      service,
		jwt:        jwt,
		audit:      auditLogger,
		cookieName: cookieName,
		secure:     secure,
		env:        env,
	}
}

type sessionUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type sessionResponse struct {
	Success   bool         `json:"success"`
	User      *sessionUser `json:"user"`
	Token     string       `json:"token,omitempty"`
	ExpiresAt *time.Time   `json:"expiresAt,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input users.RegisterInput
	if err := decodeJSON(r, &input); err != nil {
		writeDecodeError(w, r, err, h.env)
		return
	}

	user, err := h.users.Register(r.Context(), input)
	if err != nil {
		writeError(w, r, err, h.env)
		return
	}
	h.audit.FromRequest(r, user.ID, "user.register", "user", user.ID, audit.StatusSuccess, nil)
	h.startSession(w, r, user, http.StatusCreated)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input loginRequest
	if err := decodeJSON(r, &input); err != nil {
		writeDecodeError(w, r, err, h.env)
		return
	}
	if input.Email == "" || input.Password == "" {
		writeRequired(w, r, "email", "Email and password are required", h.env)
		return
	}

	user, err := h.users.Authenticate(r.Context(), input.Email, input.Password)
	if err != nil {
		h.audit.FromRequest(r, input.Email, "user.login", "user", "", audit.StatusFailure, nil)
		writeError(w, r, err, h.env)
		return
	}
	h.audit.FromRequest(r, user.ID, "user.login", "user", user.ID, audit.StatusSuccess, nil)
	h.startSession(w, r, user, http.StatusOK)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearSessionCookie(w)
	if userID := middleware.UserID(r); userID != "" {
		h.audit.FromRequest(r, userID, "user.logout", "user", userID, audit.StatusSuccess, nil)
	}
	writeJSON(w, http.StatusOK, success{Success: true})
}

// Session returns the signed-in user, or a null user for anonymous callers.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	claims := middleware.Claims(r)
	if claims == nil {
		writeJSON(w, http.StatusOK, sessionResponse{Success: true})
		return
	}
	resp := sessionResponse{
		Success: true,
		User: &sessionUser{
			ID:    claims.Subject,
			Name:  claims.Name,
			Email: claims.Email,
			Role:  claims.Role,
		},
	}
	if claims.ExpiresAt != nil {
		exp := claims.ExpiresAt.Time
		resp.ExpiresAt = &exp
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, user *users.User, status int) {
	token, expiresAt, err := h.setSessionCookie(w, user)
	if err != nil {
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeInternal, "Internal server error", err, h.env)
		return
	}

	writeJSON(w, status, sessionResponse{
		Success: true,
		User: &sessionUser{
			ID:    user.ID,
			Name:  user.Name,
			Email: user.Email,
			Role:  user.Role,
		},
		Token:     token,
		ExpiresAt: &expiresAt,
	})
}

// setSessionCookie signs a token for user and stores it in the session cookie.
func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, user *users.User) (string, time.Time, error) {
	token, expiresAt, err := h.jwt.Issue(auth.Identity{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
		Role:   user.Role,
	})
	if err != nil {
		return "", time.Time{}, err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(time.Until(expiresAt).Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return token, expiresAt, nil
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
