// Package testauth mints session tokens for local development and tests.
// The defaults are well-known secrets; never use this package in the server.
package testauth

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/mrintern/server/internal/auth"
)

const (
	// DevSecret is used when JWT_SECRET is unset.
	DevSecret  = "dev_jwt_secret_change_me_in_production"
	DevIssuer  = "mrintern"
	CookieName = "mrintern_session"
)

// Config describes the identity to sign. Empty fields take dev defaults.
type Config struct {
	Secret string
	Issuer string
	UserID string
	Email  string
	Name   string
	Role   string
	TTL    time.Duration
}

// Authenticator attaches a pre-signed session token to requests.
type Authenticator struct {
	token     string
	expiresAt time.Time
}

func NewAuthenticator(cfg Config) (*Authenticator, error) {
	if cfg.Secret == "" {
		cfg.Secret = os.Getenv("JWT_SECRET")
	}
	if cfg.Secret == "" {
		cfg.Secret = DevSecret
	}
	if cfg.Issuer == "" {
		cfg.Issuer = DevIssuer
	}
	if cfg.UserID == "" {
		cfg.UserID = "00000000-0000-0000-0000-000000000001"
	}
	if cfg.Role == "" {
		cfg.Role = string(auth.RoleStudent)
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}

	token, expiresAt, err := auth.NewJWTManager(cfg.Secret, cfg.TTL, cfg.Issuer).Issue(auth.Identity{
		UserID: cfg.UserID,
		Email:  cfg.Email,
		Name:   cfg.Name,
		Role:   cfg.Role,
	})
	if err != nil {
		return nil, fmt.Errorf("sign dev token: %w", err)
	}
	return &Authenticator{token: token, expiresAt: expiresAt}, nil
}

func (a *Authenticator) Token() string { return a.token }

// AddAuth sets the Authorization header. The session middleware accepts a
// bearer token in place of the cookie.
func (a *Authenticator) AddAuth(req *http.Request) {
	if req != nil {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
}

// Cookie returns the token as the browser session cookie.
func (a *Authenticator) Cookie() *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    a.token,
		Path:     "/",
		Expires:  a.expiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// DevToken signs a token for userID with role using the dev defaults.
func DevToken(userID, role string) (string, error) {
	a, err := NewAuthenticator(Config{UserID: userID, Role: role})
	if err != nil {
		return "", err
	}
	return a.Token(), nil
}
