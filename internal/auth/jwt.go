package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken also matches ErrInvalidToken.
	ErrExpiredToken = fmt.Errorf("%w: expired", ErrInvalidToken)
)

// Identity is the part of a user that travels in the session token.
type Identity struct {
	UserID string
	Email  string
	Name   string
	Role   string
}

// Claims is the session token payload. Subject is the user id.
type Claims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

func (c *Claims) Identity() Identity {
	return Identity{UserID: c.Subject, Email: c.Email, Name: c.Name, Role: c.Role}
}

// JWTManager signs and verifies HS256 session tokens for one issuer.
type JWTManager struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

func NewJWTManager(secret string, ttl time.Duration, issuer string) *JWTManager {
	return &JWTManager{secret: []byte(secret), ttl: ttl, issuer: issuer, now: time.Now}
}

// Issue signs a token for id and reports when it expires.
func (m *JWTManager) Issue(id Identity) (string, time.Time, error) {
	if id.UserID == "" || id.Role == "" {
		return "", time.Time{}, ErrInvalidToken
	}
	issued := m.now()
	expires := issued.Add(m.ttl)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		Email: id.Email,
		Name:  id.Name,
		Role:  string(NormalizeRole(id.Role)),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}
	return signed, expires, nil
}

// Validate verifies signature, issuer and expiry.
func (m *JWTManager) Validate(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrMissingToken
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpiredToken
	case err != nil, !parsed.Valid, claims.Subject == "":
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// TokenFromHeader extracts the token from "Bearer <token>".
func TokenFromHeader(header string) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "bearer") || token == "" || strings.ContainsAny(token, " \t") {
		return "", ErrMissingToken
	}
	return token, nil
}
