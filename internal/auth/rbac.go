package auth

import "strings"

// Role is stored on users and carried in the session token.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleStudent Role = "student"
)

// NormalizeRole maps anything that is not exactly admin (case-insensitive) to
// student, so an unknown role never grants access.
func NormalizeRole(role string) Role {
	if strings.EqualFold(strings.TrimSpace(role), string(RoleAdmin)) {
		return RoleAdmin
	}
	return RoleStudent
}

func IsAdmin(role string) bool { return NormalizeRole(role) == RoleAdmin }
