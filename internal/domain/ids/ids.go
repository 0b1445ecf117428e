package ids

import (
	"crypto/rand"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/oklog/ulid/v2"
)

var (
	ulidRegex = regexp.MustCompile(`(?i)^[0-9A-HJKMNP-TV-Z]{26}$`)

	ErrInvalidULID = errors.New("invalid ULID")
	ErrInvalidID   = errors.New("invalid id")
)

// NewULID generates a new ULID string. Import batches are keyed by ULID so
// they sort by start time.
func NewULID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// IsULID returns true when value is a valid ULID (case-insensitive Crockford Base32).
func IsULID(value string) bool {
	return ulidRegex.MatchString(strings.TrimSpace(value))
}

// ValidateULID validates a ULID string.
func ValidateULID(value string) error {
	if !IsULID(value) {
		return ErrInvalidULID
	}
	return nil
}

// ValidateID checks that value is a UUID as used for every stored record.
func ValidateID(value string) error {
	if _, err := uuid.Parse(strings.TrimSpace(value)); err != nil {
		return ErrInvalidID
	}
	return nil
}

// IsID reports whether value is a record id.
func IsID(value string) bool {
	return ValidateID(value) == nil
}

// UUIDToString converts a pgtype.UUID to a properly formatted UUID string.
// Returns an empty string if the UUID is not valid.
func UUIDToString(u pgtype.UUID) string {
	if !u.Valid {
		return ""
	}
	parsedUUID, err := uuid.FromBytes(u.Bytes[:])
	if err != nil {
		return ""
	}
	return parsedUUID.String()
}
