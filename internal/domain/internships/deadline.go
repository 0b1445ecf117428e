package internships

import (
	"strings"
	"time"

	dateparser "github.com/markusmobius/go-dateparser"
	"github.com/mrintern/server/internal/validation"
)

// ParseDeadline accepts RFC 3339, a plain date, or free text such as
// "November 15, 2026" or "in two weeks". Empty input yields nil.
func ParseDeadline(raw string, now time.Time) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		t = t.UTC()
		return &t, nil
	}
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return &t, nil
	}

	parsed, err := dateparser.Parse(&dateparser.Configuration{CurrentTime: now}, raw)
	if err != nil || parsed.Time.IsZero() {
		return nil, validation.FieldError{Field: "deadline", Message: "is not a recognizable date"}
	}
	t := parsed.Time.UTC()
	return &t, nil
}
