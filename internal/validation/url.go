package validation

import (
	"net/url"
	"strings"
)

// ValidateURL checks that a user-supplied link is an absolute http(s) URL.
// Empty values pass; callers decide whether the field is required.
func ValidateURL(urlString, fieldName string) error {
	if urlString == "" {
		return nil
	}

	parsedURL, err := url.Parse(urlString)
	if err != nil {
		return FieldError{Field: fieldName, Message: "must be a valid URL"}
	}
	if parsedURL.Scheme == "" {
		return FieldError{Field: fieldName, Message: "must include a scheme (http:// or https://)"}
	}

	// javascript:, data: and friends end up in href attributes of pages and emails
	scheme := strings.ToLower(parsedURL.Scheme)
	if scheme != "http" && scheme != "https" {
		return FieldError{Field: fieldName, Message: "scheme must be http or https"}
	}
	if parsedURL.Host == "" {
		return FieldError{Field: fieldName, Message: "must include a host"}
	}
	return nil
}

// NormalizeURL trims the value and prefixes https:// when a bare host was given,
// which is how people usually type company websites.
func NormalizeURL(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	if !strings.Contains(trimmed, "://") {
		return "https://" + trimmed
	}
	return trimmed
}
