package domain

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"
)

const maxTitleLength = 120

// FieldErrors maps an input field name ("title" | "url") to a
// user-facing message, so callers can render errors inline per field.
type FieldErrors map[string]string

// Error implements the error interface; it reports the first field
// message in a stable field order.
func (fe FieldErrors) Error() string {
	if msg, ok := fe["title"]; ok {
		return "title: " + msg
	}
	if msg, ok := fe["url"]; ok {
		return "url: " + msg
	}
	return "invalid input"
}

// Input is a validated, normalized title+URL pair ready to persist.
type Input struct {
	Title string
	URL   string
}

// hasSchemeRe matches a leading URI scheme (RFC 3986 form).
var hasSchemeRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z\d+\-.]*:`)

var (
	errURLRequired = errors.New("URL is required")
	errURLScheme   = errors.New("Only http and https URLs are allowed")
	errURLInvalid  = errors.New("Enter a valid URL")
)

// Validate checks and canonicalizes a title+URL pair.
// On failure it returns a FieldErrors with one message per offending
// field; on success the returned Input is safe to persist as-is.
// Validate is idempotent: feeding a valid result back in returns the
// same pair.
func Validate(title, rawURL string) (Input, FieldErrors) {
	fieldErrs := FieldErrors{}

	title = strings.TrimSpace(title)
	switch {
	case title == "":
		fieldErrs["title"] = "Title is required"
	case utf8.RuneCountInString(title) > maxTitleLength:
		fieldErrs["title"] = "Title is too long"
	}

	normalized, err := NormalizeURL(rawURL)
	if err != nil {
		fieldErrs["url"] = err.Error()
	}

	if len(fieldErrs) > 0 {
		return Input{}, fieldErrs
	}
	return Input{Title: title, URL: normalized}, nil
}

// NormalizeURL canonicalizes a raw URL string.
// A schemeless value is assumed to be https. Schemes other than http
// and https are rejected outright (no javascript:, data:, etc.).
// Bare domains gain a trailing slash so the canonical form round-trips.
func NormalizeURL(rawValue string) (string, error) {
	trimmed := strings.TrimSpace(rawValue)
	if trimmed == "" {
		return "", errURLRequired
	}

	if hasSchemeRe.MatchString(trimmed) {
		scheme := strings.ToLower(trimmed[:strings.Index(trimmed, ":")])
		if scheme != "http" && scheme != "https" {
			return "", errURLScheme
		}
	} else {
		trimmed = "https://" + trimmed
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", errURLInvalid
	}
	if !parsed.IsAbs() || parsed.Host == "" {
		return "", errURLInvalid
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", errURLScheme
	}
	if parsed.Path == "" {
		parsed.Path = "/"
	}

	return parsed.String(), nil
}
