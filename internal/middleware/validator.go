package middleware

import (
	"fmt"
	"strconv"
	"strings"
)

// Request validation helpers for the prediction API.

const (
	// DefaultResultLimit matches the store default for recent-N reads.
	DefaultResultLimit = 100
	// MaxResultLimit caps recent-N reads.
	MaxResultLimit = 500
)

// ParseResultID parses a path id into a positive integer.
func ParseResultID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid result id: %q", raw)
	}
	if id <= 0 {
		return 0, fmt.Errorf("result id must be positive")
	}
	return id, nil
}

// ParseResultLimit parses the optional limit query parameter. An empty
// value falls back to the default; explicit 0 is allowed and yields an
// empty result set downstream.
func ParseResultLimit(raw string) (int, error) {
	if raw == "" {
		return DefaultResultLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid limit: %q", raw)
	}
	if limit < 0 {
		return 0, fmt.Errorf("limit must not be negative")
	}
	if limit > MaxResultLimit {
		return MaxResultLimit, nil
	}
	return limit, nil
}

// ValidateUploadContentType accepts the image types the decoder
// understands plus the generic fallback browsers sometimes send.
func ValidateUploadContentType(contentType string) error {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	switch ct {
	case "", "application/octet-stream", "image/jpeg", "image/png", "image/gif":
		return nil
	}
	return fmt.Errorf("unsupported content type: %s", contentType)
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Remove control characters
	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}

	return strings.TrimSpace(result.String())
}
