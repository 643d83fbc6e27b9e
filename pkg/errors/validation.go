package errors

import (
	"strings"
	"unicode"
)

// maxNodeIDLength bounds node identifiers. IDs end up in SVG element ids,
// URL paths and cache keys.
const maxNodeIDLength = 256

// ValidateNodeID validates a record identifier.
//
// The validation rules are intentionally conservative:
//   - No empty IDs
//   - No control characters or null bytes
//   - No whitespace (IDs are used as SVG element ids)
//   - Maximum length of 256 characters
func ValidateNodeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "node id cannot be empty")
	}

	if len(id) > maxNodeIDLength {
		return New(ErrCodeInvalidInput, "node id too long (max %d characters)", maxNodeIDLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "node id contains invalid control characters")
		}
		if unicode.IsSpace(r) {
			return New(ErrCodeInvalidInput, "node id %q contains whitespace", id)
		}
	}

	return nil
}

// ValidateFormat validates an output format name against the allowed set.
func ValidateFormat(format string, allowed []string) error {
	for _, a := range allowed {
		if format == a {
			return nil
		}
	}
	return New(ErrCodeInvalidFormat, "invalid format: %q (must be one of: %s)", format, strings.Join(allowed, ", "))
}
