package errors

import (
	"math"
	"regexp"
	"strings"
	"unicode"
)

// formatNameRegex matches format identifiers such as "dot" or "drawio".
var formatNameRegex = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)

// ValidateFormatName validates a format identifier supplied by a user.
// It does not check that the format is registered; callers look it up
// afterwards and report unknown names with ErrCodeInvalidFormat.
func ValidateFormatName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidFormat, "format name cannot be empty")
	}
	if len(name) > 32 {
		return New(ErrCodeInvalidFormat, "format name too long (max 32 characters)")
	}
	if !formatNameRegex.MatchString(name) {
		return New(ErrCodeInvalidFormat, "invalid format name: %q", name)
	}
	return nil
}

// ValidatePath validates a relative output path for safety.
// It prevents path traversal and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	for _, part := range strings.Split(strings.ReplaceAll(path, "\\", "/"), "/") {
		if part == ".." {
			return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
		}
	}

	return nil
}

// ValidatePositive checks that a named numeric option is finite and > 0.
func ValidatePositive(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return New(ErrCodeInvalidOptions, "%s must be a positive number, got %v", field, v)
	}
	return nil
}

// ValidateNonNegative checks that a named numeric option is finite and >= 0.
func ValidateNonNegative(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return New(ErrCodeInvalidOptions, "%s must not be negative, got %v", field, v)
	}
	return nil
}

// ValidateOneOf checks that value is one of the allowed choices.
func ValidateOneOf(field, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return New(ErrCodeInvalidOptions, "%s must be one of %s, got %q", field, strings.Join(allowed, ", "), value)
}
