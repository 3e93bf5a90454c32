package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// extensionRegex matches a bare file extension without the leading dot.
var extensionRegex = regexp.MustCompile(`^[a-zA-Z0-9]+$`)

// ValidateExtension validates a file-extension filter string.
// The filter is matched against file extensions without the leading dot,
// so "png" is valid while ".png" or "*.png" are not.
func ValidateExtension(ext string) error {
	if ext == "" {
		return nil // empty filter accepts every decodable file
	}

	if strings.HasPrefix(ext, ".") {
		return New(ErrCodeInvalidInput, "extension filter must not include the leading dot: %q", ext)
	}

	if !extensionRegex.MatchString(ext) {
		return New(ErrCodeInvalidInput, "invalid extension filter: %q", ext)
	}

	return nil
}

// ValidateOutputPath validates an output file path.
//
// The validation rules are intentionally conservative:
//   - No empty paths
//   - No control characters or null bytes
//   - Maximum length of 500 characters
func ValidateOutputPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "output path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "output path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "output path contains invalid characters")
		}
	}

	return nil
}

// ValidateDimension validates a pixel dimension such as the standard width
// or the border size. The upper bound guards against canvas allocations that
// would exhaust memory on a typo (e.g. --width 5000000).
func ValidateDimension(name string, value, min, max int) error {
	if value < min {
		return New(ErrCodeInvalidInput, "%s must be at least %d, got %d", name, min, value)
	}
	if value > max {
		return New(ErrCodeInvalidInput, "%s must be at most %d, got %d", name, max, value)
	}
	return nil
}
