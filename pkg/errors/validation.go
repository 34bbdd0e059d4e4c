package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateSpeciesName validates a species label from a data file or a
// Newick string. Labels end up in Newick output, so characters that carry
// Newick structure are rejected.
func ValidateSpeciesName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "species name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidInput, "species name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidInput, "species name %q contains whitespace or control characters", name)
		}
	}

	if i := strings.IndexAny(name, "(),:;[]{}|"); i >= 0 {
		return New(ErrCodeInvalidInput, "species name %q contains reserved character %q", name, name[i])
	}

	return nil
}

// ValidatePath validates a file path received over the analysis API.
// It prevents path traversal attacks and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
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

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}

// analysisIDRegex matches the canonical textual form of a UUID.
var analysisIDRegex = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// ValidateAnalysisID validates an analysis ID taken from a request path.
func ValidateAnalysisID(id string) error {
	if !analysisIDRegex.MatchString(id) {
		return New(ErrCodeInvalidInput, "invalid analysis id: %q", id)
	}
	return nil
}
