package submissions

import (
	"fmt"
	"path/filepath"
	"strings"

	"shadowpixel-backend/internal/extract"
)

const maxUsernameLength = 39

var allowedExtensions = map[string]bool{
	".pdf":  true,
	".docx": true,
	".txt":  true,
}

// ValidateUsername checks the GitHub username shape: 1-39 characters,
// alphanumeric or hyphen, no leading, trailing, or consecutive hyphens.
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("%w: github_username is required", ErrInvalidInput)
	}
	if len(username) > maxUsernameLength {
		return fmt.Errorf("%w: github_username must be at most %d characters", ErrInvalidInput, maxUsernameLength)
	}
	if strings.HasPrefix(username, "-") || strings.HasSuffix(username, "-") {
		return fmt.Errorf("%w: github_username cannot start or end with a hyphen", ErrInvalidInput)
	}
	if strings.Contains(username, "--") {
		return fmt.Errorf("%w: github_username cannot contain consecutive hyphens", ErrInvalidInput)
	}
	for _, r := range username {
		if !isUsernameRune(r) {
			return fmt.Errorf("%w: github_username may only contain letters, digits, and hyphens", ErrInvalidInput)
		}
	}
	return nil
}

func isUsernameRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '-':
		return true
	default:
		return false
	}
}

// ValidateFileName checks the upload has an allowed resume extension.
// A missing name is an input error; a disallowed extension is an
// unsupported format.
func ValidateFileName(fileName string) error {
	if strings.TrimSpace(fileName) == "" {
		return fmt.Errorf("%w: file name is required", ErrInvalidInput)
	}
	ext := strings.ToLower(filepath.Ext(fileName))
	if ext == ".doc" {
		return fmt.Errorf("%w: legacy .doc is not supported, convert to .docx", extract.ErrUnsupportedFormat)
	}
	if !allowedExtensions[ext] {
		return fmt.Errorf("%w: unsupported file extension %q, allowed: .pdf, .docx, .txt", extract.ErrUnsupportedFormat, ext)
	}
	return nil
}
