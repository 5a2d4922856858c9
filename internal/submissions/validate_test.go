package submissions

import (
	"errors"
	"strings"
	"testing"

	"shadowpixel-backend/internal/extract"
)

func TestValidateUsername(t *testing.T) {
	valid := []string{"octocat", "a", "dev-user", "User123", strings.Repeat("a", 39)}
	for _, username := range valid {
		if err := ValidateUsername(username); err != nil {
			t.Errorf("expected %q valid, got %v", username, err)
		}
	}

	invalid := []string{
		"",
		strings.Repeat("a", 40),
		"-leading",
		"trailing-",
		"double--hyphen",
		"has space",
		"under_score",
		"dot.name",
	}
	for _, username := range invalid {
		err := ValidateUsername(username)
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("expected %q invalid with ErrInvalidInput, got %v", username, err)
		}
	}
}

func TestValidateFileName(t *testing.T) {
	valid := []string{"resume.pdf", "resume.docx", "resume.txt", "Resume.PDF"}
	for _, name := range valid {
		if err := ValidateFileName(name); err != nil {
			t.Errorf("expected %q valid, got %v", name, err)
		}
	}

	if err := ValidateFileName(""); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected empty name rejected with ErrInvalidInput, got %v", err)
	}

	unsupported := []string{"resume", "resume.exe", "resume.zip", "resume.doc"}
	for _, name := range unsupported {
		err := ValidateFileName(name)
		if !errors.Is(err, extract.ErrUnsupportedFormat) {
			t.Errorf("expected %q rejected with ErrUnsupportedFormat, got %v", name, err)
		}
	}
}

func TestValidateFileNameLegacyDocMessage(t *testing.T) {
	err := ValidateFileName("resume.doc")
	if err == nil || !strings.Contains(err.Error(), "convert to .docx") {
		t.Fatalf("expected conversion hint for .doc, got %v", err)
	}
	if !errors.Is(err, extract.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat for .doc, got %v", err)
	}
}
