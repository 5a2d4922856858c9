package llm

import (
	"context"
	"errors"

	"shadowpixel-backend/internal/github"
)

// Client abstracts LLM providers for candidate summary generation.
type Client interface {
	GenerateSummary(ctx context.Context, input SummaryInput) (string, error)
}

// SummaryInput captures the inputs needed to generate a candidate summary.
type SummaryInput struct {
	ResumeText string
	GitHub     github.UserSummary
}

// ErrGenerationFailed indicates the provider could not produce a summary.
var ErrGenerationFailed = errors.New("summary generation failed")

// ErrNotImplemented is returned by the placeholder client.
var ErrNotImplemented = errors.New("LLM not implemented")

// PlaceholderClient is a stub implementation until provider wiring is added.
type PlaceholderClient struct{}

// GenerateSummary returns ErrNotImplemented.
func (PlaceholderClient) GenerateSummary(ctx context.Context, input SummaryInput) (string, error) {
	_ = ctx
	_ = input
	return "", ErrNotImplemented
}
