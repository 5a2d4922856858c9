package submissions

import (
	"encoding/json"
	"time"
)

// Submission is a fully processed resume upload tied to a GitHub user.
// Rows only exist for uploads whose whole pipeline succeeded.
type Submission struct {
	ID               string
	GitHubUsername   string
	FileName         string
	OriginalFilename string
	MimeType         string
	SizeBytes        int64
	StorageProvider  string
	StorageKey       string
	ExtractedTextKey string
	GitHubData       json.RawMessage
	SummaryText      string
	CreatedAt        time.Time
}

// Pipeline step names, in execution order.
const (
	StepValidate  = "validate"
	StepExtract   = "extract_text"
	StepGitHub    = "github_fetch"
	StepSummarize = "generate_summary"
	StepPersist   = "persist"
)

// Step statuses.
const (
	StepStatusCompleted = "completed"
	StepStatusFailed    = "failed"
)

// ProcessingStep is one audit record for a pipeline stage. Steps are written
// as each stage finishes, so failed pipelines leave a trail even though no
// submission row exists for them.
type ProcessingStep struct {
	ID           string
	PipelineID   string
	SubmissionID string
	Step         string
	Status       string
	Message      string
	DurationMs   float64
	CreatedAt    time.Time
}
