package submissions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"shadowpixel-backend/internal/extract"
	"shadowpixel-backend/internal/github"
	"shadowpixel-backend/internal/llm"
	"shadowpixel-backend/internal/shared/metrics"
	"shadowpixel-backend/internal/shared/storage/object"
	"shadowpixel-backend/internal/shared/telemetry"
)

const defaultMaxUploadBytes = 5 << 20 // 5MB

// Service runs the synchronous submission pipeline:
// validate, extract, fetch GitHub, summarize, persist.
type Service struct {
	Store           object.ObjectStore
	Repo            Repo
	Steps           StepsRepo
	GitHub          github.UserFetcher
	LLM             llm.Client
	StorageProvider string
	MaxUploadBytes  int64

	Now func() time.Time
}

// SubmitInput is a single resume upload request.
type SubmitInput struct {
	GitHubUsername string
	FileName       string
	File           io.Reader
}

// Submit runs the full pipeline for one upload. The submission is persisted
// only when every stage succeeds; a failed stage leaves no submission row.
func (s *Service) Submit(ctx context.Context, input SubmitInput) (Submission, error) {
	pipelineID := uuid.NewString()
	pipelineStart := s.clock()
	metrics.IncSubmissionStarted()

	// Validate
	stepStart := s.clock()
	if err := s.validate(input); err != nil {
		return Submission{}, s.fail(ctx, pipelineID, StepValidate, pipelineStart, stepStart, err)
	}
	data, err := s.readUpload(input.File)
	if err != nil {
		return Submission{}, s.fail(ctx, pipelineID, StepValidate, pipelineStart, stepStart, err)
	}
	s.recordStep(ctx, pipelineID, StepValidate, StepStatusCompleted, "", stepStart)

	// Extract text
	stepStart = s.clock()
	mimeType := http.DetectContentType(data)
	text, err := extract.ExtractTextFromBytes(ctx, data, mimeType, input.FileName)
	if err != nil {
		return Submission{}, s.fail(ctx, pipelineID, StepExtract, pipelineStart, stepStart, err)
	}
	s.recordStep(ctx, pipelineID, StepExtract, StepStatusCompleted, fmt.Sprintf("extracted %d chars", len(text)), stepStart)

	// Fetch GitHub profile and repositories
	stepStart = s.clock()
	ghSummary, err := s.GitHub.FetchUser(ctx, input.GitHubUsername)
	if err != nil {
		return Submission{}, s.fail(ctx, pipelineID, StepGitHub, pipelineStart, stepStart, err)
	}
	s.recordStep(ctx, pipelineID, StepGitHub, StepStatusCompleted, fmt.Sprintf("%d repositories", len(ghSummary.Repositories)), stepStart)

	// Generate summary
	stepStart = s.clock()
	summaryText, err := s.LLM.GenerateSummary(ctx, llm.SummaryInput{
		ResumeText: text,
		GitHub:     ghSummary,
	})
	if err != nil {
		return Submission{}, s.fail(ctx, pipelineID, StepSummarize, pipelineStart, stepStart, err)
	}
	s.recordStep(ctx, pipelineID, StepSummarize, StepStatusCompleted, "", stepStart)

	// Persist
	stepStart = s.clock()
	sub, err := s.persist(ctx, input, data, text, ghSummary, summaryText)
	if err != nil {
		return Submission{}, s.fail(ctx, pipelineID, StepPersist, pipelineStart, stepStart, err)
	}
	s.recordStepWithSubmission(ctx, pipelineID, sub.ID, StepPersist, StepStatusCompleted, "", stepStart)
	if s.Steps != nil {
		if err := s.Steps.AttachSubmission(ctx, pipelineID, sub.ID); err != nil {
			telemetry.Error("submission.steps.attach_failed", map[string]any{
				"pipeline_id": pipelineID,
				"error":       err.Error(),
			})
		}
	}

	durationMs := float64(s.clock().Sub(pipelineStart)) / float64(time.Millisecond)
	metrics.IncSubmissionCompleted()
	metrics.ObservePipelineDurationMs(durationMs)
	telemetry.Info("submission.completed", map[string]any{
		"pipeline_id":     pipelineID,
		"submission_id":   sub.ID,
		"github_username": sub.GitHubUsername,
		"duration_ms":     durationMs,
	})

	return sub, nil
}

func (s *Service) validate(input SubmitInput) error {
	if err := ValidateUsername(input.GitHubUsername); err != nil {
		return err
	}
	if err := ValidateFileName(input.FileName); err != nil {
		return err
	}
	if input.File == nil {
		return fmt.Errorf("%w: resume file is required", ErrInvalidInput)
	}
	return nil
}

func (s *Service) readUpload(r io.Reader) ([]byte, error) {
	limit := s.MaxUploadBytes
	if limit <= 0 {
		limit = defaultMaxUploadBytes
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("%w: unable to read file: %v", ErrInvalidInput, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: file exceeds maximum size of %d bytes", ErrInvalidInput, limit)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: resume file is empty", ErrInvalidInput)
	}
	return data, nil
}

func (s *Service) persist(ctx context.Context, input SubmitInput, data []byte, text string, gh github.UserSummary, summaryText string) (Submission, error) {
	storageKey, size, mimeType, err := s.Store.Save(ctx, input.GitHubUsername, input.FileName, bytes.NewReader(data))
	if err != nil {
		return Submission{}, fmt.Errorf("save upload: %w", err)
	}

	extractedKey := storageKey + ".extracted.txt"
	if _, err := s.Store.SaveWithKey(ctx, extractedKey, "text/plain; charset=utf-8", bytes.NewReader([]byte(text))); err != nil {
		return Submission{}, fmt.Errorf("save extracted text: %w", err)
	}

	githubData, err := json.Marshal(gh)
	if err != nil {
		return Submission{}, fmt.Errorf("marshal github data: %w", err)
	}

	storageProvider := s.StorageProvider
	if storageProvider == "" {
		storageProvider = "local"
	}

	sub := Submission{
		ID:               uuid.NewString(),
		GitHubUsername:   input.GitHubUsername,
		FileName:         input.FileName,
		OriginalFilename: input.FileName,
		MimeType:         mimeType,
		SizeBytes:        size,
		StorageProvider:  storageProvider,
		StorageKey:       storageKey,
		ExtractedTextKey: extractedKey,
		GitHubData:       githubData,
		SummaryText:      summaryText,
		CreatedAt:        s.clock(),
	}

	if err := s.Repo.Create(ctx, sub); err != nil {
		return Submission{}, fmt.Errorf("create submission: %w", err)
	}
	return sub, nil
}

// GetByID returns a submission by ID.
func (s *Service) GetByID(ctx context.Context, id string) (Submission, error) {
	if id == "" {
		return Submission{}, fmt.Errorf("%w: submission id is required", ErrInvalidInput)
	}
	return s.Repo.GetByID(ctx, id)
}

// List returns submissions newest-first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Submission, error) {
	return s.Repo.List(ctx, limit, offset)
}

// Text returns the extracted resume text of a submission.
func (s *Service) Text(ctx context.Context, id string) (string, error) {
	sub, err := s.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if sub.ExtractedTextKey == "" {
		return "", ErrNotFound
	}
	body, err := s.Store.Open(ctx, sub.ExtractedTextKey)
	if err != nil {
		return "", fmt.Errorf("open extracted text: %w", err)
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("read extracted text: %w", err)
	}
	return string(raw), nil
}

// StepsFor returns the pipeline audit trail of a submission.
func (s *Service) StepsFor(ctx context.Context, submissionID string) ([]ProcessingStep, error) {
	if _, err := s.GetByID(ctx, submissionID); err != nil {
		return nil, err
	}
	if s.Steps == nil {
		return []ProcessingStep{}, nil
	}
	return s.Steps.ListBySubmission(ctx, submissionID)
}

func (s *Service) fail(ctx context.Context, pipelineID, step string, pipelineStart, stepStart time.Time, err error) error {
	s.recordStep(ctx, pipelineID, step, StepStatusFailed, err.Error(), stepStart)

	durationMs := float64(s.clock().Sub(pipelineStart)) / float64(time.Millisecond)
	metrics.IncSubmissionFailed()
	metrics.ObservePipelineDurationMs(durationMs)
	telemetry.Error("submission.failed", map[string]any{
		"pipeline_id": pipelineID,
		"step":        step,
		"duration_ms": durationMs,
		"error":       err.Error(),
	})
	return &PipelineError{Step: step, Err: err}
}

func (s *Service) recordStep(ctx context.Context, pipelineID, step, status, message string, start time.Time) {
	s.recordStepWithSubmission(ctx, pipelineID, "", step, status, message, start)
}

func (s *Service) recordStepWithSubmission(ctx context.Context, pipelineID, submissionID, step, status, message string, start time.Time) {
	if s.Steps == nil {
		return
	}
	record := ProcessingStep{
		ID:           uuid.NewString(),
		PipelineID:   pipelineID,
		SubmissionID: submissionID,
		Step:         step,
		Status:       status,
		Message:      message,
		DurationMs:   float64(s.clock().Sub(start)) / float64(time.Millisecond),
		CreatedAt:    s.clock(),
	}
	if err := s.Steps.Append(ctx, record); err != nil {
		telemetry.Error("submission.steps.append_failed", map[string]any{
			"pipeline_id": pipelineID,
			"step":        step,
			"error":       err.Error(),
		})
	}
}

func (s *Service) clock() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}
