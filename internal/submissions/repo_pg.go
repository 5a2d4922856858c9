package submissions

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a completed submission.
func (r *PGRepo) Create(ctx context.Context, sub Submission) error {
	const query = `
INSERT INTO submissions (
    id,
    github_username,
    file_name,
    original_filename,
    mime_type,
    size_bytes,
    storage_provider,
    storage_key,
    extracted_text_key,
    github_data,
    summary_text,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	originalName := sub.OriginalFilename
	if originalName == "" {
		originalName = sub.FileName
	}
	storageProvider := sub.StorageProvider
	if storageProvider == "" {
		storageProvider = "local"
	}
	githubData := sub.GitHubData
	if len(githubData) == 0 {
		githubData = json.RawMessage(`{}`)
	}

	var storageKey sql.NullString
	if sub.StorageKey != "" {
		storageKey = sql.NullString{String: sub.StorageKey, Valid: true}
	}
	var extractedKey sql.NullString
	if sub.ExtractedTextKey != "" {
		extractedKey = sql.NullString{String: sub.ExtractedTextKey, Valid: true}
	}
	var summary sql.NullString
	if sub.SummaryText != "" {
		summary = sql.NullString{String: sub.SummaryText, Valid: true}
	}

	_, err := r.DB.ExecContext(
		ctx,
		query,
		sub.ID,
		sub.GitHubUsername,
		sub.FileName,
		originalName,
		sub.MimeType,
		sub.SizeBytes,
		storageProvider,
		storageKey,
		extractedKey,
		[]byte(githubData),
		summary,
		sub.CreatedAt,
	)
	return err
}

const submissionColumns = `id, github_username, file_name, original_filename, mime_type, size_bytes, storage_provider, storage_key, extracted_text_key, github_data, summary_text, created_at`

// GetByID fetches a submission by ID.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Submission, error) {
	const query = `
SELECT ` + submissionColumns + `
FROM submissions
WHERE id = $1
LIMIT 1`

	row := r.DB.QueryRowContext(ctx, query, id)
	sub, err := scanSubmission(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Submission{}, ErrNotFound
		}
		return Submission{}, err
	}
	return sub, nil
}

// List returns submissions newest-first, honoring limit/offset.
func (r *PGRepo) List(ctx context.Context, limit, offset int) ([]Submission, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
SELECT ` + submissionColumns + `
FROM submissions
ORDER BY created_at DESC, id DESC
LIMIT $1 OFFSET $2`

	rows, err := r.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row rowScanner) (Submission, error) {
	var sub Submission
	var originalName sql.NullString
	var storageProvider sql.NullString
	var storageKey sql.NullString
	var extractedKey sql.NullString
	var githubData []byte
	var summary sql.NullString
	if err := row.Scan(
		&sub.ID,
		&sub.GitHubUsername,
		&sub.FileName,
		&originalName,
		&sub.MimeType,
		&sub.SizeBytes,
		&storageProvider,
		&storageKey,
		&extractedKey,
		&githubData,
		&summary,
		&sub.CreatedAt,
	); err != nil {
		return Submission{}, err
	}
	if originalName.Valid {
		sub.OriginalFilename = originalName.String
	}
	if storageProvider.Valid {
		sub.StorageProvider = storageProvider.String
	}
	if storageKey.Valid {
		sub.StorageKey = storageKey.String
	}
	if extractedKey.Valid {
		sub.ExtractedTextKey = extractedKey.String
	}
	if len(githubData) > 0 {
		sub.GitHubData = json.RawMessage(githubData)
	}
	if summary.Valid {
		sub.SummaryText = summary.String
	}
	return sub, nil
}

var _ Repo = (*PGRepo)(nil)

// PGStepsRepo implements StepsRepo using Postgres.
type PGStepsRepo struct {
	DB *sql.DB
}

// Append inserts one step audit record.
func (r *PGStepsRepo) Append(ctx context.Context, step ProcessingStep) error {
	const query = `
INSERT INTO processing_steps (id, pipeline_id, submission_id, step, status, message, duration_ms, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	var submissionID sql.NullString
	if step.SubmissionID != "" {
		submissionID = sql.NullString{String: step.SubmissionID, Valid: true}
	}
	var message sql.NullString
	if step.Message != "" {
		message = sql.NullString{String: step.Message, Valid: true}
	}

	_, err := r.DB.ExecContext(
		ctx,
		query,
		step.ID,
		step.PipelineID,
		submissionID,
		step.Step,
		step.Status,
		message,
		step.DurationMs,
		step.CreatedAt,
	)
	return err
}

// AttachSubmission backfills the submission ID on a pipeline's step records.
func (r *PGStepsRepo) AttachSubmission(ctx context.Context, pipelineID, submissionID string) error {
	const query = `
UPDATE processing_steps
SET submission_id = $1
WHERE pipeline_id = $2 AND submission_id IS NULL`
	_, err := r.DB.ExecContext(ctx, query, submissionID, pipelineID)
	return err
}

const stepColumns = `id, pipeline_id, submission_id, step, status, message, duration_ms, created_at`

// ListByPipeline returns the steps of a pipeline in execution order.
func (r *PGStepsRepo) ListByPipeline(ctx context.Context, pipelineID string) ([]ProcessingStep, error) {
	const query = `
SELECT ` + stepColumns + `
FROM processing_steps
WHERE pipeline_id = $1
ORDER BY created_at ASC`
	return r.querySteps(ctx, query, pipelineID)
}

// ListBySubmission returns the steps recorded for a completed submission.
func (r *PGStepsRepo) ListBySubmission(ctx context.Context, submissionID string) ([]ProcessingStep, error) {
	const query = `
SELECT ` + stepColumns + `
FROM processing_steps
WHERE submission_id = $1
ORDER BY created_at ASC`
	return r.querySteps(ctx, query, submissionID)
}

func (r *PGStepsRepo) querySteps(ctx context.Context, query string, arg any) ([]ProcessingStep, error) {
	rows, err := r.DB.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ProcessingStep
	for rows.Next() {
		var step ProcessingStep
		var submissionID sql.NullString
		var message sql.NullString
		if err := rows.Scan(
			&step.ID,
			&step.PipelineID,
			&submissionID,
			&step.Step,
			&step.Status,
			&message,
			&step.DurationMs,
			&step.CreatedAt,
		); err != nil {
			return nil, err
		}
		if submissionID.Valid {
			step.SubmissionID = submissionID.String
		}
		if message.Valid {
			step.Message = message.String
		}
		out = append(out, step)
	}
	return out, rows.Err()
}

var _ StepsRepo = (*PGStepsRepo)(nil)
