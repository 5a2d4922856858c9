package submissions

import "context"

// Repo defines persistence operations for submissions.
type Repo interface {
	Create(ctx context.Context, sub Submission) error
	GetByID(ctx context.Context, id string) (Submission, error)
	List(ctx context.Context, limit, offset int) ([]Submission, error)
}

// StepsRepo defines persistence for pipeline step audit records.
type StepsRepo interface {
	Append(ctx context.Context, step ProcessingStep) error
	AttachSubmission(ctx context.Context, pipelineID, submissionID string) error
	ListByPipeline(ctx context.Context, pipelineID string) ([]ProcessingStep, error)
	ListBySubmission(ctx context.Context, submissionID string) ([]ProcessingStep, error)
}
