package submissions

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo for dev and tests.
type MemoryRepo struct {
	mu   sync.RWMutex
	data []Submission
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{}
}

// Create stores a submission.
func (r *MemoryRepo) Create(ctx context.Context, sub Submission) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data = append(r.data, sub)
	return nil
}

// GetByID returns a submission by ID.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Submission, error) {
	if err := ctx.Err(); err != nil {
		return Submission{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range r.data {
		if r.data[i].ID == id {
			return r.data[i], nil
		}
	}
	return Submission{}, ErrNotFound
}

// List returns submissions newest-first, honoring limit/offset.
func (r *MemoryRepo) List(ctx context.Context, limit, offset int) ([]Submission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	r.mu.RLock()
	subs := make([]Submission, len(r.data))
	copy(subs, r.data)
	r.mu.RUnlock()

	sort.SliceStable(subs, func(i, j int) bool {
		if subs[i].CreatedAt.Equal(subs[j].CreatedAt) {
			return subs[i].ID > subs[j].ID
		}
		return subs[i].CreatedAt.After(subs[j].CreatedAt)
	})

	if offset >= len(subs) {
		return []Submission{}, nil
	}
	end := len(subs)
	if offset+limit < end {
		end = offset + limit
	}
	return subs[offset:end], nil
}

var _ Repo = (*MemoryRepo)(nil)

// MemoryStepsRepo is an in-memory implementation of StepsRepo.
type MemoryStepsRepo struct {
	mu   sync.RWMutex
	data []ProcessingStep
}

// NewMemoryStepsRepo constructs a MemoryStepsRepo.
func NewMemoryStepsRepo() *MemoryStepsRepo {
	return &MemoryStepsRepo{}
}

// Append stores one step audit record.
func (r *MemoryStepsRepo) Append(ctx context.Context, step ProcessingStep) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data = append(r.data, step)
	return nil
}

// AttachSubmission backfills the submission ID on a pipeline's step records.
func (r *MemoryStepsRepo) AttachSubmission(ctx context.Context, pipelineID, submissionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.data {
		if r.data[i].PipelineID == pipelineID && r.data[i].SubmissionID == "" {
			r.data[i].SubmissionID = submissionID
		}
	}
	return nil
}

// ListByPipeline returns the steps of a pipeline in insertion order.
func (r *MemoryStepsRepo) ListByPipeline(ctx context.Context, pipelineID string) ([]ProcessingStep, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []ProcessingStep
	for i := range r.data {
		if r.data[i].PipelineID == pipelineID {
			out = append(out, r.data[i])
		}
	}
	return out, nil
}

// ListBySubmission returns the steps recorded for a completed submission.
func (r *MemoryStepsRepo) ListBySubmission(ctx context.Context, submissionID string) ([]ProcessingStep, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []ProcessingStep
	for i := range r.data {
		if r.data[i].SubmissionID == submissionID {
			out = append(out, r.data[i])
		}
	}
	return out, nil
}

var _ StepsRepo = (*MemoryStepsRepo)(nil)
