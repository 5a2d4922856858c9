package submissions

import "errors"

var (
	// ErrNotFound indicates no submission exists with the given ID.
	ErrNotFound = errors.New("submission not found")
	// ErrInvalidInput indicates the upload request failed validation.
	ErrInvalidInput = errors.New("invalid input")
)

// PipelineError records which pipeline stage an upload failed in.
type PipelineError struct {
	Step string
	Err  error
}

func (e *PipelineError) Error() string {
	return e.Step + ": " + e.Err.Error()
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}
