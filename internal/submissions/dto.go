package submissions

import (
	"encoding/json"
	"time"
)

type submissionResponse struct {
	SubmissionID   string          `json:"submissionId"`
	GitHubUsername string          `json:"githubUsername"`
	FileName       string          `json:"fileName"`
	MimeType       string          `json:"mimeType"`
	SizeBytes      int64           `json:"sizeBytes"`
	GitHubData     json.RawMessage `json:"githubData,omitempty"`
	Summary        string          `json:"summary"`
	CreatedAt      time.Time       `json:"createdAt"`
}

type submissionListItem struct {
	SubmissionID   string    `json:"submissionId"`
	GitHubUsername string    `json:"githubUsername"`
	FileName       string    `json:"fileName"`
	MimeType       string    `json:"mimeType"`
	SizeBytes      int64     `json:"sizeBytes"`
	CreatedAt      time.Time `json:"createdAt"`
}

type stepResponse struct {
	Step       string    `json:"step"`
	Status     string    `json:"status"`
	Message    string    `json:"message,omitempty"`
	DurationMs float64   `json:"durationMs"`
	CreatedAt  time.Time `json:"createdAt"`
}

func toResponse(sub Submission) submissionResponse {
	return submissionResponse{
		SubmissionID:   sub.ID,
		GitHubUsername: sub.GitHubUsername,
		FileName:       sub.FileName,
		MimeType:       sub.MimeType,
		SizeBytes:      sub.SizeBytes,
		GitHubData:     sub.GitHubData,
		Summary:        sub.SummaryText,
		CreatedAt:      sub.CreatedAt,
	}
}

func toListItem(sub Submission) submissionListItem {
	return submissionListItem{
		SubmissionID:   sub.ID,
		GitHubUsername: sub.GitHubUsername,
		FileName:       sub.FileName,
		MimeType:       sub.MimeType,
		SizeBytes:      sub.SizeBytes,
		CreatedAt:      sub.CreatedAt,
	}
}

func toStepResponse(step ProcessingStep) stepResponse {
	return stepResponse{
		Step:       step.Step,
		Status:     step.Status,
		Message:    step.Message,
		DurationMs: step.DurationMs,
		CreatedAt:  step.CreatedAt,
	}
}
