package models

import "time"

// Job states reported in JobResult
const (
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// ScoreJob is the queue payload of an asynchronous scoring request
type ScoreJob struct {
	ID          string       `json:"id"`
	Request     ScoreRequest `json:"request"`
	SubmittedAt time.Time    `json:"submitted_at"`
}

// JobResult is published once a job has been processed
type JobResult struct {
	JobID        string    `json:"job_id"`
	Status       string    `json:"status"`
	ResultID     string    `json:"result_id,omitempty"`
	Algorithm    string    `json:"algorithm,omitempty"`
	ChangePoints int       `json:"change_points"`
	Error        string    `json:"error,omitempty"`
	CompletedAt  time.Time `json:"completed_at"`
}

// SubmitJobResponse represents the response to an accepted job
type SubmitJobResponse struct {
	JobID    string `json:"job_id"`
	ResultID string `json:"result_id"`
	Subject  string `json:"subject"`
}
