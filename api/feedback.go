package api

import "time"

// Status is the overall grading outcome of a plan
type Status string

const (
	Graded      Status = "graded"
	Invalid     Status = "invalid"
	SystemError Status = "system_error"
)

// Diagnostic is a compiler error location
type Diagnostic struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Column  int    `json:"column,omitempty"`
	Message string `json:"message"`
}

// RunOutput is the captured output of one run, trimmed for transport.
// Output is nil when the executor returned nothing for the run.
type RunOutput struct {
	RunID  string  `json:"run_id"`
	Output *string `json:"output"`
}

// Feedback message sent once a plan has been executed and graded
type Feedback struct {
	Header
	Job    string `json:"job"`
	Status Status `json:"status"`

	Errors       []string     `json:"errors"`
	SystemErrors []string     `json:"system_errors"`
	Diagnostics  []Diagnostic `json:"diagnostics"`
	Runs         []RunOutput  `json:"runs"`

	FinishedTime string `json:"finished_time"`
}

func NewFeedback(planID string, job string, status Status) Feedback {
	return Feedback{
		Header:       NewHeader(planID, FeedbackMsg),
		Job:          job,
		Status:       status,
		FinishedTime: time.Now().Format(time.RFC3339),
	}
}
