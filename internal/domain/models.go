// internal/domain/models.go
package domain

import (
	"time"

	"github.com/google/uuid"
)

// ProcessingRequest is the body accepted by POST /process.
type ProcessingRequest struct {
	SourceKey string `json:"s3_key"`
}

// PollOutcome is the result of waiting for an object to appear.
type PollOutcome int

const (
	TimedOut PollOutcome = iota
	Found
)

func (o PollOutcome) String() string {
	if o == Found {
		return "found"
	}
	return "timed_out"
}

// Document is a source object that has been fetched to local scratch space.
type Document struct {
	Key  string
	Path string
	Size int64
}

// Table is a tabular artifact: a header row plus typed cell values.
type Table struct {
	Sheet   string
	Columns []string
	Rows    [][]any
}

// RetrievalLink is a time-limited, pre-authorized URL for one object.
type RetrievalLink struct {
	URL       string    `json:"download_url"`
	Key       string    `json:"output_key"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ProcessResponse is the success body of POST /process.
type ProcessResponse struct {
	Status      string    `json:"status"`
	DownloadURL string    `json:"download_url"`
	Message     string    `json:"message"`
	OutputKey   string    `json:"output_key"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Job is one recorded run of the processing pipeline.
type Job struct {
	ID         uuid.UUID `json:"id" db:"id"`
	SourceKey  string    `json:"source_key" db:"source_key"`
	OutputKey  string    `json:"output_key" db:"output_key"`
	Status     JobStatus `json:"status" db:"status"`
	Error      string    `json:"error,omitempty" db:"error"`
	StartedAt  time.Time `json:"started_at" db:"started_at"`
	FinishedAt time.Time `json:"finished_at" db:"finished_at"`
}

// Duration is the wall-clock time the job took.
func (j *Job) Duration() time.Duration {
	return j.FinishedAt.Sub(j.StartedAt)
}
