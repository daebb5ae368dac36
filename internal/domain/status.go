package domain

import (
	"errors"
	"strings"
)

// JobStatus is the terminal state of a processing job.
type JobStatus string

const (
	JobSucceeded JobStatus = "succeeded"
	JobInvalid   JobStatus = "invalid"
	JobNotFound  JobStatus = "not_found"
	JobFailed    JobStatus = "failed"
)

var jobStatusLabels = map[JobStatus]string{
	JobSucceeded: "Succeeded",
	JobInvalid:   "Invalid request",
	JobNotFound:  "Source not found",
	JobFailed:    "Failed",
}

// JobStatusLabel returns a human-readable label for a job status.
func JobStatusLabel(status JobStatus) string {
	if label, ok := jobStatusLabels[status]; ok {
		return label
	}

	return "Unknown"
}

// ParseJobStatus returns the status for a given value (case-insensitive).
func ParseJobStatus(value string) (JobStatus, bool) {
	status := JobStatus(strings.ToLower(strings.TrimSpace(value)))
	_, ok := jobStatusLabels[status]

	return status, ok
}

// JobStatusFromError classifies the error a job finished with.
func JobStatusFromError(err error) JobStatus {
	switch {
	case err == nil:
		return JobSucceeded
	case errors.Is(err, ErrInvalidRequest):
		return JobInvalid
	case errors.Is(err, ErrObjectNotFound):
		return JobNotFound
	default:
		return JobFailed
	}
}
