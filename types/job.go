package types

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus is the lifecycle state of a ScrapeJob.
//
// PENDING -> IN_PROGRESS -> {COMPLETED, FAILED}; FAILED -> PENDING on an
// explicit retry. COMPLETED is terminal.
type JobStatus string

const (
	JobPending    JobStatus = "PENDING"
	JobInProgress JobStatus = "IN_PROGRESS"
	JobCompleted  JobStatus = "COMPLETED"
	JobFailed     JobStatus = "FAILED"
)

// ScrapeJob is one tracked attempt to acquire a single URL. The URL is the
// dedup key: there is never more than one job per URL.
type ScrapeJob struct {
	ID     uuid.UUID `json:"id"`
	URL    string    `json:"url"`
	Status JobStatus `json:"status"`

	DocumentID *uuid.UUID `json:"document_id,omitempty"`

	ErrorMessage string `json:"error_message,omitempty"`
	RetryCount   int    `json:"retry_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
