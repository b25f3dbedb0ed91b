package domain

import "time"

// Job status constants. A job's status is always derived from its items'
// statuses (AggregateJobStatus), except at creation and on first enqueue.
const (
	JobStatusCreated    = "created"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
	JobStatusPartial    = "partial"
)

// Item status constants
const (
	ItemStatusCreated    = "created"
	ItemStatusUploaded   = "uploaded"
	ItemStatusProcessing = "processing"
	ItemStatusCompleted  = "completed"
	ItemStatusFailed     = "failed"
)

// Job represents a batch submission containing one or more items.
type Job struct {
	ID             string    `db:"id"`
	TenantID       string    `db:"tenant_id"`
	BrandProfileID string    `db:"brand_profile_id"`
	CorrelationID  string    `db:"correlation_id"`
	Status         string    `db:"status"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// JobItem is one unit of work (one file) within a job. Blob paths and the
// error message are empty strings until set by the pipeline.
type JobItem struct {
	ID             string    `db:"id"`
	JobID          string    `db:"job_id"`
	TenantID       string    `db:"tenant_id"`
	Filename       string    `db:"filename"`
	Status         string    `db:"status"`
	RawBlobPath    string    `db:"raw_blob_path"`
	OutputBlobPath string    `db:"output_blob_path"`
	ErrorMessage   string    `db:"error_message"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// IsTerminalItemStatus reports whether an item status is final.
func IsTerminalItemStatus(status string) bool {
	return status == ItemStatusCompleted || status == ItemStatusFailed
}
