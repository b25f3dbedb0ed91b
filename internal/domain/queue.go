package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// QueueJobs is the queue name for per-item processing work.
const QueueJobs = "jobs"

// DefaultMaxAttempts is the delivery ceiling for a queue message before it is
// dead-lettered.
const DefaultMaxAttempts = 3

// Queue message status constants
const (
	MessageStatusPending    = "pending"
	MessageStatusProcessing = "processing"
	MessageStatusCompleted  = "completed"
	MessageStatusFailed     = "failed"
)

// QueueMessage is a durable, claimable record representing pending work for
// one job item. Attempts is incremented by the store's claim operation, never
// by the worker.
type QueueMessage struct {
	ID          int64      `db:"id"`
	QueueName   string     `db:"queue_name"`
	Payload     []byte     `db:"payload"`
	Status      string     `db:"status"`
	Attempts    int        `db:"attempts"`
	MaxAttempts int        `db:"max_attempts"`
	LastError   string     `db:"last_error"`
	AvailableAt time.Time  `db:"available_at"`
	ClaimedAt   *time.Time `db:"claimed_at"`
	ProcessedAt *time.Time `db:"processed_at"`
	CreatedAt   time.Time  `db:"created_at"`
}

// JobPayload is the payload shape for messages on the jobs queue.
type JobPayload struct {
	TenantID      string `json:"tenant_id"`
	JobID         string `json:"job_id"`
	ItemID        string `json:"item_id"`
	CorrelationID string `json:"correlation_id"`
}

// JobPayload decodes the message payload. The payload shape is keyed by the
// queue name, so a message from any other queue is rejected rather than
// interpreted loosely.
func (m *QueueMessage) JobPayload() (JobPayload, error) {
	if m.QueueName != QueueJobs {
		return JobPayload{}, fmt.Errorf("%w: queue %q does not carry job payloads", ErrInvalidPayload, m.QueueName)
	}

	var p JobPayload
	if err := json.Unmarshal(m.Payload, &p); err != nil {
		return JobPayload{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if p.TenantID == "" || p.JobID == "" || p.ItemID == "" {
		return JobPayload{}, fmt.Errorf("%w: missing tenant_id, job_id or item_id", ErrInvalidPayload)
	}
	return p, nil
}

// EncodeJobPayload marshals a job payload for insertion into the queue.
func EncodeJobPayload(p JobPayload) ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode job payload: %w", err)
	}
	return data, nil
}
