package dispatcher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/studioflow/studioflow/internal/domain"
)

// MaxItemsPerJob is the maximum batch size for a single job
const MaxItemsPerJob = 100

// DefaultBrandProfileID is used when the caller does not name a profile
const DefaultBrandProfileID = "default"

// Store is the durable state the dispatcher needs
type Store interface {
	CreateJobWithItems(ctx context.Context, job *domain.Job, items []domain.JobItem) error
	GetJob(ctx context.Context, tenantID, jobID string) (*domain.Job, error)
	ListItems(ctx context.Context, jobID string) ([]domain.JobItem, error)
	EnqueueMessages(ctx context.Context, msgs []domain.QueueMessage) (int, error)
	UpdateJobStatus(ctx context.Context, jobID, status string) error
}

// Notifier wakes idle workers after an enqueue. Delivery is best-effort: the
// durable queue rows are the source of truth and the poll ticker covers any
// lost notification.
type Notifier interface {
	PublishWithRetry(ctx context.Context, body []byte, contentType string) error
}

// ItemInput is one requested item in a job creation call
type ItemInput struct {
	Filename string
}

// Dispatcher creates jobs and turns their items into queued work units
type Dispatcher struct {
	store    Store
	notifier Notifier // optional
	logger   *slog.Logger
}

// NewDispatcher creates a new Dispatcher. notifier may be nil.
func NewDispatcher(store Store, notifier Notifier, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		store:    store,
		notifier: notifier,
		logger:   logger,
	}
}

// CreateJob creates a job and its items, all in status created. Every id is
// generated fresh; job and items are written as one transactional unit.
func (d *Dispatcher) CreateJob(ctx context.Context, tenantID, brandProfileID string, inputs []ItemInput) (*domain.Job, []domain.JobItem, error) {
	if len(inputs) == 0 {
		return nil, nil, domain.NewValidationError("items array is required and must not be empty")
	}
	if len(inputs) > MaxItemsPerJob {
		return nil, nil, domain.NewValidationError("maximum %d items per job", MaxItemsPerJob)
	}
	for _, in := range inputs {
		if in.Filename == "" {
			return nil, nil, domain.NewValidationError("every item requires a filename")
		}
	}

	if brandProfileID == "" {
		brandProfileID = DefaultBrandProfileID
	}

	job := &domain.Job{
		ID:             domain.NewID("job"),
		TenantID:       tenantID,
		BrandProfileID: brandProfileID,
		CorrelationID:  domain.NewCorrelationID(),
		Status:         domain.JobStatusCreated,
	}

	items := make([]domain.JobItem, len(inputs))
	for i, in := range inputs {
		items[i] = domain.JobItem{
			ID:       domain.NewID("item"),
			JobID:    job.ID,
			TenantID: tenantID,
			Filename: in.Filename,
			Status:   domain.ItemStatusCreated,
		}
	}

	if err := d.store.CreateJobWithItems(ctx, job, items); err != nil {
		return nil, nil, fmt.Errorf("failed to create job: %w", err)
	}

	d.logger.Info("Job created",
		slog.String("job_id", job.ID),
		slog.String("tenant_id", tenantID),
		slog.String("correlation_id", job.CorrelationID),
		slog.Int("items", len(items)),
	)

	return job, items, nil
}

// enqueueNudge is the wake-up message published after an enqueue
type enqueueNudge struct {
	JobID    string `json:"job_id"`
	Enqueued int    `json:"enqueued"`
}

// Enqueue creates one pending queue message per item still in created or
// uploaded status. Items already processing, completed or failed are skipped,
// which makes re-enqueue idempotent. Returns the count enqueued; zero is not
// an error. The job moves to processing only when something was enqueued, so
// re-enqueuing a finished job never regresses its status.
func (d *Dispatcher) Enqueue(ctx context.Context, tenantID, jobID string) (int, error) {
	job, err := d.store.GetJob(ctx, tenantID, jobID)
	if err != nil {
		return 0, err
	}

	items, err := d.store.ListItems(ctx, jobID)
	if err != nil {
		return 0, err
	}

	var msgs []domain.QueueMessage
	for _, item := range items {
		if item.Status != domain.ItemStatusCreated && item.Status != domain.ItemStatusUploaded {
			continue
		}

		payload, err := domain.EncodeJobPayload(domain.JobPayload{
			TenantID:      tenantID,
			JobID:         jobID,
			ItemID:        item.ID,
			CorrelationID: job.CorrelationID,
		})
		if err != nil {
			return 0, err
		}

		msgs = append(msgs, domain.QueueMessage{
			QueueName:   domain.QueueJobs,
			Payload:     payload,
			Status:      domain.MessageStatusPending,
			Attempts:    0,
			MaxAttempts: domain.DefaultMaxAttempts,
		})
	}

	enqueued, err := d.store.EnqueueMessages(ctx, msgs)
	if err != nil {
		return 0, fmt.Errorf("failed to enqueue job items: %w", err)
	}

	if enqueued > 0 {
		if err := d.store.UpdateJobStatus(ctx, jobID, domain.JobStatusProcessing); err != nil {
			return 0, err
		}
		d.notifyWorkers(ctx, jobID, enqueued)
	}

	d.logger.Info("Job enqueued",
		slog.String("job_id", jobID),
		slog.String("tenant_id", tenantID),
		slog.String("correlation_id", job.CorrelationID),
		slog.Int("enqueued", enqueued),
	)

	return enqueued, nil
}

func (d *Dispatcher) notifyWorkers(ctx context.Context, jobID string, enqueued int) {
	if d.notifier == nil {
		return
	}

	body, err := json.Marshal(enqueueNudge{JobID: jobID, Enqueued: enqueued})
	if err != nil {
		d.logger.Warn("Failed to encode worker notification",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		return
	}

	if err := d.notifier.PublishWithRetry(ctx, body, "application/json"); err != nil {
		d.logger.Warn("Failed to notify workers, relying on poll interval",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
	}
}
