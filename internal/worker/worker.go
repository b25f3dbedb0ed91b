package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/studioflow/studioflow/internal/blob"
	"github.com/studioflow/studioflow/internal/domain"
	"github.com/studioflow/studioflow/internal/processor"
)

// Default tuning values, overridable via Config
const (
	DefaultBatchSize    = 5
	DefaultConcurrency  = 4
	DefaultPollInterval = 10 * time.Second
	DefaultLease        = 5 * time.Minute
	DefaultRetryBackoff = 5 * time.Second
	maxRetryBackoff     = 5 * time.Minute
)

// Store is the durable state the worker loop needs. ClaimPending must be
// atomic at the store level: two concurrent workers never receive the same
// message, and attempts arrives already incremented.
type Store interface {
	ClaimPending(ctx context.Context, queueName string, maxCount int) ([]domain.QueueMessage, error)
	CompleteMessage(ctx context.Context, id int64) error
	DeadLetterMessage(ctx context.Context, id int64, errorMessage string) error
	ReleaseMessage(ctx context.Context, id int64, errorMessage string, delay time.Duration) error
	ReclaimExpired(ctx context.Context, queueName string, lease time.Duration) (released, deadLettered []domain.QueueMessage, err error)

	GetItem(ctx context.Context, itemID string) (*domain.JobItem, error)
	MarkItemProcessing(ctx context.Context, itemID string) error
	ResetItem(ctx context.Context, itemID string) error
	CompleteItem(ctx context.Context, itemID, outputBlobPath string) error
	FailItem(ctx context.Context, itemID, errorMessage string) error

	ListItemStatuses(ctx context.Context, jobID string) ([]string, error)
	UpdateJobStatus(ctx context.Context, jobID, status string) error
}

// Config holds worker configuration
type Config struct {
	Logger       *slog.Logger
	Store        Store
	Blobs        blob.Store
	Processor    processor.Processor
	QueueName    string
	BatchSize    int
	Concurrency  int
	PollInterval time.Duration
	Lease        time.Duration
	RetryBackoff time.Duration
}

// Worker polls the queue, processes claimed items and resolves message
// outcomes. It holds no state across cycles beyond what it reads and writes,
// so any number of worker instances can poll the same queue concurrently.
type Worker struct {
	logger       *slog.Logger
	store        Store
	blobs        blob.Store
	processor    processor.Processor
	queueName    string
	batchSize    int
	concurrency  int
	pollInterval time.Duration
	lease        time.Duration
	retryBackoff time.Duration
	nudge        chan struct{}
}

// CycleResult summarizes one polling cycle
type CycleResult struct {
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
	Total     int `json:"total"`
}

// NewWorker creates a new worker instance
func NewWorker(cfg *Config) *Worker {
	w := &Worker{
		logger:       cfg.Logger,
		store:        cfg.Store,
		blobs:        cfg.Blobs,
		processor:    cfg.Processor,
		queueName:    cfg.QueueName,
		batchSize:    cfg.BatchSize,
		concurrency:  cfg.Concurrency,
		pollInterval: cfg.PollInterval,
		lease:        cfg.Lease,
		retryBackoff: cfg.RetryBackoff,
		nudge:        make(chan struct{}, 1),
	}

	if w.queueName == "" {
		w.queueName = domain.QueueJobs
	}
	if w.batchSize <= 0 {
		w.batchSize = DefaultBatchSize
	}
	if w.concurrency <= 0 {
		w.concurrency = DefaultConcurrency
	}
	if w.pollInterval <= 0 {
		w.pollInterval = DefaultPollInterval
	}
	if w.lease <= 0 {
		w.lease = DefaultLease
	}
	if w.retryBackoff <= 0 {
		w.retryBackoff = DefaultRetryBackoff
	}

	return w
}

// Start runs polling cycles until ctx is canceled. A cycle fires on the poll
// ticker or earlier when Nudge is called.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting worker",
		slog.String("queue", w.queueName),
		slog.Int("batch_size", w.batchSize),
		slog.Duration("poll_interval", w.pollInterval),
		slog.Duration("lease", w.lease),
	)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Worker context canceled, stopping")
			return nil
		case <-w.nudge:
		case <-ticker.C:
		}

		res, err := w.RunCycle(ctx)
		if err != nil {
			w.logger.Error("Worker cycle failed",
				slog.String("error", err.Error()),
			)
			continue
		}

		if res.Total > 0 {
			w.logger.Info("Worker cycle finished",
				slog.Int("processed", res.Processed),
				slog.Int("failed", res.Failed),
				slog.Int("total", res.Total),
			)
		}
	}
}

// Nudge requests an immediate polling cycle. Safe to call from any goroutine;
// a nudge while one is already pending is a no-op.
func (w *Worker) Nudge() {
	select {
	case w.nudge <- struct{}{}:
	default:
	}
}

// RunCycle runs one polling cycle: reclaim expired claims, claim up to
// batchSize pending messages, process the batch and resolve each outcome.
// A single message's failure never aborts the cycle.
func (w *Worker) RunCycle(ctx context.Context) (CycleResult, error) {
	released, deadLettered, err := w.store.ReclaimExpired(ctx, w.queueName, w.lease)
	if err != nil {
		w.logger.Warn("Failed to reclaim expired messages",
			slog.String("error", err.Error()),
		)
	} else {
		w.recoverExpired(ctx, released, deadLettered)
	}

	msgs, err := w.store.ClaimPending(ctx, w.queueName, w.batchSize)
	if err != nil {
		return CycleResult{}, err
	}

	return w.processBatch(ctx, msgs), nil
}

// recoverExpired repairs the items referenced by lease-expired messages. A
// worker that crashed after MarkItemProcessing leaves its item stranded in
// processing, where the idempotency guard would skip it forever. Released
// messages get the item returned to uploaded so the work is redone on
// redelivery; dead-lettered messages terminally fail the item and resolve the
// job, same as the dead-letter path in handleMessage.
func (w *Worker) recoverExpired(ctx context.Context, released, deadLettered []domain.QueueMessage) {
	for i := range released {
		p, err := released[i].JobPayload()
		if err != nil {
			// Undecodable payloads dead-letter on the next claim
			continue
		}
		if err := w.store.ResetItem(ctx, p.ItemID); err != nil {
			w.logger.Error("Failed to reset abandoned item",
				slog.String("item_id", p.ItemID),
				slog.String("error", err.Error()),
			)
		}
	}

	for i := range deadLettered {
		msg := &deadLettered[i]
		p, err := msg.JobPayload()
		if err != nil {
			continue
		}

		item, err := w.store.GetItem(ctx, p.ItemID)
		if err != nil {
			w.logger.Error("Failed to load item for dead-lettered message",
				slog.Int64("message_id", msg.ID),
				slog.String("item_id", p.ItemID),
				slog.String("error", err.Error()),
			)
			continue
		}

		if item.Status == domain.ItemStatusProcessing {
			if err := w.store.FailItem(ctx, p.ItemID, "processing lease expired"); err != nil {
				w.logger.Error("Failed to record item failure",
					slog.String("item_id", p.ItemID),
					slog.String("error", err.Error()),
				)
			}
		}

		w.logger.Warn("Message dead-lettered after lease expiry",
			slog.Int64("message_id", msg.ID),
			slog.String("item_id", p.ItemID),
			slog.Int("attempts", msg.Attempts),
		)
		w.finalizeJob(ctx, p.JobID)
	}
}

// handleMessage processes one claimed message and resolves its outcome.
// Returns true on success.
func (w *Worker) handleMessage(ctx context.Context, msg *domain.QueueMessage) bool {
	jobID, err := w.processOne(ctx, msg)
	if err == nil {
		if markErr := w.store.CompleteMessage(ctx, msg.ID); markErr != nil {
			w.logger.Error("Failed to mark message completed",
				slog.Int64("message_id", msg.ID),
				slog.String("error", markErr.Error()),
			)
		}
		w.finalizeJob(ctx, jobID)
		return true
	}

	w.logger.Error("Message processing failed",
		slog.Int64("message_id", msg.ID),
		slog.String("job_id", jobID),
		slog.Int("attempts", msg.Attempts),
		slog.Int("max_attempts", msg.MaxAttempts),
		slog.String("error", err.Error()),
	)

	terminal := domain.IsTerminal(err) || errors.Is(err, domain.ErrInvalidPayload)
	if terminal || msg.Attempts >= msg.MaxAttempts {
		if markErr := w.store.DeadLetterMessage(ctx, msg.ID, err.Error()); markErr != nil {
			w.logger.Error("Failed to dead-letter message",
				slog.Int64("message_id", msg.ID),
				slog.String("error", markErr.Error()),
			)
		} else {
			w.logger.Warn("Message dead-lettered",
				slog.Int64("message_id", msg.ID),
				slog.Bool("terminal_error", terminal),
			)
		}
		// The item is terminally failed; the job may now be resolvable.
		w.finalizeJob(ctx, jobID)
		return false
	}

	delay := w.backoffFor(msg.Attempts)
	if markErr := w.store.ReleaseMessage(ctx, msg.ID, err.Error(), delay); markErr != nil {
		w.logger.Error("Failed to release message",
			slog.Int64("message_id", msg.ID),
			slog.String("error", markErr.Error()),
		)
	} else {
		w.logger.Info("Message returned to queue",
			slog.Int64("message_id", msg.ID),
			slog.Duration("retry_delay", delay),
		)
	}
	return false
}

// backoffFor computes the retry delay after a failed attempt: the base delay
// doubled per prior attempt, capped at maxRetryBackoff.
func (w *Worker) backoffFor(attempts int) time.Duration {
	delay := w.retryBackoff
	for i := 1; i < attempts; i++ {
		delay *= 2
		if delay >= maxRetryBackoff {
			return maxRetryBackoff
		}
	}
	return delay
}

// finalizeJob recomputes the job's status from its items. Safe to call
// redundantly: the store only writes when the derived status differs.
func (w *Worker) finalizeJob(ctx context.Context, jobID string) {
	if jobID == "" {
		return
	}

	statuses, err := w.store.ListItemStatuses(ctx, jobID)
	if err != nil {
		w.logger.Error("Failed to load item statuses",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		return
	}
	if len(statuses) == 0 {
		return
	}

	status := domain.AggregateJobStatus(statuses)
	if err := w.store.UpdateJobStatus(ctx, jobID, status); err != nil {
		w.logger.Error("Failed to update job status",
			slog.String("job_id", jobID),
			slog.String("status", status),
			slog.String("error", err.Error()),
		)
		return
	}

	w.logger.Debug("Job status aggregated",
		slog.String("job_id", jobID),
		slog.String("status", status),
	)
}
