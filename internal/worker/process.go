package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/studioflow/studioflow/internal/blob"
	"github.com/studioflow/studioflow/internal/domain"
	"github.com/studioflow/studioflow/internal/processor"
)

// processOne moves a single claimed message's item through
// download -> process -> upload and updates the item's state. It returns the
// job id (for status aggregation) and an error classified for the outcome
// handler: integrity failures and missing items are terminal, everything
// else is retryable.
func (w *Worker) processOne(ctx context.Context, msg *domain.QueueMessage) (string, error) {
	p, err := msg.JobPayload()
	if err != nil {
		return "", err
	}

	log := w.logger.With(
		slog.String("job_id", p.JobID),
		slog.String("item_id", p.ItemID),
		slog.String("correlation_id", p.CorrelationID),
	)

	item, err := w.store.GetItem(ctx, p.ItemID)
	if err != nil {
		return p.JobID, err
	}

	if item.TenantID != p.TenantID {
		// Cross-tenant access is a hard error. The item is left untouched.
		return p.JobID, domain.NewIntegrityError("item %s does not belong to tenant %s", p.ItemID, p.TenantID)
	}

	// Idempotent re-delivery guard: a second message for an item already in
	// flight or finished is a no-op success. This, not locking, is what keeps
	// one item from being processed twice.
	if item.Status == domain.ItemStatusProcessing || item.Status == domain.ItemStatusCompleted {
		log.Info("Item already in progress or completed, skipping",
			slog.String("status", item.Status),
		)
		return p.JobID, nil
	}

	if err := w.store.MarkItemProcessing(ctx, p.ItemID); err != nil {
		return p.JobID, domain.NewRetryableError(err)
	}

	if item.RawBlobPath == "" {
		msg := "missing raw blob path"
		if err := w.store.FailItem(ctx, p.ItemID, msg); err != nil {
			log.Error("Failed to record item failure", slog.String("error", err.Error()))
		}
		return p.JobID, domain.NewIntegrityError("%s", msg)
	}

	log.Info("Processing item", slog.String("raw_blob_path", item.RawBlobPath))

	input, err := w.blobs.Download(ctx, blob.BucketRaw, item.RawBlobPath)
	if err != nil {
		return p.JobID, w.failItem(ctx, log, p.ItemID, "failed to download input file", err)
	}

	output, err := w.processor.Process(ctx, processor.Input{
		TenantID:      p.TenantID,
		JobID:         p.JobID,
		ItemID:        p.ItemID,
		CorrelationID: p.CorrelationID,
		Data:          input,
	})
	if err != nil {
		return p.JobID, w.failItem(ctx, log, p.ItemID, "failed to process item", err)
	}

	outName := domain.NewID("out") + ".png"
	outPath, err := blob.OutputPath(p.TenantID, p.JobID, p.ItemID, outName)
	if err != nil {
		if markErr := w.store.FailItem(ctx, p.ItemID, err.Error()); markErr != nil {
			log.Error("Failed to record item failure", slog.String("error", markErr.Error()))
		}
		return p.JobID, domain.NewIntegrityError("failed to build output path: %v", err)
	}

	if err := w.blobs.Upload(ctx, blob.BucketOutputs, outPath, output, "image/png"); err != nil {
		return p.JobID, w.failItem(ctx, log, p.ItemID, "failed to upload output file", err)
	}

	if err := w.store.CompleteItem(ctx, p.ItemID, outPath); err != nil {
		return p.JobID, domain.NewRetryableError(err)
	}

	log.Info("Item completed", slog.String("output_blob_path", outPath))
	return p.JobID, nil
}

// failItem records a transient failure on the item and wraps the cause as
// retryable for the message-outcome handler.
func (w *Worker) failItem(ctx context.Context, log *slog.Logger, itemID, msg string, cause error) error {
	if err := w.store.FailItem(ctx, itemID, fmt.Sprintf("%s: %v", msg, cause)); err != nil {
		log.Error("Failed to record item failure", slog.String("error", err.Error()))
	}
	return domain.NewRetryableError(fmt.Errorf("%s: %w", msg, cause))
}
