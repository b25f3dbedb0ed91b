package worker

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/studioflow/studioflow/internal/domain"
)

// processBatch fans a claimed batch out to a pool of goroutines. Each message
// was claimed exactly once, so the goroutines never contend on queue rows;
// concurrent finalizeJob calls for the same job are safe because the job
// status is always recomputed from the item rows.
func (w *Worker) processBatch(ctx context.Context, msgs []domain.QueueMessage) CycleResult {
	if len(msgs) == 0 {
		return CycleResult{}
	}

	workers := w.concurrency
	if workers > len(msgs) {
		workers = len(msgs)
	}

	if workers <= 1 {
		res := CycleResult{Total: len(msgs)}
		for i := range msgs {
			if w.handleMessage(ctx, &msgs[i]) {
				res.Processed++
			} else {
				res.Failed++
			}
		}
		return res
	}

	w.logger.Debug("Processing batch",
		slog.Int("messages", len(msgs)),
		slog.Int("workers", workers),
	)

	jobs := make(chan *domain.QueueMessage)
	var processed, failed atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for msg := range jobs {
				if w.handleMessage(ctx, msg) {
					processed.Add(1)
				} else {
					failed.Add(1)
				}
			}
		}()
	}

	for i := range msgs {
		jobs <- &msgs[i]
	}
	close(jobs)
	wg.Wait()

	return CycleResult{
		Processed: int(processed.Load()),
		Failed:    int(failed.Load()),
		Total:     len(msgs),
	}
}
