package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/studioflow/studioflow/internal/domain"
)

// EnqueueMessages inserts queue messages as pending work. Returns the number
// of messages enqueued.
func (s *Storage) EnqueueMessages(ctx context.Context, msgs []domain.QueueMessage) (int, error) {
	if len(msgs) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for i := range msgs {
		m := &msgs[i]
		_, err = tx.ExecContext(ctx, `
			INSERT INTO job_queue (queue_name, payload, status, attempts, max_attempts, last_error, available_at, created_at)
			VALUES ($1, $2, $3, $4, $5, '', NOW(), NOW())
		`, m.QueueName, m.Payload, m.Status, m.Attempts, m.MaxAttempts)
		if err != nil {
			return 0, fmt.Errorf("failed to enqueue message: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit enqueue: %w", err)
	}

	s.logger.Info("Messages enqueued",
		slog.String("queue", msgs[0].QueueName),
		slog.Int("count", len(msgs)),
	)

	return len(msgs), nil
}

// ClaimPending atomically claims up to maxCount pending messages for this
// worker. FOR UPDATE SKIP LOCKED makes the claim race-free across concurrent
// workers: a message is only ever claimed by one of them, and losers move on
// instead of blocking. Attempts is incremented here, as part of the claim.
func (s *Storage) ClaimPending(ctx context.Context, queueName string, maxCount int) ([]domain.QueueMessage, error) {
	var msgs []domain.QueueMessage
	err := s.db.SelectContext(ctx, &msgs, `
		UPDATE job_queue
		SET status = $1,
		    attempts = attempts + 1,
		    claimed_at = NOW()
		WHERE id IN (
			SELECT id
			FROM job_queue
			WHERE queue_name = $2
			  AND status = $3
			  AND available_at <= NOW()
			  AND attempts < max_attempts
			ORDER BY created_at ASC
			LIMIT $4
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, queue_name, payload, status, attempts, max_attempts,
		          last_error, available_at, claimed_at, processed_at, created_at
	`, domain.MessageStatusProcessing, queueName, domain.MessageStatusPending, maxCount)
	if err != nil {
		return nil, fmt.Errorf("failed to claim pending messages: %w", err)
	}

	if len(msgs) > 0 {
		s.logger.Debug("Messages claimed",
			slog.String("queue", queueName),
			slog.Int("count", len(msgs)),
		)
	}

	return msgs, nil
}

// CompleteMessage marks a message as terminally completed
func (s *Storage) CompleteMessage(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE job_queue
		SET status = $1, processed_at = NOW()
		WHERE id = $2
	`, domain.MessageStatusCompleted, id)
	if err != nil {
		return fmt.Errorf("failed to complete message: %w", err)
	}
	return nil
}

// DeadLetterMessage marks a message as terminally failed with the last error
// recorded for operator visibility.
func (s *Storage) DeadLetterMessage(ctx context.Context, id int64, errorMessage string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE job_queue
		SET status = $1, last_error = $2, processed_at = NOW()
		WHERE id = $3
	`, domain.MessageStatusFailed, errorMessage, id)
	if err != nil {
		return fmt.Errorf("failed to dead-letter message: %w", err)
	}
	return nil
}

// ReleaseMessage returns a failed message to pending so it can be reclaimed
// after the given delay. Attempts stays incremented.
func (s *Storage) ReleaseMessage(ctx context.Context, id int64, errorMessage string, delay time.Duration) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE job_queue
		SET status = $1, last_error = $2, claimed_at = NULL,
		    available_at = NOW() + ($3 * interval '1 second')
		WHERE id = $4
	`, domain.MessageStatusPending, errorMessage, int64(delay.Seconds()), id)
	if err != nil {
		return fmt.Errorf("failed to release message: %w", err)
	}
	return nil
}

// ReclaimExpired returns messages stuck in processing longer than the lease
// back to pending. A claimed message whose worker crashed mid-item has no
// other path back into circulation. Expired messages with no attempts left
// are dead-lettered instead of released, so they cannot sit pending forever.
// Both groups are returned so the caller can repair the items they reference:
// a crashed worker may have left an item stranded in processing.
func (s *Storage) ReclaimExpired(ctx context.Context, queueName string, lease time.Duration) (released, deadLettered []domain.QueueMessage, err error) {
	err = s.db.SelectContext(ctx, &deadLettered, `
		UPDATE job_queue
		SET status = $1, last_error = 'processing lease expired', processed_at = NOW()
		WHERE id IN (
			SELECT id
			FROM job_queue
			WHERE queue_name = $2
			  AND status = $3
			  AND claimed_at < NOW() - ($4 * interval '1 second')
			  AND attempts >= max_attempts
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, queue_name, payload, status, attempts, max_attempts,
		          last_error, available_at, claimed_at, processed_at, created_at
	`, domain.MessageStatusFailed, queueName, domain.MessageStatusProcessing, int64(lease.Seconds()))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to dead-letter expired messages: %w", err)
	}

	err = s.db.SelectContext(ctx, &released, `
		UPDATE job_queue
		SET status = $1, claimed_at = NULL, available_at = NOW()
		WHERE id IN (
			SELECT id
			FROM job_queue
			WHERE queue_name = $2
			  AND status = $3
			  AND claimed_at < NOW() - ($4 * interval '1 second')
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, queue_name, payload, status, attempts, max_attempts,
		          last_error, available_at, claimed_at, processed_at, created_at
	`, domain.MessageStatusPending, queueName, domain.MessageStatusProcessing, int64(lease.Seconds()))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to reclaim expired messages: %w", err)
	}

	if len(released)+len(deadLettered) > 0 {
		s.logger.Warn("Reclaimed expired messages",
			slog.String("queue", queueName),
			slog.Int("released", len(released)),
			slog.Int("dead_lettered", len(deadLettered)),
		)
	}

	return released, deadLettered, nil
}
