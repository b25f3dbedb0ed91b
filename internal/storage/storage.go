package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/studioflow/studioflow/internal/domain"
	"github.com/studioflow/studioflow/shared/postgresql"
)

// Storage handles all database operations for jobs, items and the queue
type Storage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStorage creates a new Storage instance
func NewStorage(pg *postgresql.Client, logger *slog.Logger) *Storage {
	return &Storage{
		db:     pg.GetDB(),
		logger: logger,
	}
}

// CreateJobWithItems inserts a job and all of its items in one transaction.
// Partial creation is never observable: if any item insert fails the whole
// transaction rolls back and the operation is reported as a failure.
func (s *Storage) CreateJobWithItems(ctx context.Context, job *domain.Job, items []domain.JobItem) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx, `
		INSERT INTO jobs (id, tenant_id, brand_profile_id, correlation_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
	`, job.ID, job.TenantID, job.BrandProfileID, job.CorrelationID, job.Status)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}

	for i := range items {
		item := &items[i]
		_, err = tx.ExecContext(ctx, `
			INSERT INTO job_items (id, job_id, tenant_id, filename, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		`, item.ID, item.JobID, item.TenantID, item.Filename, item.Status)
		if err != nil {
			return fmt.Errorf("failed to create job item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit job creation: %w", err)
	}

	s.logger.Info("Job created",
		slog.String("job_id", job.ID),
		slog.String("tenant_id", job.TenantID),
		slog.Int("items", len(items)),
	)

	return nil
}

// GetJob retrieves a job scoped to the caller's tenant
func (s *Storage) GetJob(ctx context.Context, tenantID, jobID string) (*domain.Job, error) {
	var job domain.Job
	err := s.db.GetContext(ctx, &job, `
		SELECT id, tenant_id, brand_profile_id, correlation_id, status, created_at, updated_at
		FROM jobs
		WHERE id = $1 AND tenant_id = $2
	`, jobID, tenantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &job, nil
}

// JobFilter narrows a job listing. TenantID is mandatory; jobs are never
// listed across tenants.
type JobFilter struct {
	TenantID string
	Status   string
	PageSize int
	Cursor   *JobCursor
}

// JobCursor is a keyset pagination position: the listing resumes strictly
// before (created_at, id) of the last job on the previous page.
type JobCursor struct {
	CreatedAt time.Time
	JobID     string
}

// ListJobs returns up to PageSize+1 jobs for the tenant, newest first. The
// extra row tells the caller whether another page exists.
func (s *Storage) ListJobs(ctx context.Context, filter JobFilter) ([]domain.Job, error) {
	query := `
		SELECT id, tenant_id, brand_profile_id, correlation_id, status, created_at, updated_at
		FROM jobs
		WHERE tenant_id = $1
	`
	args := []interface{}{filter.TenantID}
	argIdx := 2

	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, filter.Status)
		argIdx++
	}

	if filter.Cursor != nil {
		query += fmt.Sprintf(" AND (created_at, id) < ($%d, $%d)", argIdx, argIdx+1)
		args = append(args, filter.Cursor.CreatedAt, filter.Cursor.JobID)
		argIdx += 2
	}

	// Order by created_at DESC, id DESC for consistent pagination
	query += " ORDER BY created_at DESC, id DESC"

	// Fetch one extra to determine if there are more results
	query += fmt.Sprintf(" LIMIT $%d", argIdx)
	args = append(args, filter.PageSize+1)

	var jobs []domain.Job
	err := s.db.SelectContext(ctx, &jobs, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	return jobs, nil
}

// ListItems returns all items belonging to a job
func (s *Storage) ListItems(ctx context.Context, jobID string) ([]domain.JobItem, error) {
	var items []domain.JobItem
	err := s.db.SelectContext(ctx, &items, `
		SELECT id, job_id, tenant_id, filename, status,
		       raw_blob_path, output_blob_path, error_message, created_at, updated_at
		FROM job_items
		WHERE job_id = $1
		ORDER BY created_at ASC, id ASC
	`, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to list job items: %w", err)
	}
	return items, nil
}

// ListItemStatuses returns only the status column for a job's items,
// the input to the job status aggregation.
func (s *Storage) ListItemStatuses(ctx context.Context, jobID string) ([]string, error) {
	var statuses []string
	err := s.db.SelectContext(ctx, &statuses, `
		SELECT status FROM job_items WHERE job_id = $1
	`, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to list item statuses: %w", err)
	}
	return statuses, nil
}

// GetItem retrieves a single item by id
func (s *Storage) GetItem(ctx context.Context, itemID string) (*domain.JobItem, error) {
	var item domain.JobItem
	err := s.db.GetContext(ctx, &item, `
		SELECT id, job_id, tenant_id, filename, status,
		       raw_blob_path, output_blob_path, error_message, created_at, updated_at
		FROM job_items
		WHERE id = $1
	`, itemID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to get job item: %w", err)
	}
	return &item, nil
}

// GetTenantItem retrieves a single item scoped to the caller's tenant
func (s *Storage) GetTenantItem(ctx context.Context, tenantID, itemID string) (*domain.JobItem, error) {
	item, err := s.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.TenantID != tenantID {
		return nil, domain.ErrItemNotFound
	}
	return item, nil
}

// UpdateJobStatus writes a job's status if it differs from the stored value
func (s *Storage) UpdateJobStatus(ctx context.Context, jobID, status string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE jobs SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status <> $1
	`, status, jobID)
	if err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}
	return nil
}

// MarkItemUploaded records the raw blob path and moves the item to uploaded
func (s *Storage) MarkItemUploaded(ctx context.Context, itemID, rawBlobPath string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE job_items
		SET status = $1, raw_blob_path = $2, updated_at = NOW()
		WHERE id = $3
	`, domain.ItemStatusUploaded, rawBlobPath, itemID)
	if err != nil {
		return fmt.Errorf("failed to mark item uploaded: %w", err)
	}
	return nil
}

// MarkItemProcessing moves the item to processing and clears any error left
// by a previous attempt.
func (s *Storage) MarkItemProcessing(ctx context.Context, itemID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE job_items
		SET status = $1, error_message = '', updated_at = NOW()
		WHERE id = $2
	`, domain.ItemStatusProcessing, itemID)
	if err != nil {
		return fmt.Errorf("failed to mark item processing: %w", err)
	}
	return nil
}

// ResetItem returns an item abandoned in processing back to uploaded so its
// work is redone on redelivery. Any other status is left alone, so an item
// that already finished cannot be reopened.
func (s *Storage) ResetItem(ctx context.Context, itemID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE job_items
		SET status = $1, error_message = '', updated_at = NOW()
		WHERE id = $2 AND status = $3
	`, domain.ItemStatusUploaded, itemID, domain.ItemStatusProcessing)
	if err != nil {
		return fmt.Errorf("failed to reset item: %w", err)
	}
	return nil
}

// CompleteItem records the output blob path and moves the item to completed
func (s *Storage) CompleteItem(ctx context.Context, itemID, outputBlobPath string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE job_items
		SET status = $1, output_blob_path = $2, updated_at = NOW()
		WHERE id = $3
	`, domain.ItemStatusCompleted, outputBlobPath, itemID)
	if err != nil {
		return fmt.Errorf("failed to complete item: %w", err)
	}
	return nil
}

// FailItem records the error message and moves the item to failed
func (s *Storage) FailItem(ctx context.Context, itemID, errorMessage string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE job_items
		SET status = $1, error_message = $2, updated_at = NOW()
		WHERE id = $3
	`, domain.ItemStatusFailed, errorMessage, itemID)
	if err != nil {
		return fmt.Errorf("failed to fail item: %w", err)
	}
	return nil
}
