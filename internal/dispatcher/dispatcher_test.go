package dispatcher

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studioflow/studioflow/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeStore struct {
	jobs      map[string]*domain.Job
	items     map[string][]domain.JobItem
	enqueued  []domain.QueueMessage
	statusSet map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		jobs:      make(map[string]*domain.Job),
		items:     make(map[string][]domain.JobItem),
		statusSet: make(map[string]string),
	}
}

func (f *fakeStore) CreateJobWithItems(ctx context.Context, job *domain.Job, items []domain.JobItem) error {
	f.jobs[job.ID] = job
	f.items[job.ID] = items
	return nil
}

func (f *fakeStore) GetJob(ctx context.Context, tenantID, jobID string) (*domain.Job, error) {
	job, ok := f.jobs[jobID]
	if !ok || job.TenantID != tenantID {
		return nil, domain.ErrJobNotFound
	}
	return job, nil
}

func (f *fakeStore) ListItems(ctx context.Context, jobID string) ([]domain.JobItem, error) {
	return f.items[jobID], nil
}

func (f *fakeStore) EnqueueMessages(ctx context.Context, msgs []domain.QueueMessage) (int, error) {
	f.enqueued = append(f.enqueued, msgs...)
	return len(msgs), nil
}

func (f *fakeStore) UpdateJobStatus(ctx context.Context, jobID, status string) error {
	f.statusSet[jobID] = status
	if job, ok := f.jobs[jobID]; ok {
		job.Status = status
	}
	return nil
}

type fakeNotifier struct {
	published [][]byte
}

func (f *fakeNotifier) PublishWithRetry(ctx context.Context, body []byte, contentType string) error {
	f.published = append(f.published, body)
	return nil
}

func TestCreateJob_Validation(t *testing.T) {
	store := newFakeStore()
	d := NewDispatcher(store, nil, testLogger())

	tooMany := make([]ItemInput, MaxItemsPerJob+1)
	for i := range tooMany {
		tooMany[i].Filename = "a.png"
	}

	tests := []struct {
		name   string
		inputs []ItemInput
	}{
		{name: "no items", inputs: nil},
		{name: "empty items", inputs: []ItemInput{}},
		{name: "too many items", inputs: tooMany},
		{name: "item without filename", inputs: []ItemInput{{Filename: "a.png"}, {Filename: ""}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := d.CreateJob(context.Background(), "tenant_a", "", tt.inputs)
			require.Error(t, err)
			assert.True(t, domain.IsValidation(err))
			assert.Empty(t, store.jobs, "nothing must be persisted on validation failure")
		})
	}
}

func TestCreateJob_Success(t *testing.T) {
	store := newFakeStore()
	d := NewDispatcher(store, nil, testLogger())

	inputs := []ItemInput{{Filename: "a.png"}, {Filename: "b.png"}, {Filename: "a.png"}}
	job, items, err := d.CreateJob(context.Background(), "tenant_a", "", inputs)
	require.NoError(t, err)

	assert.Equal(t, "tenant_a", job.TenantID)
	assert.Equal(t, DefaultBrandProfileID, job.BrandProfileID)
	assert.Equal(t, domain.JobStatusCreated, job.Status)
	assert.NotEmpty(t, job.CorrelationID)

	require.Len(t, items, 3)
	seen := make(map[string]bool)
	for i, item := range items {
		assert.Equal(t, job.ID, item.JobID)
		assert.Equal(t, "tenant_a", item.TenantID)
		assert.Equal(t, inputs[i].Filename, item.Filename)
		assert.Equal(t, domain.ItemStatusCreated, item.Status)
		assert.False(t, seen[item.ID], "item ids must be unique even for duplicate filenames")
		seen[item.ID] = true
	}

	assert.Contains(t, store.jobs, job.ID)
}

func TestCreateJob_MaxBatchAccepted(t *testing.T) {
	store := newFakeStore()
	d := NewDispatcher(store, nil, testLogger())

	inputs := make([]ItemInput, MaxItemsPerJob)
	for i := range inputs {
		inputs[i].Filename = "f.png"
	}

	_, items, err := d.CreateJob(context.Background(), "tenant_a", "brand_x", inputs)
	require.NoError(t, err)
	assert.Len(t, items, MaxItemsPerJob)
}

func TestEnqueue_JobNotFound(t *testing.T) {
	d := NewDispatcher(newFakeStore(), nil, testLogger())

	_, err := d.Enqueue(context.Background(), "tenant_a", "job_missing")
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
}

func TestEnqueue_TenantScoping(t *testing.T) {
	store := newFakeStore()
	d := NewDispatcher(store, nil, testLogger())

	job, _, err := d.CreateJob(context.Background(), "tenant_a", "", []ItemInput{{Filename: "a.png"}})
	require.NoError(t, err)

	_, err = d.Enqueue(context.Background(), "tenant_b", job.ID)
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
}

func TestEnqueue_OnlyPendingItems(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{}
	d := NewDispatcher(store, notifier, testLogger())

	job := &domain.Job{ID: "job_1", TenantID: "tenant_a", CorrelationID: "corr_1", Status: domain.JobStatusProcessing}
	store.jobs[job.ID] = job
	store.items[job.ID] = []domain.JobItem{
		{ID: "item_1", JobID: job.ID, Status: domain.ItemStatusCreated},
		{ID: "item_2", JobID: job.ID, Status: domain.ItemStatusUploaded},
		{ID: "item_3", JobID: job.ID, Status: domain.ItemStatusProcessing},
		{ID: "item_4", JobID: job.ID, Status: domain.ItemStatusCompleted},
		{ID: "item_5", JobID: job.ID, Status: domain.ItemStatusFailed},
	}

	enqueued, err := d.Enqueue(context.Background(), "tenant_a", job.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, enqueued)
	require.Len(t, store.enqueued, 2)

	for _, msg := range store.enqueued {
		assert.Equal(t, domain.QueueJobs, msg.QueueName)
		assert.Equal(t, domain.MessageStatusPending, msg.Status)
		assert.Equal(t, domain.DefaultMaxAttempts, msg.MaxAttempts)

		p, err := msg.JobPayload()
		require.NoError(t, err)
		assert.Equal(t, "tenant_a", p.TenantID)
		assert.Equal(t, job.ID, p.JobID)
		assert.Equal(t, "corr_1", p.CorrelationID)
	}

	assert.Equal(t, domain.JobStatusProcessing, store.statusSet[job.ID])
	assert.Len(t, notifier.published, 1)
}

func TestEnqueue_NothingPendingDoesNotRegressStatus(t *testing.T) {
	store := newFakeStore()
	notifier := &fakeNotifier{}
	d := NewDispatcher(store, notifier, testLogger())

	job := &domain.Job{ID: "job_1", TenantID: "tenant_a", CorrelationID: "corr_1", Status: domain.JobStatusCompleted}
	store.jobs[job.ID] = job
	store.items[job.ID] = []domain.JobItem{
		{ID: "item_1", JobID: job.ID, Status: domain.ItemStatusCompleted},
	}

	enqueued, err := d.Enqueue(context.Background(), "tenant_a", job.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, enqueued)
	assert.Empty(t, store.enqueued)
	assert.NotContains(t, store.statusSet, job.ID, "a finished job must keep its status")
	assert.Empty(t, notifier.published)
}
