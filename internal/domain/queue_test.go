package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueMessage_JobPayload(t *testing.T) {
	valid, err := EncodeJobPayload(JobPayload{
		TenantID:      "tenant_a",
		JobID:         "job_1",
		ItemID:        "item_1",
		CorrelationID: "corr_1",
	})
	require.NoError(t, err)

	tests := []struct {
		name    string
		msg     QueueMessage
		wantErr bool
	}{
		{
			name: "valid payload",
			msg:  QueueMessage{QueueName: QueueJobs, Payload: valid},
		},
		{
			name:    "wrong queue name",
			msg:     QueueMessage{QueueName: "emails", Payload: valid},
			wantErr: true,
		},
		{
			name:    "malformed json",
			msg:     QueueMessage{QueueName: QueueJobs, Payload: []byte("{not json")},
			wantErr: true,
		},
		{
			name:    "missing item id",
			msg:     QueueMessage{QueueName: QueueJobs, Payload: []byte(`{"tenant_id":"t","job_id":"j"}`)},
			wantErr: true,
		},
		{
			name:    "missing tenant id",
			msg:     QueueMessage{QueueName: QueueJobs, Payload: []byte(`{"job_id":"j","item_id":"i"}`)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := tt.msg.JobPayload()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidPayload)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "tenant_a", p.TenantID)
			assert.Equal(t, "job_1", p.JobID)
			assert.Equal(t, "item_1", p.ItemID)
			assert.Equal(t, "corr_1", p.CorrelationID)
		})
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(ErrItemNotFound))
	assert.True(t, IsTerminal(NewIntegrityError("tenant mismatch")))
	assert.False(t, IsTerminal(NewRetryableError(assert.AnError)))
	assert.False(t, IsTerminal(assert.AnError))
	assert.False(t, IsTerminal(ErrJobNotFound))
}

func TestNewID(t *testing.T) {
	id := NewID("job")
	assert.Regexp(t, `^job_[0-9a-f]{32}$`, id)
	assert.NotEqual(t, id, NewID("job"))
}
