package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAggregateJobStatus(t *testing.T) {
	tests := []struct {
		name     string
		statuses []string
		expected string
	}{
		{
			name:     "no items stays processing",
			statuses: nil,
			expected: JobStatusProcessing,
		},
		{
			name:     "all completed",
			statuses: []string{ItemStatusCompleted, ItemStatusCompleted},
			expected: JobStatusCompleted,
		},
		{
			name:     "single completed item",
			statuses: []string{ItemStatusCompleted},
			expected: JobStatusCompleted,
		},
		{
			name:     "all failed",
			statuses: []string{ItemStatusFailed, ItemStatusFailed, ItemStatusFailed},
			expected: JobStatusFailed,
		},
		{
			name:     "mixed terminal outcome is partial",
			statuses: []string{ItemStatusCompleted, ItemStatusFailed},
			expected: JobStatusPartial,
		},
		{
			name:     "one item still processing",
			statuses: []string{ItemStatusCompleted, ItemStatusProcessing},
			expected: JobStatusProcessing,
		},
		{
			name:     "one item not yet enqueued",
			statuses: []string{ItemStatusFailed, ItemStatusCreated},
			expected: JobStatusProcessing,
		},
		{
			name:     "uploaded counts as in flight",
			statuses: []string{ItemStatusUploaded, ItemStatusCompleted},
			expected: JobStatusProcessing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, AggregateJobStatus(tt.statuses))
		})
	}
}

func TestIsTerminalItemStatus(t *testing.T) {
	assert.True(t, IsTerminalItemStatus(ItemStatusCompleted))
	assert.True(t, IsTerminalItemStatus(ItemStatusFailed))
	assert.False(t, IsTerminalItemStatus(ItemStatusCreated))
	assert.False(t, IsTerminalItemStatus(ItemStatusUploaded))
	assert.False(t, IsTerminalItemStatus(ItemStatusProcessing))
}
