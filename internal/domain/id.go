package domain

import (
	"strings"

	"github.com/google/uuid"
)

// NewID generates a fresh prefixed identifier, e.g. job_3f2a..., item_9c41...
func NewID(prefix string) string {
	return prefix + "_" + strings.ReplaceAll(uuid.New().String(), "-", "")
}

// NewCorrelationID generates an opaque correlation id for request tracing.
func NewCorrelationID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}
