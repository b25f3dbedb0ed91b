package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrJobNotFound is returned when a job does not exist for the caller's tenant
	ErrJobNotFound = errors.New("job not found")

	// ErrItemNotFound is returned when a job item does not exist for the caller's tenant
	ErrItemNotFound = errors.New("job item not found")

	// ErrInvalidPayload is returned when a queue message payload is malformed
	ErrInvalidPayload = errors.New("invalid queue message payload")
)

// ValidationError marks bad input shape or size. Surfaced to the caller as a
// 4xx response and never retried.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// NewValidationError creates a new validation error
func NewValidationError(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IntegrityError marks a data-integrity failure (e.g. an item with no raw
// blob path). The item fails immediately and the message is never retried.
type IntegrityError struct {
	Msg string
}

func (e *IntegrityError) Error() string {
	return e.Msg
}

// NewIntegrityError creates a new integrity error
func NewIntegrityError(format string, args ...any) error {
	return &IntegrityError{Msg: fmt.Sprintf(format, args...)}
}

// RetryableError wraps transient errors that should trigger a requeue
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return "retryable error: " + e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// NewRetryableError creates a new retryable error
func NewRetryableError(err error) error {
	return &RetryableError{Err: err}
}

// IsTerminal reports whether a processing error must not be retried:
// a missing item or an integrity failure stays failed no matter how many
// attempts remain. Everything else is treated as transient.
func IsTerminal(err error) bool {
	if errors.Is(err, ErrItemNotFound) {
		return true
	}
	var ie *IntegrityError
	return errors.As(err, &ie)
}
