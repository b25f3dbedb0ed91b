package processor

import "context"

// Input carries one item's raw bytes together with its pipeline context.
type Input struct {
	TenantID      string
	JobID         string
	ItemID        string
	CorrelationID string
	Data          []byte
}

// Processor transforms one item's input bytes into output bytes. It must be
// pure with respect to the item record: all store mutations belong to the
// worker loop, so a real pipeline (background removal, scene synthesis,
// upscaling) can replace the stub without touching retry or state logic.
type Processor interface {
	Process(ctx context.Context, in Input) ([]byte, error)
}

// ProcessError marks a failure inside the transformation itself, as opposed
// to blob transfer or store errors around it.
type ProcessError struct {
	Stage string
	Err   error
}

func (e *ProcessError) Error() string {
	return "processing failed at " + e.Stage + ": " + e.Err.Error()
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

// PassThrough returns the input bytes unchanged. Placeholder until the real
// transformation stages are wired in.
type PassThrough struct{}

func (PassThrough) Process(ctx context.Context, in Input) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &ProcessError{Stage: "passthrough", Err: err}
	}
	return in.Data, nil
}
