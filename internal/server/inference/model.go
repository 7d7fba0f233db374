package inference

import "context"

// Model is the opaque trained capability the gateway scores against.
// Training, serialization, and algorithm live outside this service.
type Model interface {
	// Predict returns one label per sample row.
	Predict(ctx context.Context, frame *Frame) ([]int, error)

	// Explain returns per-feature attribution scores, one slice per
	// sample row, aligned with frame.Columns.
	Explain(ctx context.Context, frame *Frame) ([][]float64, error)
}
