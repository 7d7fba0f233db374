// Package model provides the default in-process prediction capability.
// It is a deterministic stand-in for the trained artifact the service
// consumes as an opaque dependency; swapping in a real model only
// requires another inference.Model implementation.
package model

import (
	"context"
	"fmt"
	"math"

	"github.com/aquawatch/aquawatch/internal/server/inference"
)

// Threshold labels a sample potable when its feature mean clears the
// cutoff. ExpectedFeatures, when positive, enforces the feature shape
// the capability was "trained" on; a mismatch is a scoring failure.
type Threshold struct {
	Cutoff           float64
	ExpectedFeatures int
}

func NewThreshold(cutoff float64, expectedFeatures int) *Threshold {
	return &Threshold{Cutoff: cutoff, ExpectedFeatures: expectedFeatures}
}

func (m *Threshold) checkShape(frame *inference.Frame) error {
	if m.ExpectedFeatures > 0 && frame.NumFeatures() != m.ExpectedFeatures {
		return fmt.Errorf("feature shape mismatch: got %d columns, expected %d",
			frame.NumFeatures(), m.ExpectedFeatures)
	}
	return nil
}

func (m *Threshold) Predict(ctx context.Context, frame *inference.Frame) ([]int, error) {
	if err := m.checkShape(frame); err != nil {
		return nil, err
	}

	labels := make([]int, frame.NumSamples())
	for i, row := range frame.Rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var sum float64
		for _, v := range row {
			sum += v
		}
		if sum/float64(len(row)) > m.Cutoff {
			labels[i] = 1
		}
	}

	return labels, nil
}

// Explain attributes each feature its normalized magnitude share within
// the sample, so attributions per row sum to 1.
func (m *Threshold) Explain(ctx context.Context, frame *inference.Frame) ([][]float64, error) {
	if err := m.checkShape(frame); err != nil {
		return nil, err
	}

	attributions := make([][]float64, frame.NumSamples())
	for i, row := range frame.Rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var total float64
		for _, v := range row {
			total += math.Abs(v)
		}

		scores := make([]float64, len(row))
		if total == 0 {
			for j := range scores {
				scores[j] = 1 / float64(len(row))
			}
		} else {
			for j, v := range row {
				scores[j] = math.Abs(v) / total
			}
		}
		attributions[i] = scores
	}

	return attributions, nil
}
