// Package drift produces on-demand drift assessments for the served
// model's input distribution. The scoring function is pluggable: the
// default draws a uniform placeholder value, and a real distributional
// statistic over buffered telemetry can be substituted without changing
// the endpoint contract.
package drift

import (
	"context"
	"math/rand/v2"
	"time"
)

// DefaultThreshold is the score above which an assessment reports drift.
const DefaultThreshold = 0.8

type Status string

const (
	StatusNoDrift  Status = "No Drift"
	StatusDetected Status = "Drift Detected"
)

// Assessment is computed fresh on every request and never persisted.
type Assessment struct {
	ComputedAt time.Time
	Score      float64
	Status     Status
}

// Scorer computes a drift score in [0,1].
type Scorer interface {
	Score(ctx context.Context) (float64, error)
}

// RandomScorer is the placeholder scorer: a uniform draw with no input
// dependency.
type RandomScorer struct{}

func (RandomScorer) Score(ctx context.Context) (float64, error) {
	return rand.Float64(), nil
}

type Estimator struct {
	scorer    Scorer
	threshold float64
}

func NewEstimator(scorer Scorer, threshold float64) *Estimator {
	return &Estimator{scorer: scorer, threshold: threshold}
}

// Assess computes a fresh drift score and labels it against the
// configured threshold: detected iff score > threshold.
func (e *Estimator) Assess(ctx context.Context) (*Assessment, error) {
	score, err := e.scorer.Score(ctx)
	if err != nil {
		return nil, err
	}

	status := StatusNoDrift
	if score > e.threshold {
		status = StatusDetected
	}

	return &Assessment{
		ComputedAt: time.Now(),
		Score:      score,
		Status:     status,
	}, nil
}
