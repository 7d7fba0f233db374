package inference

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aquawatch/aquawatch/internal/common"
	"github.com/aquawatch/aquawatch/internal/logging"
	"github.com/aquawatch/aquawatch/internal/server/blob"
	"github.com/aquawatch/aquawatch/internal/server/config"
	"github.com/aquawatch/aquawatch/internal/server/reports"
)

// Service drives a request through Received -> Validated -> Scored ->
// Persisted -> Responded. Scoring and persistence are intentionally
// decoupled: a computed prediction has value to the caller even when the
// report write fails.
type Service struct {
	model        Model
	reports      *reports.Service
	archive      *blob.Store
	logger       logging.Logger
	labelColumn  string
	scoreTimeout time.Duration
	storeTimeout time.Duration
}

func NewService(model Model, rs *reports.Service, archive *blob.Store, logger logging.Logger, cfg *config.Config) *Service {
	return &Service{
		model:        model,
		reports:      rs,
		archive:      archive,
		logger:       logger.With("module", "inference"),
		labelColumn:  cfg.LabelColumn,
		scoreTimeout: cfg.ScoreTimeout,
		storeTimeout: cfg.StoreTimeout,
	}
}

// PredictResult is the response to one successful prediction call.
// Persisted is false when the report write failed; the predictions are
// still returned.
type PredictResult struct {
	Predictions []int
	NumSamples  int
	ReportID    string
	Persisted   bool
}

// Predict validates the upload, scores it, and persists one report owned
// by the caller. Validation failures carry their stage's sentinel;
// scoring failure (including timeout) surfaces as common.ErrScoringFailed
// wrapping the cause and is never retried.
func (s *Service) Predict(ctx context.Context, owner, sourceName string, r io.Reader) (*PredictResult, error) {

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrUnsupportedFormat, err)
	}

	frame, err := ParseSamples(bytes.NewReader(data), s.labelColumn)
	if err != nil {
		return nil, err
	}

	predictions, err := s.score(ctx, frame)
	if err != nil {
		return nil, err
	}

	result := &PredictResult{
		Predictions: predictions,
		NumSamples:  len(predictions),
	}

	storageKey := s.archiveUpload(ctx, data)

	report := &reports.Report{
		Owner:       owner,
		SourceName:  sourceName,
		Predictions: predictions,
		SampleCount: len(predictions),
		StorageKey:  storageKey,
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	created, err := s.reports.Create(storeCtx, report)
	if err != nil {
		// Do not conflate "could not predict" with "could not save
		// history": the caller still gets the predictions.
		s.logger.Error(ctx, "failed to persist report",
			"owner", owner, "source", sourceName, "error", err)
		return result, nil
	}

	result.ReportID = created.ID
	result.Persisted = true
	return result, nil
}

// Explain runs the identical validation pipeline but invokes the
// attribution capability; nothing is persisted.
func (s *Service) Explain(ctx context.Context, r io.Reader) ([][]float64, error) {

	frame, err := ParseSamples(r, s.labelColumn)
	if err != nil {
		return nil, err
	}

	scoreCtx, cancel := context.WithTimeout(ctx, s.scoreTimeout)
	defer cancel()

	attributions, err := s.model.Explain(scoreCtx, frame)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrScoringFailed, err)
	}

	return attributions, nil
}

func (s *Service) score(ctx context.Context, frame *Frame) ([]int, error) {
	scoreCtx, cancel := context.WithTimeout(ctx, s.scoreTimeout)
	defer cancel()

	predictions, err := s.model.Predict(scoreCtx, frame)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrScoringFailed, err)
	}
	return predictions, nil
}

func (s *Service) archiveUpload(ctx context.Context, data []byte) string {
	if s.archive == nil || !s.archive.Enabled() {
		return ""
	}

	key, err := s.archive.Archive(ctx, data)
	if err != nil {
		s.logger.Warn(ctx, "failed to archive upload", "error", err)
		return ""
	}
	return key
}
