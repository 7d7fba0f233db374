package inference

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/aquawatch/aquawatch/internal/common"
	"github.com/aquawatch/aquawatch/internal/logging"
	"github.com/aquawatch/aquawatch/internal/server/config"
	"github.com/aquawatch/aquawatch/internal/server/reports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

type fakeModel struct {
	predictErr error
	explainErr error
	slow       time.Duration
}

func (m *fakeModel) Predict(ctx context.Context, frame *Frame) ([]int, error) {
	if m.slow > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.slow):
		}
	}
	if m.predictErr != nil {
		return nil, m.predictErr
	}
	out := make([]int, frame.NumSamples())
	for i := range out {
		out[i] = 1
	}
	return out, nil
}

func (m *fakeModel) Explain(ctx context.Context, frame *Frame) ([][]float64, error) {
	if m.explainErr != nil {
		return nil, m.explainErr
	}
	out := make([][]float64, frame.NumSamples())
	for i := range out {
		out[i] = make([]float64, frame.NumFeatures())
	}
	return out, nil
}

type fakeReportRepo struct {
	created   []*reports.Report
	createErr error
}

func (f *fakeReportRepo) Create(ctx context.Context, r *reports.Report) (*reports.Report, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	r.ID = "report-1"
	r.CreatedAt = time.Now()
	f.created = append(f.created, r)
	return r, nil
}

func (f *fakeReportRepo) ListByOwner(ctx context.Context, owner string) ([]*reports.Report, error) {
	return f.created, nil
}

func (f *fakeReportRepo) GetByOwnerAndID(ctx context.Context, owner, id string) (*reports.Report, error) {
	return nil, common.ErrNotFound
}

func newTestService(model Model, repo reports.Repository) *Service {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	logger := logging.NewSlogLogger(slog.New(slog.DiscardHandler))
	return NewService(model, reports.NewService(repo), nil, logger, cfg)
}

const validCSV = "ph,turbidity,Potability\n7.0,3.1,1\n6.5,4.0,0\n5.9,2.2,1\n"

// --- tests ---

func TestPredict_Success(t *testing.T) {
	repo := &fakeReportRepo{}
	s := newTestService(&fakeModel{}, repo)

	res, err := s.Predict(context.Background(), "alice", "samples.csv", strings.NewReader(validCSV))
	require.NoError(t, err)

	assert.Equal(t, 3, res.NumSamples)
	assert.Len(t, res.Predictions, 3)
	assert.True(t, res.Persisted)
	assert.Equal(t, "report-1", res.ReportID)

	require.Len(t, repo.created, 1)
	assert.Equal(t, "alice", repo.created[0].Owner)
	assert.Equal(t, "samples.csv", repo.created[0].SourceName)
	assert.Equal(t, 3, repo.created[0].SampleCount)
}

func TestPredict_EmptyInput(t *testing.T) {
	s := newTestService(&fakeModel{}, &fakeReportRepo{})

	_, err := s.Predict(context.Background(), "alice", "empty.csv", strings.NewReader("ph,turbidity\n"))
	assert.ErrorIs(t, err, common.ErrEmptyInput)
}

func TestPredict_ScoringFailed(t *testing.T) {
	cause := errors.New("feature shape mismatch")
	repo := &fakeReportRepo{}
	s := newTestService(&fakeModel{predictErr: cause}, repo)

	_, err := s.Predict(context.Background(), "alice", "samples.csv", strings.NewReader(validCSV))
	assert.ErrorIs(t, err, common.ErrScoringFailed)
	assert.ErrorIs(t, err, cause)
	assert.Empty(t, repo.created, "no report on scoring failure")
}

func TestPredict_ScoringTimeout(t *testing.T) {
	repo := &fakeReportRepo{}
	s := newTestService(&fakeModel{slow: time.Second}, repo)
	s.scoreTimeout = 10 * time.Millisecond

	_, err := s.Predict(context.Background(), "alice", "samples.csv", strings.NewReader(validCSV))
	assert.ErrorIs(t, err, common.ErrScoringFailed)
}

func TestPredict_PersistenceFailureStillResponds(t *testing.T) {
	repo := &fakeReportRepo{createErr: errors.New("store down")}
	s := newTestService(&fakeModel{}, repo)

	res, err := s.Predict(context.Background(), "alice", "samples.csv", strings.NewReader(validCSV))
	require.NoError(t, err, "persistence failure must not discard the predictions")

	assert.Len(t, res.Predictions, 3)
	assert.False(t, res.Persisted)
	assert.Empty(t, res.ReportID)
}

func TestExplain_Success(t *testing.T) {
	s := newTestService(&fakeModel{}, &fakeReportRepo{})

	attributions, err := s.Explain(context.Background(), strings.NewReader(validCSV))
	require.NoError(t, err)

	require.Len(t, attributions, 3)
	assert.Len(t, attributions[0], 2, "one attribution per feature column")
}

func TestExplain_ValidationApplies(t *testing.T) {
	s := newTestService(&fakeModel{}, &fakeReportRepo{})

	_, err := s.Explain(context.Background(), strings.NewReader("Potability\n1\n"))
	assert.ErrorIs(t, err, common.ErrNoFeatures)
}

func TestExplain_ScoringFailed(t *testing.T) {
	s := newTestService(&fakeModel{explainErr: errors.New("boom")}, &fakeReportRepo{})

	_, err := s.Explain(context.Background(), strings.NewReader(validCSV))
	assert.ErrorIs(t, err, common.ErrScoringFailed)
}
