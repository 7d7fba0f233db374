package httpapi

import (
	"net/http"
	"time"
)

type driftResponse struct {
	Timestamp   time.Time `json:"timestamp"`
	DriftMetric float64   `json:"drift_metric"`
	Status      string    `json:"status"`
}

func (s *Server) handleDrift(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	assessment, err := s.estimator.Assess(r.Context())
	if err != nil {
		s.logger.Error(r.Context(), "drift assessment failed", "error", err)
		writeError(w, http.StatusInternalServerError, "drift assessment failed", requestID)
		return
	}

	writeJSON(w, http.StatusOK, driftResponse{
		Timestamp:   assessment.ComputedAt,
		DriftMetric: assessment.Score,
		Status:      string(assessment.Status),
	})
}
