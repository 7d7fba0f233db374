package httpapi

import (
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/aquawatch/aquawatch/internal/server/reports"
)

// maxUploadBytes caps a tabular upload; a sample batch is small.
const maxUploadBytes = 32 << 20

type predictResponse struct {
	Message     string `json:"message"`
	Predictions []int  `json:"predictions"`
	NumSamples  int    `json:"num_samples"`
	ReportID    string `json:"report_id,omitempty"`
	Persisted   bool   `json:"persisted"`
}

type explainResponse struct {
	Message      string      `json:"message"`
	Explanations [][]float64 `json:"explanations"`
}

// reportView is the public report shape. The storage id is exposed only
// on single fetch, never in listings.
type reportView struct {
	ID          string    `json:"id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	SourceName  string    `json:"source_name"`
	Predictions []int     `json:"predictions"`
	SampleCount int       `json:"sample_count"`
}

type listReportsResponse struct {
	Message      string       `json:"message"`
	Reports      []reportView `json:"reports"`
	TotalReports int          `json:"total_reports"`
}

type getReportResponse struct {
	Message string     `json:"message"`
	Report  reportView `json:"report"`
}

func toView(r *reports.Report, includeID bool) reportView {
	v := reportView{
		CreatedAt:   r.CreatedAt,
		SourceName:  r.SourceName,
		Predictions: r.Predictions,
		SampleCount: r.SampleCount,
	}
	if includeID {
		v.ID = r.ID
	}
	return v
}

// openUpload extracts the tabular file from the multipart form. Only the
// CSV encoding is supported.
func (s *Server) openUpload(w http.ResponseWriter, r *http.Request) (multipart.File, string, bool) {
	requestID := GetRequestID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file upload is required", requestID)
		return nil, "", false
	}

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".csv") {
		file.Close()
		writeError(w, http.StatusBadRequest, "only CSV files are supported", requestID)
		return nil, "", false
	}

	return file, header.Filename, true
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())
	owner := usernameFromContext(r.Context())

	file, filename, ok := s.openUpload(w, r)
	if !ok {
		return
	}
	defer file.Close()

	result, err := s.inference.Predict(r.Context(), owner, filename, file)
	if err != nil {
		status, detail := statusForError(err)
		if status == http.StatusInternalServerError {
			s.logger.Error(r.Context(), "prediction failed", "owner", owner, "error", err)
		}
		writeError(w, status, detail, requestID)
		return
	}

	writeJSON(w, http.StatusOK, predictResponse{
		Message:     "Prediction complete",
		Predictions: result.Predictions,
		NumSamples:  result.NumSamples,
		ReportID:    result.ReportID,
		Persisted:   result.Persisted,
	})
}

func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())
	owner := usernameFromContext(r.Context())

	file, _, ok := s.openUpload(w, r)
	if !ok {
		return
	}
	defer file.Close()

	explanations, err := s.inference.Explain(r.Context(), file)
	if err != nil {
		status, detail := statusForError(err)
		if status == http.StatusInternalServerError {
			s.logger.Error(r.Context(), "explanation failed", "owner", owner, "error", err)
		}
		writeError(w, status, detail, requestID)
		return
	}

	writeJSON(w, http.StatusOK, explainResponse{
		Message:      "Explanation complete",
		Explanations: explanations,
	})
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())
	owner := usernameFromContext(r.Context())

	list, err := s.reports.List(r.Context(), owner)
	if err != nil {
		s.logger.Error(r.Context(), "failed to list reports", "owner", owner, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to retrieve reports", requestID)
		return
	}

	views := make([]reportView, 0, len(list))
	for _, report := range list {
		views = append(views, toView(report, false))
	}

	writeJSON(w, http.StatusOK, listReportsResponse{
		Message:      "Reports retrieved successfully",
		Reports:      views,
		TotalReports: len(views),
	})
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())
	owner := usernameFromContext(r.Context())

	report, err := s.reports.Get(r.Context(), owner, r.PathValue("id"))
	if err != nil {
		status, detail := statusForError(err)
		if status == http.StatusInternalServerError {
			s.logger.Error(r.Context(), "failed to get report", "owner", owner, "error", err)
		}
		writeError(w, status, detail, requestID)
		return
	}

	writeJSON(w, http.StatusOK, getReportResponse{
		Message: "Report retrieved successfully",
		Report:  toView(report, true),
	})
}
