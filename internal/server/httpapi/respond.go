// Package httpapi exposes the service's HTTP contract: authentication,
// prediction, report history, and drift monitoring.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aquawatch/aquawatch/internal/common"
	"github.com/aquawatch/aquawatch/internal/server/inference"
)

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Detail    string `json:"detail"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, statusCode int, detail string, requestID string) {
	writeJSON(w, statusCode, ErrorResponse{Detail: detail, RequestID: requestID})
}

// statusForError maps the error taxonomy onto HTTP classes. Dependency
// errors get a generic message; the cause is logged separately by the
// handler.
func statusForError(err error) (int, string) {
	switch {
	case inference.IsValidationError(err):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, common.ErrUsernameTaken):
		return http.StatusBadRequest, "username already exists"
	case errors.Is(err, common.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized, "token expired"
	case errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrUnauthorized):
		return http.StatusUnauthorized, "invalid token"
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound, "report not found"
	case errors.Is(err, common.ErrScoringFailed):
		return http.StatusInternalServerError, "prediction failed"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
