package httpapi

import (
	"encoding/json"
	"net/http"
)

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", requestID)
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required", requestID)
		return
	}

	_, err := s.users.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		status, detail := statusForError(err)
		if status == http.StatusInternalServerError {
			s.logger.Error(r.Context(), "registration failed", "error", err)
		}
		writeError(w, status, detail, requestID)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Registration successful"})
}

// handleToken accepts form-encoded credentials (OAuth2 password-grant
// shape) and returns a bearer token.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form body", requestID)
		return
	}

	username := r.PostFormValue("username")
	password := r.PostFormValue("password")
	if username == "" || password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required", requestID)
		return
	}

	token, err := s.users.Login(r.Context(), username, password)
	if err != nil {
		status, detail := statusForError(err)
		if status == http.StatusInternalServerError {
			s.logger.Error(r.Context(), "login failed", "error", err)
		}
		writeError(w, status, detail, requestID)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}
