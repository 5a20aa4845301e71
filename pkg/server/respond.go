package server

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody describes an API error.
type ErrorBody struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string, details ...string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorBody{Code: code, Message: msg, Details: details}})
}
