// Package api holds helpers shared by the HTTP handlers.
package api

import (
	"encoding/json"
	"net/http"
)

// ErrorDetail is the body of every error response.
type ErrorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// ErrorBody wraps ErrorDetail under "error".
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes an ErrorBody.
func Error(w http.ResponseWriter, status int, kind, message string) {
	JSON(w, status, ErrorBody{Error: ErrorDetail{Kind: kind, Message: message}})
}
