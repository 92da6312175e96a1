// Package httputil provides HTTP handler utilities for consistent error handling,
// JSON encoding, and request parsing.
package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/platinummonkey/capgate/pkg/contextkeys"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error     string                 `json:"error"`
	RequestID string                 `json:"request_id,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// WriteError writes a JSON error response with the given status code
func WriteError(w http.ResponseWriter, r *http.Request, status int, err error) {
	WriteErrorMessage(w, r, status, err.Error())
}

// WriteErrorMessage writes a JSON error response with a custom message.
// The request ID, when present on the request context, is echoed back.
func WriteErrorMessage(w http.ResponseWriter, r *http.Request, status int, message string) {
	WriteDetailedError(w, r, status, message, nil)
}

// WriteDetailedError writes an error response with additional context
func WriteDetailedError(w http.ResponseWriter, r *http.Request, status int, message string, details map[string]interface{}) {
	resp := ErrorResponse{
		Error:   message,
		Details: details,
	}
	if r != nil {
		resp.RequestID = contextkeys.GetRequestID(r.Context())
	}
	WriteJSON(w, status, resp)
}

// WriteBadRequest writes a bad request error (400 Bad Request)
func WriteBadRequest(w http.ResponseWriter, r *http.Request, message string) {
	WriteErrorMessage(w, r, http.StatusBadRequest, message)
}

// WriteNotFoundError writes a not found error response (404 Not Found)
func WriteNotFoundError(w http.ResponseWriter, r *http.Request, message string) {
	WriteErrorMessage(w, r, http.StatusNotFound, message)
}

// WriteInternalError writes an internal server error response (500 Internal Server Error)
func WriteInternalError(w http.ResponseWriter, r *http.Request, err error) {
	WriteError(w, r, http.StatusInternalServerError, err)
}

// WriteServiceUnavailable writes a service unavailable error (503 Service Unavailable)
func WriteServiceUnavailable(w http.ResponseWriter, r *http.Request, message string) {
	WriteErrorMessage(w, r, http.StatusServiceUnavailable, message)
}
