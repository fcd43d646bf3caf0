package http

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the API error body. Every error carries a single
// human-readable detail string, matching what the LegalEase web client reads
// from error.response.data.detail.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// WriteError writes a JSON error response with the given status code
func WriteError(w http.ResponseWriter, statusCode int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	// Log encoding errors but don't expose them to client
	_ = json.NewEncoder(w).Encode(ErrorResponse{Detail: detail})
}

// Common error writers for consistency
func WriteBadRequest(w http.ResponseWriter, detail string) {
	WriteError(w, http.StatusBadRequest, detail)
}

func WriteUnauthorized(w http.ResponseWriter, detail string) {
	WriteError(w, http.StatusUnauthorized, detail)
}

func WriteForbidden(w http.ResponseWriter, detail string) {
	WriteError(w, http.StatusForbidden, detail)
}

func WriteNotFound(w http.ResponseWriter, detail string) {
	WriteError(w, http.StatusNotFound, detail)
}

func WriteConflict(w http.ResponseWriter, detail string) {
	WriteError(w, http.StatusConflict, detail)
}

func WriteTooManyRequests(w http.ResponseWriter, detail string) {
	WriteError(w, http.StatusTooManyRequests, detail)
}

func WriteInternalError(w http.ResponseWriter, detail string) {
	WriteError(w, http.StatusInternalServerError, detail)
}

// WriteJSON writes a 200 JSON response
func WriteJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}
