// Package response is the single JSON envelope used by every handler.
// The shapes are {data}, {data, meta}, and {error: {code, message, details}}.
package response

import (
	"encoding/json"
	"net/http"
)

type envelope struct {
	Data any `json:"data"`
}

type collectionEnvelope struct {
	Data any            `json:"data"`
	Meta PaginationMeta `json:"meta"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type PaginationMeta struct {
	Page     int `json:"page"`
	PerPage  int `json:"per_page"`
	Total    int `json:"total"`
	LastPage int `json:"last_page"`
}

// NewMeta computes pagination metadata from the effective page inputs.
// An empty result set still reports last_page = 1.
func NewMeta(page, perPage, total int) PaginationMeta {
	last := (total + perPage - 1) / perPage
	if last < 1 {
		last = 1
	}
	return PaginationMeta{Page: page, PerPage: perPage, Total: total, LastPage: last}
}

func JSON(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, envelope{Data: data})
}

func Created(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusCreated, envelope{Data: data})
}

func Collection(w http.ResponseWriter, data any, meta PaginationMeta) {
	writeJSON(w, http.StatusOK, collectionEnvelope{Data: data, Meta: meta})
}

func Error(w http.ResponseWriter, status int, code, message string, details any) {
	writeJSON(w, status, errorEnvelope{Error: errorBody{
		Code:    code,
		Message: message,
		Details: details,
	}})
}

// ValidationFailed is the 422 shape with field-level messages.
func ValidationFailed(w http.ResponseWriter, fields map[string]string) {
	Error(w, http.StatusUnprocessableEntity, "VALIDATION_FAILED", "Request validation failed", fields)
}

func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, "NOT_FOUND", message, nil)
}

func Internal(w http.ResponseWriter) {
	// Never surface the underlying error to clients; it is logged server-side.
	Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
