package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dsjohal14/docvault/internal/scope/store"
	"github.com/rs/zerolog"
)

// Handler contains HTTP handlers for the API
type Handler struct {
	store  *store.Store
	logger zerolog.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(st *store.Store, logger zerolog.Logger) *Handler {
	return &Handler{
		store:  st,
		logger: logger,
	}
}

// Helper functions used across all handlers

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response with the given status code
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// writeStoreError maps the store error taxonomy to HTTP status codes
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_INPUT")
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error(), "NOT_FOUND")
	default:
		writeError(w, http.StatusInternalServerError, err.Error(), "STORE_ERROR")
	}
}
