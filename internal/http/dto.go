// Package httpapi provides HTTP handlers and data transfer objects for the docvault API.
package httpapi

import "github.com/dsjohal14/docvault/internal/scope/store"

// HealthResponse represents the health check response
type HealthResponse struct {
	Status string `json:"status"`
	Engine string `json:"engine"`
}

// CollectionsResponse lists collection names
type CollectionsResponse struct {
	Collections []string `json:"collections"`
}

// CreateDocumentRequest represents a document creation request
type CreateDocumentRequest struct {
	Collection string         `json:"collection"`
	Data       map[string]any `json:"data"`
}

// CreateDocumentResponse carries the id of the created document
type CreateDocumentResponse struct {
	DocumentID string `json:"document_id"`
}

// UpdateDocumentRequest represents a merge-update request
type UpdateDocumentRequest struct {
	Data map[string]any `json:"data"`
}

// UpdateDocumentResponse carries the modified row count
type UpdateDocumentResponse struct {
	ModifiedCount int64 `json:"modified_count"`
}

// DeleteDocumentResponse carries the deleted row count
type DeleteDocumentResponse struct {
	DeletedCount int64 `json:"deleted_count"`
}

// ListDocumentsResponse carries a page of documents
type ListDocumentsResponse struct {
	Documents []store.Document `json:"documents"`
	Count     int              `json:"count"`
}

// CountDocumentsResponse carries a filtered count
type CountDocumentsResponse struct {
	Count int64 `json:"count"`
}

// ErrorResponse represents API error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}
