package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/dsjohal14/docvault/internal/scope/store"
	"github.com/go-chi/chi/v5"
)

// HandleCollections lists all collection names
func (h *Handler) HandleCollections(w http.ResponseWriter, r *http.Request) {
	names, err := h.store.Collections(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list collections")
		writeStoreError(w, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, CollectionsResponse{Collections: names})
}

// HandleCreateDocument creates a document in a collection
func (h *Handler) HandleCreateDocument(w http.ResponseWriter, r *http.Request) {
	var req CreateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn().Err(err).Msg("invalid create request")
		writeError(w, http.StatusBadRequest, "invalid JSON", "INVALID_JSON")
		return
	}
	if req.Collection == "" {
		writeError(w, http.StatusBadRequest, "collection is required", "MISSING_COLLECTION")
		return
	}
	if len(req.Data) == 0 {
		writeError(w, http.StatusBadRequest, "data is required", "MISSING_DATA")
		return
	}

	id, err := h.store.Create(r.Context(), req.Collection, store.Fields(req.Data))
	if err != nil {
		h.logger.Error().Err(err).Str("collection", req.Collection).Msg("failed to create document")
		writeStoreError(w, err)
		return
	}

	h.logger.Info().Str("collection", req.Collection).Str("doc_id", id).Msg("document created")
	writeJSON(w, http.StatusCreated, CreateDocumentResponse{DocumentID: id})
}

// HandleGetDocument fetches one document by id
func (h *Handler) HandleGetDocument(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")
	id := chi.URLParam(r, "id")

	doc, err := h.store.Get(r.Context(), collection, id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// HandleUpdateDocument merges fields into an existing document
func (h *Handler) HandleUpdateDocument(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")
	id := chi.URLParam(r, "id")

	var req UpdateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON", "INVALID_JSON")
		return
	}

	count, err := h.store.Update(r.Context(), collection, id, store.Fields(req.Data))
	if err != nil {
		h.logger.Error().Err(err).Str("collection", collection).Str("doc_id", id).Msg("failed to update document")
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, UpdateDocumentResponse{ModifiedCount: count})
}

// HandleDeleteDocument removes a document by id
func (h *Handler) HandleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")
	id := chi.URLParam(r, "id")

	count, err := h.store.Delete(r.Context(), collection, id)
	if err != nil {
		h.logger.Error().Err(err).Str("collection", collection).Str("doc_id", id).Msg("failed to delete document")
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DeleteDocumentResponse{DeletedCount: count})
}

// HandleListDocuments lists documents with optional filter, sort and paging
func (h *Handler) HandleListDocuments(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")

	opts := store.ListOptions{
		Query: parseFilter(r),
		Sort:  parseSort(r),
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit", "INVALID_LIMIT")
			return
		}
		opts.Limit = n
	}
	if v := r.URL.Query().Get("skip"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid skip", "INVALID_SKIP")
			return
		}
		opts.Skip = n
	}

	docs, err := h.store.List(r.Context(), collection, opts)
	if err != nil {
		h.logger.Error().Err(err).Str("collection", collection).Msg("failed to list documents")
		writeStoreError(w, err)
		return
	}
	if docs == nil {
		docs = []store.Document{}
	}
	writeJSON(w, http.StatusOK, ListDocumentsResponse{Documents: docs, Count: len(docs)})
}

// HandleCountDocuments counts documents matching an optional filter
func (h *Handler) HandleCountDocuments(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")

	count, err := h.store.Count(r.Context(), collection, parseFilter(r))
	if err != nil {
		h.logger.Error().Err(err).Str("collection", collection).Msg("failed to count documents")
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CountDocumentsResponse{Count: count})
}

// parseFilter builds an equality filter from repeated q=field:value
// params. Values parse as JSON scalars where possible (q=age:30 matches
// the number 30), otherwise as plain strings.
func parseFilter(r *http.Request) store.Query {
	params := r.URL.Query()["q"]
	if len(params) == 0 {
		return nil
	}
	query := make(store.Query, len(params))
	for _, p := range params {
		field, raw, ok := strings.Cut(p, ":")
		if !ok || field == "" {
			continue
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			v = raw
		}
		query[field] = v
	}
	return query
}

// parseSort builds sort keys from repeated sort=field params; a leading
// '-' means descending.
func parseSort(r *http.Request) store.Sort {
	params := r.URL.Query()["sort"]
	if len(params) == 0 {
		return nil
	}
	sort := make(store.Sort, 0, len(params))
	for _, p := range params {
		if p == "" || p == "-" {
			continue
		}
		dir := 1
		if strings.HasPrefix(p, "-") {
			dir = -1
			p = p[1:]
		}
		sort = append(sort, store.SortField{Field: p, Direction: dir})
	}
	return sort
}
