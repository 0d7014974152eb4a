package store

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Store is the caller-facing facade. It validates input, resolves the
// engine through the selector on first use, and delegates every call.
// Errors from the bound engine propagate to the caller unchanged.
type Store struct {
	sel *Selector
}

// New creates a store over the given connection descriptors.
func New(cfg Config, logger zerolog.Logger) *Store {
	return &Store{sel: NewSelector(cfg, logger)}
}

// NewWithSelector wraps an existing selector; used by tests to force a
// particular engine deterministically.
func NewWithSelector(sel *Selector) *Store {
	return &Store{sel: sel}
}

// EngineName reports which engine the selector bound.
func (s *Store) EngineName(ctx context.Context) (string, error) {
	eng, err := s.sel.Engine(ctx)
	if err != nil {
		return "", err
	}
	return eng.Name(), nil
}

// Collections lists all collection names.
func (s *Store) Collections(ctx context.Context) ([]string, error) {
	eng, err := s.sel.Engine(ctx)
	if err != nil {
		return nil, err
	}
	return eng.Collections(ctx)
}

// Create stores a new document and returns its id.
func (s *Store) Create(ctx context.Context, collection string, fields Fields) (string, error) {
	if collection == "" {
		return "", fmt.Errorf("%w: collection name is required", ErrInvalidInput)
	}
	if len(fields) == 0 {
		return "", fmt.Errorf("%w: document data is required", ErrInvalidInput)
	}
	eng, err := s.sel.Engine(ctx)
	if err != nil {
		return "", err
	}
	return eng.Create(ctx, collection, fields)
}

// Get fetches one document by id.
func (s *Store) Get(ctx context.Context, collection, id string) (Document, error) {
	if collection == "" {
		return Document{}, fmt.Errorf("%w: collection name is required", ErrInvalidInput)
	}
	if id == "" {
		return Document{}, fmt.Errorf("%w: document id is required", ErrInvalidInput)
	}
	eng, err := s.sel.Engine(ctx)
	if err != nil {
		return Document{}, err
	}
	return eng.Get(ctx, collection, id)
}

// Update merges fields into an existing document. A missing id yields a
// zero count, not an error.
func (s *Store) Update(ctx context.Context, collection, id string, fields Fields) (int64, error) {
	if collection == "" {
		return 0, fmt.Errorf("%w: collection name is required", ErrInvalidInput)
	}
	if id == "" {
		return 0, fmt.Errorf("%w: document id is required", ErrInvalidInput)
	}
	eng, err := s.sel.Engine(ctx)
	if err != nil {
		return 0, err
	}
	return eng.Update(ctx, collection, id, fields)
}

// Delete removes a document by id. Deleting a missing id yields a zero
// count, not an error.
func (s *Store) Delete(ctx context.Context, collection, id string) (int64, error) {
	if collection == "" {
		return 0, fmt.Errorf("%w: collection name is required", ErrInvalidInput)
	}
	if id == "" {
		return 0, fmt.Errorf("%w: document id is required", ErrInvalidInput)
	}
	eng, err := s.sel.Engine(ctx)
	if err != nil {
		return 0, err
	}
	return eng.Delete(ctx, collection, id)
}

// List returns documents matching the options.
func (s *Store) List(ctx context.Context, collection string, opts ListOptions) ([]Document, error) {
	if collection == "" {
		return nil, fmt.Errorf("%w: collection name is required", ErrInvalidInput)
	}
	eng, err := s.sel.Engine(ctx)
	if err != nil {
		return nil, err
	}
	return eng.List(ctx, collection, opts)
}

// Count returns the number of documents matching the query.
func (s *Store) Count(ctx context.Context, collection string, query Query) (int64, error) {
	if collection == "" {
		return 0, fmt.Errorf("%w: collection name is required", ErrInvalidInput)
	}
	eng, err := s.sel.Engine(ctx)
	if err != nil {
		return 0, err
	}
	return eng.Count(ctx, collection, query)
}

// Close releases the bound engine; the next call re-selects.
func (s *Store) Close(ctx context.Context) error {
	return s.sel.Close(ctx)
}
