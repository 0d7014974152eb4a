package store

import "context"

// Engine is the storage contract shared by all three backends. The facade
// delegates every call to whichever engine the selector bound.
//
// Update and Delete report the affected row count instead of failing on a
// missing id; a zero count is not an error.
type Engine interface {
	// Name identifies the engine in logs and health output.
	Name() string

	// Collections lists the names of all collections that exist.
	Collections(ctx context.Context) ([]string, error)

	// Create stores a new document and returns its id. The collection is
	// created lazily on first write.
	Create(ctx context.Context, collection string, fields Fields) (string, error)

	// Get fetches one document by id, or ErrNotFound.
	Get(ctx context.Context, collection, id string) (Document, error)

	// Update merges fields into an existing document and refreshes its
	// updated_at timestamp. Returns the number of documents modified.
	Update(ctx context.Context, collection, id string, fields Fields) (int64, error)

	// Delete removes a document by id. Returns the number of documents
	// removed.
	Delete(ctx context.Context, collection, id string) (int64, error)

	// List returns documents matching opts.Query, ordered by opts.Sort,
	// with skip and limit applied after filtering and sorting.
	List(ctx context.Context, collection string, opts ListOptions) ([]Document, error)

	// Count returns the number of documents matching the query.
	Count(ctx context.Context, collection string, query Query) (int64, error)

	// Close releases the engine's underlying resources.
	Close(ctx context.Context) error
}

// Ensure all engines implement the contract.
var (
	_ Engine = (*MemoryEngine)(nil)
	_ Engine = (*RelationalEngine)(nil)
	_ Engine = (*MongoEngine)(nil)
)
