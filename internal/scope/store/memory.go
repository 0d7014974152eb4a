package store

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// MemoryEngine is the dependency-free fallback engine. Collections live
// in a process-local map and are lost on restart. Ids are minted from a
// per-collection counter starting at 1 unless the caller supplies one.
type MemoryEngine struct {
	mu          sync.RWMutex
	collections map[string][]Document
	counters    map[string]int64
	logger      zerolog.Logger
}

// NewMemoryEngine creates an empty in-memory engine.
func NewMemoryEngine(logger zerolog.Logger) *MemoryEngine {
	return &MemoryEngine{
		collections: make(map[string][]Document),
		counters:    make(map[string]int64),
		logger:      logger,
	}
}

func (e *MemoryEngine) Name() string { return "memory" }

func (e *MemoryEngine) Collections(_ context.Context) ([]string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	names := make([]string, 0, len(e.collections))
	for name := range e.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (e *MemoryEngine) Create(_ context.Context, collection string, fields Fields) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := time.Now()
	doc := Document{
		Fields:    cloneFields(fields),
		CreatedAt: now,
		UpdatedAt: now,
	}

	// Reserved keys move from the payload onto the document itself.
	if v, ok := doc.Fields["id"]; ok {
		doc.ID = fmt.Sprint(v)
		delete(doc.Fields, "id")
	}
	if v, ok := doc.Fields["created_at"].(time.Time); ok {
		doc.CreatedAt = v
		delete(doc.Fields, "created_at")
	}
	if v, ok := doc.Fields["updated_at"].(time.Time); ok {
		doc.UpdatedAt = v
		delete(doc.Fields, "updated_at")
	}

	if doc.ID == "" {
		e.counters[collection]++
		doc.ID = strconv.FormatInt(e.counters[collection], 10)
	}

	e.collections[collection] = append(e.collections[collection], doc)
	return doc.ID, nil
}

func (e *MemoryEngine) Get(_ context.Context, collection, id string) (Document, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, doc := range e.collections[collection] {
		if doc.ID == id {
			return doc.Clone(), nil
		}
	}
	return Document{}, ErrNotFound
}

func (e *MemoryEngine) Update(_ context.Context, collection, id string, fields Fields) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	docs := e.collections[collection]
	for i := range docs {
		if docs[i].ID != id {
			continue
		}
		if docs[i].Fields == nil {
			docs[i].Fields = make(Fields, len(fields))
		}
		for k, v := range fields {
			// ID and created_at are immutable.
			if k == "id" || k == "created_at" || k == "updated_at" {
				continue
			}
			docs[i].Fields[k] = cloneValue(v)
		}
		docs[i].UpdatedAt = time.Now()
		return 1, nil
	}
	return 0, nil
}

func (e *MemoryEngine) Delete(_ context.Context, collection, id string) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	docs := e.collections[collection]
	kept := docs[:0]
	var removed int64
	for _, doc := range docs {
		if doc.ID == id {
			removed++
			continue
		}
		kept = append(kept, doc)
	}
	if removed > 0 {
		e.collections[collection] = kept
	}
	return removed, nil
}

func (e *MemoryEngine) List(_ context.Context, collection string, opts ListOptions) ([]Document, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var results []Document
	for _, doc := range e.collections[collection] {
		if matchesQuery(doc, opts.Query) {
			results = append(results, doc)
		}
	}

	// Sort keys are applied last to first, each pass a stable single-key
	// sort, so the first key governs the primary order and later keys
	// break ties.
	for i := len(opts.Sort) - 1; i >= 0; i-- {
		key := opts.Sort[i]
		sort.SliceStable(results, func(a, b int) bool {
			c := compareValues(docValue(results[a], key.Field), docValue(results[b], key.Field))
			if key.Direction < 0 {
				return c > 0
			}
			return c < 0
		})
	}

	if opts.Skip > 0 {
		if opts.Skip >= len(results) {
			results = nil
		} else {
			results = results[opts.Skip:]
		}
	}
	if limit := opts.limit(); limit >= 0 && limit < len(results) {
		results = results[:limit]
	}

	out := make([]Document, len(results))
	for i, doc := range results {
		out[i] = doc.Clone()
	}
	return out, nil
}

func (e *MemoryEngine) Count(_ context.Context, collection string, query Query) (int64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var n int64
	for _, doc := range e.collections[collection] {
		if matchesQuery(doc, query) {
			n++
		}
	}
	return n, nil
}

func (e *MemoryEngine) Close(_ context.Context) error { return nil }

func matchesQuery(doc Document, query Query) bool {
	for key, want := range query {
		got, ok := lookupValue(doc, key)
		if !ok || !valuesEqual(got, want) {
			return false
		}
	}
	return true
}

func lookupValue(doc Document, key string) (any, bool) {
	switch key {
	case "id":
		return doc.ID, true
	case "created_at":
		return doc.CreatedAt, true
	case "updated_at":
		return doc.UpdatedAt, true
	default:
		v, ok := doc.Fields[key]
		return v, ok
	}
}

func docValue(doc Document, key string) any {
	v, ok := lookupValue(doc, key)
	if !ok {
		return nil
	}
	return v
}
