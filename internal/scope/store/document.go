// Package store implements a polymorphic document store: one CRUD and
// query contract routed to one of three interchangeable engines (Postgres,
// MongoDB, in-memory), chosen at runtime by what is actually reachable.
package store

import "time"

// Fields holds a document's payload. Values are plain Go data: nil, bool,
// integers, floats, strings, time.Time, nested map[string]any, or []any.
type Fields map[string]any

// Query filters documents by exact equality on every listed field. A
// document that does not contain a queried field never matches.
type Query map[string]any

// SortField is a single sort key. Direction > 0 sorts ascending,
// < 0 descending.
type SortField struct {
	Field     string
	Direction int
}

// Sort is an ordered list of sort keys. The first key governs the primary
// order, later keys break ties.
type Sort []SortField

// Document is a stored record. ID is unique within its collection and
// immutable. CreatedAt is set once at creation; UpdatedAt never decreases.
type Document struct {
	ID        string    `json:"id"`
	Fields    Fields    `json:"fields"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultLimit is applied when ListOptions.Limit is zero.
const DefaultLimit = 100

// ListOptions controls List. A zero Limit means DefaultLimit; a negative
// Limit means no limit. Skip is applied after filtering and sorting.
type ListOptions struct {
	Query Query
	Sort  Sort
	Limit int
	Skip  int
}

func (o ListOptions) limit() int {
	if o.Limit == 0 {
		return DefaultLimit
	}
	return o.Limit
}

// Clone returns a deep copy of the document so callers can never mutate
// engine-owned state through a returned value.
func (d Document) Clone() Document {
	d.Fields = cloneFields(d.Fields)
	return d
}

func cloneFields(f Fields) Fields {
	if f == nil {
		return nil
	}
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = cloneValue(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
