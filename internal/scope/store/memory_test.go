package store

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestMemoryEngine() *MemoryEngine {
	return NewMemoryEngine(zerolog.Nop())
}

func TestMemoryCreateGetRoundTrip(t *testing.T) {
	e := newTestMemoryEngine()
	ctx := context.Background()

	fields := Fields{
		"name":   "widget",
		"count":  3,
		"rating": 4.5,
		"active": true,
		"tags":   []any{"a", "b"},
		"meta":   map[string]any{"color": "red"},
	}

	id, err := e.Create(ctx, "items", fields)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if id == "" {
		t.Fatal("expected non-empty id")
	}

	doc, err := e.Get(ctx, "items", id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if doc.ID != id {
		t.Errorf("expected id %s, got %s", id, doc.ID)
	}
	if doc.Fields["name"] != "widget" || doc.Fields["count"] != 3 || doc.Fields["active"] != true {
		t.Errorf("fields did not round-trip: %+v", doc.Fields)
	}
	if doc.CreatedAt.IsZero() || doc.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be populated")
	}
}

func TestMemoryMintedIDs(t *testing.T) {
	e := newTestMemoryEngine()
	ctx := context.Background()

	id1, _ := e.Create(ctx, "items", Fields{"n": 1})
	id2, _ := e.Create(ctx, "items", Fields{"n": 2})
	if id1 != "1" || id2 != "2" {
		t.Errorf("expected counter ids 1, 2; got %s, %s", id1, id2)
	}

	// Counters are per collection.
	other, _ := e.Create(ctx, "others", Fields{"n": 1})
	if other != "1" {
		t.Errorf("expected fresh counter for new collection, got %s", other)
	}
}

func TestMemoryCallerSuppliedID(t *testing.T) {
	e := newTestMemoryEngine()
	ctx := context.Background()

	id, err := e.Create(ctx, "items", Fields{"id": "custom-7", "n": 1})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if id != "custom-7" {
		t.Errorf("expected custom-7, got %s", id)
	}

	doc, err := e.Get(ctx, "items", "custom-7")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if _, ok := doc.Fields["id"]; ok {
		t.Error("id should not remain in the field payload")
	}
}

func TestMemoryMonotonicUpdate(t *testing.T) {
	e := newTestMemoryEngine()
	ctx := context.Background()

	id, _ := e.Create(ctx, "items", Fields{"n": 1})
	created, _ := e.Get(ctx, "items", id)

	prev := created.UpdatedAt
	for i := 0; i < 3; i++ {
		count, err := e.Update(ctx, "items", id, Fields{"n": i})
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		if count != 1 {
			t.Fatalf("expected modified count 1, got %d", count)
		}

		doc, _ := e.Get(ctx, "items", id)
		if doc.UpdatedAt.Before(prev) {
			t.Errorf("updated_at went backwards: %v -> %v", prev, doc.UpdatedAt)
		}
		if !doc.CreatedAt.Equal(created.CreatedAt) {
			t.Error("created_at changed on update")
		}
		prev = doc.UpdatedAt
	}
}

func TestMemoryUpdateMissingID(t *testing.T) {
	e := newTestMemoryEngine()
	ctx := context.Background()

	count, err := e.Update(ctx, "items", "42", Fields{"n": 1})
	if err != nil {
		t.Fatalf("Update on missing id should not error, got %v", err)
	}
	if count != 0 {
		t.Errorf("expected modified count 0, got %d", count)
	}
}

func TestMemoryIdempotentDelete(t *testing.T) {
	e := newTestMemoryEngine()
	ctx := context.Background()

	id, _ := e.Create(ctx, "items", Fields{"n": 1})

	count, err := e.Delete(ctx, "items", id)
	if err != nil || count != 1 {
		t.Fatalf("first delete: expected (1, nil), got (%d, %v)", count, err)
	}
	count, err = e.Delete(ctx, "items", id)
	if err != nil || count != 0 {
		t.Fatalf("second delete: expected (0, nil), got (%d, %v)", count, err)
	}
	count, err = e.Delete(ctx, "items", "never-existed")
	if err != nil || count != 0 {
		t.Fatalf("delete of missing id: expected (0, nil), got (%d, %v)", count, err)
	}
}

func TestMemoryQueryConjunction(t *testing.T) {
	e := newTestMemoryEngine()
	ctx := context.Background()

	_, _ = e.Create(ctx, "items", Fields{"a": 1, "b": 2})
	_, _ = e.Create(ctx, "items", Fields{"a": 1, "b": 3})
	_, _ = e.Create(ctx, "items", Fields{"a": 1}) // missing b never matches

	docs, err := e.List(ctx, "items", ListOptions{Query: Query{"a": 1, "b": 2}})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 match, got %d", len(docs))
	}
	if docs[0].Fields["b"] != 2 {
		t.Errorf("wrong document matched: %+v", docs[0].Fields)
	}
}

func TestMemoryStableMultiKeySort(t *testing.T) {
	e := newTestMemoryEngine()
	ctx := context.Background()

	_, _ = e.Create(ctx, "items", Fields{"a": 1, "b": 2})
	_, _ = e.Create(ctx, "items", Fields{"a": 1, "b": 1})
	_, _ = e.Create(ctx, "items", Fields{"a": 0, "b": 5})

	docs, err := e.List(ctx, "items", ListOptions{
		Sort: Sort{{Field: "a", Direction: 1}, {Field: "b", Direction: -1}},
	})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("expected 3 docs, got %d", len(docs))
	}

	// a ascending first, then b descending among ties.
	got := make([][2]any, len(docs))
	for i, d := range docs {
		got[i] = [2]any{d.Fields["a"], d.Fields["b"]}
	}
	want := [][2]any{{0, 5}, {1, 2}, {1, 1}}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("wrong order at %d: got %v, want %v (full: %v)", i, got[i], want[i], got)
		}
	}
}

func TestMemorySkipAndLimit(t *testing.T) {
	e := newTestMemoryEngine()
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, _ = e.Create(ctx, "items", Fields{"n": i})
	}

	docs, _ := e.List(ctx, "items", ListOptions{
		Sort:  Sort{{Field: "n", Direction: 1}},
		Limit: 3,
		Skip:  4,
	})
	if len(docs) != 3 {
		t.Fatalf("expected 3 docs, got %d", len(docs))
	}
	if docs[0].Fields["n"] != 4 {
		t.Errorf("expected first doc n=4, got %v", docs[0].Fields["n"])
	}

	// Skip beyond the end yields nothing.
	docs, _ = e.List(ctx, "items", ListOptions{Skip: 50})
	if len(docs) != 0 {
		t.Errorf("expected 0 docs, got %d", len(docs))
	}
}

func TestMemoryDefaultLimit(t *testing.T) {
	e := newTestMemoryEngine()
	ctx := context.Background()

	for i := 0; i < DefaultLimit+20; i++ {
		_, _ = e.Create(ctx, "items", Fields{"n": i})
	}

	docs, _ := e.List(ctx, "items", ListOptions{})
	if len(docs) != DefaultLimit {
		t.Errorf("expected default limit %d, got %d", DefaultLimit, len(docs))
	}

	docs, _ = e.List(ctx, "items", ListOptions{Limit: -1})
	if len(docs) != DefaultLimit+20 {
		t.Errorf("expected all docs with negative limit, got %d", len(docs))
	}
}

func TestMemoryCountListConsistency(t *testing.T) {
	e := newTestMemoryEngine()
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		_, _ = e.Create(ctx, "items", Fields{"even": i%2 == 0})
	}

	query := Query{"even": true}
	count, err := e.Count(ctx, "items", query)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	docs, err := e.List(ctx, "items", ListOptions{Query: query, Limit: -1})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if int64(len(docs)) != count {
		t.Errorf("count %d does not match list length %d", count, len(docs))
	}
}

func TestMemoryReturnsIndependentCopies(t *testing.T) {
	e := newTestMemoryEngine()
	ctx := context.Background()

	id, _ := e.Create(ctx, "items", Fields{"meta": map[string]any{"color": "red"}})

	doc, _ := e.Get(ctx, "items", id)
	doc.Fields["meta"].(map[string]any)["color"] = "blue"
	doc.Fields["new"] = "value"

	again, _ := e.Get(ctx, "items", id)
	if again.Fields["meta"].(map[string]any)["color"] != "red" {
		t.Error("mutating a returned document leaked into the stored copy")
	}
	if _, ok := again.Fields["new"]; ok {
		t.Error("adding a field to a returned document leaked into the stored copy")
	}
}

func TestMemoryCreateDoesNotAliasInput(t *testing.T) {
	e := newTestMemoryEngine()
	ctx := context.Background()

	fields := Fields{"meta": map[string]any{"color": "red"}}
	id, _ := e.Create(ctx, "items", fields)

	fields["meta"].(map[string]any)["color"] = "blue"

	doc, _ := e.Get(ctx, "items", id)
	if doc.Fields["meta"].(map[string]any)["color"] != "red" {
		t.Error("mutating caller-owned input leaked into the stored copy")
	}
}

func TestMemoryCollections(t *testing.T) {
	e := newTestMemoryEngine()
	ctx := context.Background()

	names, _ := e.Collections(ctx)
	if len(names) != 0 {
		t.Fatalf("expected no collections, got %v", names)
	}

	_, _ = e.Create(ctx, "zebras", Fields{"n": 1})
	_, _ = e.Create(ctx, "apples", Fields{"n": 1})

	names, _ = e.Collections(ctx)
	if len(names) != 2 || names[0] != "apples" || names[1] != "zebras" {
		t.Errorf("expected sorted [apples zebras], got %v", names)
	}
}

func TestMemoryGetMissing(t *testing.T) {
	e := newTestMemoryEngine()

	_, err := e.Get(context.Background(), "items", "1")
	if err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryQueryOnTimestamps(t *testing.T) {
	e := newTestMemoryEngine()
	ctx := context.Background()

	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	id, _ := e.Create(ctx, "items", Fields{"created_at": ts, "n": 1})

	doc, _ := e.Get(ctx, "items", id)
	if !doc.CreatedAt.Equal(ts) {
		t.Errorf("expected caller-supplied created_at %v, got %v", ts, doc.CreatedAt)
	}

	count, _ := e.Count(ctx, "items", Query{"created_at": ts})
	if count != 1 {
		t.Errorf("expected timestamp query to match, got count %d", count)
	}
}
