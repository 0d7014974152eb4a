package store

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func newTestStore() *Store {
	// No descriptors configured: binds the in-memory engine.
	return New(Config{}, zerolog.Nop())
}

func TestStoreValidation(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	if _, err := s.Create(ctx, "", Fields{"a": 1}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("create without collection: expected ErrInvalidInput, got %v", err)
	}
	if _, err := s.Create(ctx, "items", nil); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("create without data: expected ErrInvalidInput, got %v", err)
	}
	if _, err := s.Create(ctx, "items", Fields{}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("create with empty data: expected ErrInvalidInput, got %v", err)
	}
	if _, err := s.Get(ctx, "items", ""); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("get without id: expected ErrInvalidInput, got %v", err)
	}
	if _, err := s.Update(ctx, "items", "", Fields{"a": 1}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("update without id: expected ErrInvalidInput, got %v", err)
	}
	if _, err := s.Delete(ctx, "", "1"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("delete without collection: expected ErrInvalidInput, got %v", err)
	}
	if _, err := s.List(ctx, "", ListOptions{}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("list without collection: expected ErrInvalidInput, got %v", err)
	}
	if _, err := s.Count(ctx, "", nil); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("count without collection: expected ErrInvalidInput, got %v", err)
	}
}

func TestStoreDelegatesToBoundEngine(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	name, err := s.EngineName(ctx)
	if err != nil {
		t.Fatalf("EngineName failed: %v", err)
	}
	if name != "memory" {
		t.Fatalf("expected memory engine, got %s", name)
	}

	id, err := s.Create(ctx, "items", Fields{"name": "widget", "qty": 5})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	doc, err := s.Get(ctx, "items", id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if doc.Fields["name"] != "widget" {
		t.Errorf("unexpected document: %+v", doc)
	}

	count, err := s.Update(ctx, "items", id, Fields{"qty": 6})
	if err != nil || count != 1 {
		t.Fatalf("Update: expected (1, nil), got (%d, %v)", count, err)
	}

	names, err := s.Collections(ctx)
	if err != nil || len(names) != 1 || names[0] != "items" {
		t.Errorf("Collections: expected [items], got (%v, %v)", names, err)
	}

	total, err := s.Count(ctx, "items", nil)
	if err != nil || total != 1 {
		t.Errorf("Count: expected 1, got (%d, %v)", total, err)
	}

	deleted, err := s.Delete(ctx, "items", id)
	if err != nil || deleted != 1 {
		t.Errorf("Delete: expected 1, got (%d, %v)", deleted, err)
	}
	if _, err := s.Get(ctx, "items", id); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestStoreCloseResetsEngine(t *testing.T) {
	s := newTestStore()
	ctx := context.Background()

	if _, err := s.Create(ctx, "items", Fields{"n": 1}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := s.Close(ctx); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// In-memory data does not survive a close/re-probe cycle.
	count, err := s.Count(ctx, "items", nil)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected fresh engine after Close, got %d docs", count)
	}
}
