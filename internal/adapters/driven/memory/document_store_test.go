package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/custodia-labs/docspace/internal/core/domain"
)

func newNode(id, slug string, parentID *string) *domain.DocumentNode {
	return &domain.DocumentNode{ID: id, SpaceID: "s1", Title: id, Slug: slug, ParentID: parentID}
}

func childIDs(t *testing.T, s *DocumentStore, parentID *string) []string {
	t.Helper()
	nodes, err := s.ListChildren(context.Background(), "s1", parentID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		if n.OrderIndex != i {
			t.Errorf("node %s has order_index %d at position %d", n.ID, n.OrderIndex, i)
		}
		ids[i] = n.ID
	}
	return ids
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestDocumentStore_CreateAppendsToSiblings(t *testing.T) {
	s := NewDocumentStore()
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if err := s.Create(ctx, newNode(id, "slug-"+id, nil)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if got := childIDs(t, s, nil); !equalIDs(got, []string{"a", "b", "c"}) {
		t.Errorf("unexpected root order %v", got)
	}
}

func TestDocumentStore_CreateRejectsDuplicateSlugCaseInsensitive(t *testing.T) {
	s := NewDocumentStore()
	ctx := context.Background()

	if err := s.Create(ctx, newNode("a", "intro", nil)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := s.Create(ctx, newNode("b", "INTRO", nil))
	if !errors.Is(err, domain.ErrConflict) {
		t.Errorf("expected conflict, got %v", err)
	}

	other := newNode("c", "intro", nil)
	other.SpaceID = "s2"
	if err := s.Create(ctx, other); err != nil {
		t.Errorf("slug should be free in another space: %v", err)
	}
}

func TestDocumentStore_CreateRequiresLiveParent(t *testing.T) {
	s := NewDocumentStore()
	ctx := context.Background()

	err := s.Create(ctx, newNode("a", "child", domain.StringPtr("missing")))
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestDocumentStore_GetReturnsCopy(t *testing.T) {
	s := NewDocumentStore()
	ctx := context.Background()
	_ = s.Create(ctx, newNode("a", "alpha", nil))

	got, _ := s.Get(ctx, "a")
	got.Title = "changed"

	again, _ := s.Get(ctx, "a")
	if again.Title != "a" {
		t.Errorf("store leaked internal state: %q", again.Title)
	}
}

func TestDocumentStore_UpdatePrecondition(t *testing.T) {
	s := NewDocumentStore()
	ctx := context.Background()

	saved := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	doc := newNode("a", "alpha", nil)
	doc.UpdatedAt = saved
	_ = s.Create(ctx, doc)

	stale := saved.Add(-time.Minute)
	doc.Title = "stale write"
	if err := s.Update(ctx, doc, &stale); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("expected conflict, got %v", err)
	}

	doc.Title = "fresh write"
	doc.UpdatedAt = saved.Add(time.Minute)
	if err := s.Update(ctx, doc, &saved); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := s.Get(ctx, "a")
	if got.Title != "fresh write" {
		t.Errorf("expected fresh write, got %q", got.Title)
	}
}

func TestDocumentStore_MoveReordersAndReparents(t *testing.T) {
	s := NewDocumentStore()
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		_ = s.Create(ctx, newNode(id, "slug-"+id, nil))
	}

	zero := 0
	if _, err := s.Move(ctx, "c", nil, &zero, time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := childIDs(t, s, nil); !equalIDs(got, []string{"c", "a", "b"}) {
		t.Errorf("unexpected order after reorder %v", got)
	}

	moved, err := s.Move(ctx, "b", domain.StringPtr("a"), nil, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if domain.StringValue(moved.ParentID) != "a" || moved.OrderIndex != 0 {
		t.Errorf("unexpected moved node %+v", moved)
	}
	if got := childIDs(t, s, nil); !equalIDs(got, []string{"c", "a"}) {
		t.Errorf("unexpected roots %v", got)
	}
	if got := childIDs(t, s, domain.StringPtr("a")); !equalIDs(got, []string{"b"}) {
		t.Errorf("unexpected children %v", got)
	}

	far := 99
	if _, err := s.Move(ctx, "c", domain.StringPtr("a"), &far, time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := childIDs(t, s, domain.StringPtr("a")); !equalIDs(got, []string{"b", "c"}) {
		t.Errorf("out of range index should append, got %v", got)
	}
}

func TestDocumentStore_SoftDeleteSubtree(t *testing.T) {
	s := NewDocumentStore()
	ctx := context.Background()

	_ = s.Create(ctx, newNode("a", "alpha", nil))
	_ = s.Create(ctx, newNode("b", "beta", nil))
	_ = s.Create(ctx, newNode("a1", "alpha-one", domain.StringPtr("a")))

	if err := s.SoftDelete(ctx, "a", []string{"a", "a1"}, time.Now()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := childIDs(t, s, nil); !equalIDs(got, []string{"b"}) {
		t.Errorf("unexpected roots %v", got)
	}
	live, _ := s.ListBySpace(ctx, "s1")
	if len(live) != 1 {
		t.Errorf("expected 1 live node, got %d", len(live))
	}
	tomb, err := s.Get(ctx, "a1")
	if err != nil || !tomb.IsDeleted {
		t.Errorf("expected tombstoned descendant, got %+v %v", tomb, err)
	}

	// The slug of a deleted node is free again.
	if err := s.Create(ctx, newNode("c", "alpha", nil)); err != nil {
		t.Errorf("expected slug reuse after delete, got %v", err)
	}
	if err := s.SoftDelete(ctx, "a", []string{"a"}, time.Now()); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected not found for second delete, got %v", err)
	}
}
