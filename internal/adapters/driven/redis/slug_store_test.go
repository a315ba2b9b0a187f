package redis

import (
	"context"
	"testing"

	"github.com/custodia-labs/docspace/internal/core/domain"
)

func TestSlugStore_Reserve(t *testing.T) {
	_, client := setupTestRedis(t)
	s := NewSlugStore(client)
	ctx := context.Background()

	tests := []struct {
		name  string
		owner string
		want  bool
	}{
		{"first claim", "space-1", true},
		{"same owner again", "space-1", true},
		{"another owner", "space-2", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Reserve(ctx, domain.ScopePublication, "handbook", tt.owner)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestSlugStore_ReleaseChecksOwner(t *testing.T) {
	mr, client := setupTestRedis(t)
	s := NewSlugStore(client)
	ctx := context.Background()

	_, _ = s.Reserve(ctx, domain.SpaceScope("s1"), "intro", "doc-1")
	mr.CheckGet(t, "docspace:slug:space:s1:intro", "doc-1")

	_ = s.Release(ctx, domain.SpaceScope("s1"), "intro", "doc-2")
	if owner, _ := s.Owner(ctx, domain.SpaceScope("s1"), "intro"); owner != "doc-1" {
		t.Errorf("expected doc-1 to keep the slug, got %q", owner)
	}

	_ = s.Release(ctx, domain.SpaceScope("s1"), "intro", "doc-1")
	if mr.Exists("docspace:slug:space:s1:intro") {
		t.Error("expected key removed after release")
	}
	owner, err := s.Owner(ctx, domain.SpaceScope("s1"), "intro")
	if err != nil || owner != "" {
		t.Errorf("expected free slug, got %q %v", owner, err)
	}
}

func TestSlugStore_ScopesAreIndependent(t *testing.T) {
	_, client := setupTestRedis(t)
	s := NewSlugStore(client)
	ctx := context.Background()

	a, _ := s.Reserve(ctx, domain.SpaceScope("s1"), "intro", "d1")
	b, _ := s.Reserve(ctx, domain.SpaceScope("s2"), "intro", "d2")
	c, _ := s.Reserve(ctx, domain.ScopePublication, "intro", "p1")
	if !a || !b || !c {
		t.Error("expected the same slug to be free in every scope")
	}
}
