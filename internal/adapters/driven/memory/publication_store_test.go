package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/custodia-labs/docspace/internal/core/domain"
)

func newPublication(id string, version int, at time.Time) *domain.Publication {
	return &domain.Publication{
		ID:          id,
		SpaceID:     "s1",
		Slug:        "handbook",
		Version:     version,
		Title:       "Handbook",
		IsActive:    true,
		PublishedAt: at,
		UpdatedAt:   at,
	}
}

func snapshotDocs(pubID string, slugs ...string) []*domain.PublicationDocument {
	docs := make([]*domain.PublicationDocument, len(slugs))
	for i, slug := range slugs {
		docs[i] = &domain.PublicationDocument{ID: pubID + "-" + slug, PublicationID: pubID, Slug: slug, OrderIndex: i}
	}
	return docs
}

func TestPublicationStore_CommitSwapsActiveVersion(t *testing.T) {
	s := NewPublicationStore()
	ctx := context.Background()
	t0 := time.Now()

	if err := s.Commit(ctx, newPublication("p1", 1, t0), snapshotDocs("p1", "intro")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Commit(ctx, newPublication("p2", 2, t0.Add(time.Second)), snapshotDocs("p2", "intro", "setup")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	active, err := s.GetActiveBySlug(ctx, "handbook")
	if err != nil || active.ID != "p2" {
		t.Fatalf("expected p2 active, got %+v %v", active, err)
	}
	old, _ := s.Get(ctx, "p1")
	if old.IsActive {
		t.Error("expected p1 to be deactivated")
	}

	latest, _ := s.LatestVersion(ctx, "handbook")
	if latest != 2 {
		t.Errorf("expected latest version 2, got %d", latest)
	}

	list, _ := s.ListBySpace(ctx, "s1", true)
	if len(list) != 2 || list[0].ID != "p2" {
		t.Errorf("expected newest first, got %v", list)
	}
	list, _ = s.ListBySpace(ctx, "s1", false)
	if len(list) != 1 {
		t.Errorf("expected only active publication, got %d", len(list))
	}
}

func TestPublicationStore_CommitRejectsStaleVersion(t *testing.T) {
	s := NewPublicationStore()
	ctx := context.Background()

	_ = s.Commit(ctx, newPublication("p1", 1, time.Now()), nil)
	err := s.Commit(ctx, newPublication("p2", 1, time.Now()), snapshotDocs("p2", "intro"))
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if s.DocumentCount() != 0 {
		t.Errorf("failed commit left %d documents behind", s.DocumentCount())
	}
	if _, err := s.Get(ctx, "p2"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("failed commit left a publication behind: %v", err)
	}
}

func TestPublicationStore_CommitRejectsDuplicateDocumentSlugs(t *testing.T) {
	s := NewPublicationStore()
	err := s.Commit(context.Background(), newPublication("p1", 1, time.Now()), snapshotDocs("p1", "intro", "intro"))
	if !errors.Is(err, domain.ErrConflict) {
		t.Errorf("expected conflict, got %v", err)
	}
}

func TestPublicationStore_CommitHonoursCancellation(t *testing.T) {
	s := NewPublicationStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.Commit(ctx, newPublication("p1", 1, time.Now()), nil); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestPublicationStore_ActivateConflict(t *testing.T) {
	s := NewPublicationStore()
	ctx := context.Background()

	_ = s.Commit(ctx, newPublication("p1", 1, time.Now()), nil)
	_ = s.Commit(ctx, newPublication("p2", 2, time.Now()), nil)

	if err := s.Activate(ctx, "p1", time.Now()); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("expected conflict, got %v", err)
	}

	_ = s.Deactivate(ctx, "p2", time.Now())
	if err := s.Activate(ctx, "p1", time.Now()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestPublicationStore_DeleteLeavesTombstone(t *testing.T) {
	s := NewPublicationStore()
	ctx := context.Background()

	_ = s.Commit(ctx, newPublication("p1", 1, time.Now()), snapshotDocs("p1", "intro"))
	if err := s.Delete(ctx, "p1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	deleted, _ := s.IsDeleted(ctx, "p1")
	if !deleted {
		t.Error("expected tombstone")
	}
	if _, err := s.ListDocuments(ctx, "p1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected documents gone, got %v", err)
	}
	latest, _ := s.LatestVersion(ctx, "handbook")
	if latest != 1 {
		t.Errorf("version high-water mark must survive delete, got %d", latest)
	}
}

func TestPublicationStore_IncrementViews(t *testing.T) {
	s := NewPublicationStore()
	ctx := context.Background()
	_ = s.Commit(ctx, newPublication("p1", 1, time.Now()), nil)

	for i := 0; i < 3; i++ {
		_ = s.IncrementViews(ctx, "p1")
	}
	pub, _ := s.Get(ctx, "p1")
	if pub.TotalViews != 3 {
		t.Errorf("expected 3 views, got %d", pub.TotalViews)
	}
}
