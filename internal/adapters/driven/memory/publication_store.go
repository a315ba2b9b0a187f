package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/docspace/internal/core/domain"
	"github.com/custodia-labs/docspace/internal/core/ports/driven"
)

var _ driven.PublicationStore = (*PublicationStore)(nil)

// PublicationStore keeps publications and their snapshot documents in memory.
// A single mutex makes Commit all-or-nothing.
type PublicationStore struct {
	mu      sync.RWMutex
	pubs    map[string]*domain.Publication
	docs    map[string][]*domain.PublicationDocument
	latest  map[string]int
	deleted map[string]bool
}

// NewPublicationStore creates an empty PublicationStore
func NewPublicationStore() *PublicationStore {
	return &PublicationStore{
		pubs:    make(map[string]*domain.Publication),
		docs:    make(map[string][]*domain.PublicationDocument),
		latest:  make(map[string]int),
		deleted: make(map[string]bool),
	}
}

func (s *PublicationStore) Commit(ctx context.Context, pub *domain.Publication, docs []*domain.PublicationDocument) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if want := s.latest[pub.Slug] + 1; pub.Version != want {
		return &domain.ConflictError{
			Message:      fmt.Sprintf("publication %s moved to version %d", pub.Slug, want-1),
			ResourceType: "publication",
			ResourceID:   pub.Slug,
		}
	}
	seen := make(map[string]bool, len(docs))
	for _, d := range docs {
		if seen[d.Slug] {
			return &domain.ConflictError{Message: "duplicate document slug " + d.Slug, ResourceType: "publication_document"}
		}
		seen[d.Slug] = true
	}

	if pub.IsActive {
		for _, existing := range s.pubs {
			if existing.Slug == pub.Slug && existing.IsActive {
				existing.IsActive = false
				existing.UpdatedAt = pub.PublishedAt
			}
		}
	}

	s.pubs[pub.ID] = pub.Clone()
	stored := make([]*domain.PublicationDocument, len(docs))
	for i, d := range docs {
		stored[i] = d.Clone()
	}
	s.docs[pub.ID] = stored
	s.latest[pub.Slug] = pub.Version
	return nil
}

func (s *PublicationStore) LatestVersion(ctx context.Context, slug string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest[slug], nil
}

func (s *PublicationStore) Get(ctx context.Context, id string) (*domain.Publication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pub, ok := s.pubs[id]
	if !ok {
		return nil, domain.NewNotFound("publication", id)
	}
	return pub.Clone(), nil
}

func (s *PublicationStore) GetActiveBySlug(ctx context.Context, slug string) (*domain.Publication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, pub := range s.pubs {
		if pub.Slug == slug && pub.IsActive {
			return pub.Clone(), nil
		}
	}
	return nil, domain.NewNotFound("publication", slug)
}

func (s *PublicationStore) ListBySpace(ctx context.Context, spaceID string, includeInactive bool) ([]*domain.Publication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Publication
	for _, pub := range s.pubs {
		if pub.SpaceID != spaceID || (!includeInactive && !pub.IsActive) {
			continue
		}
		out = append(out, pub.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PublishedAt.Equal(out[j].PublishedAt) {
			return out[i].PublishedAt.After(out[j].PublishedAt)
		}
		if out[i].Slug != out[j].Slug {
			return out[i].Slug < out[j].Slug
		}
		return out[i].Version > out[j].Version
	})
	return out, nil
}

func (s *PublicationStore) Deactivate(ctx context.Context, id string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pub, ok := s.pubs[id]
	if !ok {
		return domain.NewNotFound("publication", id)
	}
	if pub.IsActive {
		pub.IsActive = false
		pub.UpdatedAt = now
	}
	return nil
}

func (s *PublicationStore) Activate(ctx context.Context, id string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pub, ok := s.pubs[id]
	if !ok {
		return domain.NewNotFound("publication", id)
	}
	for _, other := range s.pubs {
		if other.ID != id && other.Slug == pub.Slug && other.IsActive {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("version %d of %s is active", other.Version, pub.Slug),
				ResourceType: "publication",
				ResourceID:   other.ID,
			}
		}
	}
	pub.IsActive = true
	pub.UpdatedAt = now
	return nil
}

func (s *PublicationStore) UpdateMetadata(ctx context.Context, id, title, description string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pub, ok := s.pubs[id]
	if !ok {
		return domain.NewNotFound("publication", id)
	}
	pub.Title = title
	pub.Description = description
	pub.UpdatedAt = now
	return nil
}

func (s *PublicationStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pubs[id]; !ok {
		return domain.NewNotFound("publication", id)
	}
	delete(s.pubs, id)
	delete(s.docs, id)
	s.deleted[id] = true
	return nil
}

func (s *PublicationStore) IsDeleted(ctx context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deleted[id], nil
}

func (s *PublicationStore) IncrementViews(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pub, ok := s.pubs[id]
	if !ok {
		return domain.NewNotFound("publication", id)
	}
	pub.TotalViews++
	return nil
}

func (s *PublicationStore) ListDocuments(ctx context.Context, publicationID string) ([]*domain.PublicationDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.pubs[publicationID]; !ok {
		return nil, domain.NewNotFound("publication", publicationID)
	}
	docs := s.docs[publicationID]
	out := make([]*domain.PublicationDocument, len(docs))
	for i, d := range docs {
		out[i] = d.Clone()
	}
	return out, nil
}

func (s *PublicationStore) GetDocumentBySlug(ctx context.Context, publicationID, slug string) (*domain.PublicationDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, d := range s.docs[publicationID] {
		if d.Slug == slug {
			return d.Clone(), nil
		}
	}
	return nil, domain.NewNotFound("publication_document", slug)
}

// DocumentCount returns the number of stored snapshot documents across all publications.
func (s *PublicationStore) DocumentCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, docs := range s.docs {
		n += len(docs)
	}
	return n
}
