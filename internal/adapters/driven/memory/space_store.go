package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/docspace/internal/core/domain"
	"github.com/custodia-labs/docspace/internal/core/ports/driven"
)

var _ driven.SpaceStore = (*SpaceStore)(nil)

// SpaceStore is an in-memory SpaceStore
type SpaceStore struct {
	mu     sync.RWMutex
	spaces map[string]*domain.Space
}

// NewSpaceStore creates an empty SpaceStore
func NewSpaceStore() *SpaceStore {
	return &SpaceStore{spaces: make(map[string]*domain.Space)}
}

func (s *SpaceStore) Create(ctx context.Context, space *domain.Space) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.spaces {
		if existing.ID == space.ID || existing.Slug == space.Slug {
			return &domain.ConflictError{Message: "space already exists", ResourceType: "space", ResourceID: existing.ID}
		}
	}
	c := *space
	s.spaces[space.ID] = &c
	return nil
}

func (s *SpaceStore) Get(ctx context.Context, id string) (*domain.Space, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	space, ok := s.spaces[id]
	if !ok {
		return nil, domain.NewNotFound("space", id)
	}
	c := *space
	return &c, nil
}

func (s *SpaceStore) List(ctx context.Context) ([]*domain.Space, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Space, 0, len(s.spaces))
	for _, space := range s.spaces {
		c := *space
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
