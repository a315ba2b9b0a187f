package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/docspace/internal/core/domain"
	"github.com/custodia-labs/docspace/internal/core/ports/driven"
)

var _ driven.SlugStore = (*SlugStore)(nil)

type slugKey struct {
	scope domain.SlugScope
	slug  string
}

// SlugStore holds reservations in a map guarded by one mutex
type SlugStore struct {
	mu     sync.Mutex
	owners map[slugKey]string
}

// NewSlugStore creates an empty SlugStore
func NewSlugStore() *SlugStore {
	return &SlugStore{owners: make(map[slugKey]string)}
}

func (s *SlugStore) Reserve(ctx context.Context, scope domain.SlugScope, slug, owner string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := slugKey{scope, slug}
	if current, ok := s.owners[key]; ok {
		return current == owner, nil
	}
	s.owners[key] = owner
	return true, nil
}

func (s *SlugStore) Release(ctx context.Context, scope domain.SlugScope, slug, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := slugKey{scope, slug}
	if s.owners[key] == owner {
		delete(s.owners, key)
	}
	return nil
}

func (s *SlugStore) Owner(ctx context.Context, scope domain.SlugScope, slug string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.owners[slugKey{scope, slug}], nil
}
