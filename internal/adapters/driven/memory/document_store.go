package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/docspace/internal/core/domain"
	"github.com/custodia-labs/docspace/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DocumentStore = (*DocumentStore)(nil)

// childKey addresses one sibling list; parent "" means the roots of the space
type childKey struct {
	spaceID  string
	parentID string
}

// DocumentStore keeps nodes in an id-keyed arena with a reverse child index.
// Each sibling list is kept dense, so a node's position equals its order_index.
type DocumentStore struct {
	mu       sync.RWMutex
	nodes    map[string]*domain.DocumentNode
	children map[childKey][]string
}

// NewDocumentStore creates an empty DocumentStore
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		nodes:    make(map[string]*domain.DocumentNode),
		children: make(map[childKey][]string),
	}
}

func keyOf(spaceID string, parentID *string) childKey {
	return childKey{spaceID: spaceID, parentID: domain.StringValue(parentID)}
}

func (s *DocumentStore) Create(ctx context.Context, doc *domain.DocumentNode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.nodes[doc.ID]; exists {
		return &domain.ConflictError{Message: "document already exists", ResourceType: "document", ResourceID: doc.ID}
	}
	if err := s.checkSlugLocked(doc.SpaceID, doc.Slug, doc.ID); err != nil {
		return err
	}
	if doc.ParentID != nil {
		parent, ok := s.nodes[*doc.ParentID]
		if !ok || parent.IsDeleted || parent.SpaceID != doc.SpaceID {
			return domain.NewNotFound("document", *doc.ParentID)
		}
	}

	key := keyOf(doc.SpaceID, doc.ParentID)
	doc.OrderIndex = len(s.children[key])
	s.children[key] = append(s.children[key], doc.ID)
	s.nodes[doc.ID] = doc.Clone()
	return nil
}

func (s *DocumentStore) Get(ctx context.Context, id string) (*domain.DocumentNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	node, ok := s.nodes[id]
	if !ok {
		return nil, domain.NewNotFound("document", id)
	}
	return node.Clone(), nil
}

func (s *DocumentStore) ListBySpace(ctx context.Context, spaceID string) ([]*domain.DocumentNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.DocumentNode
	for _, node := range s.nodes {
		if node.SpaceID == spaceID && !node.IsDeleted {
			out = append(out, node.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *DocumentStore) ListChildren(ctx context.Context, spaceID string, parentID *string) ([]*domain.DocumentNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.children[keyOf(spaceID, parentID)]
	out := make([]*domain.DocumentNode, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.nodes[id].Clone())
	}
	return out, nil
}

func (s *DocumentStore) Update(ctx context.Context, doc *domain.DocumentNode, ifUnmodifiedSince *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.nodes[doc.ID]
	if !ok || stored.IsDeleted {
		return domain.NewNotFound("document", doc.ID)
	}
	if ifUnmodifiedSince != nil && stored.UpdatedAt.After(*ifUnmodifiedSince) {
		return &domain.ConflictError{
			Message:      "document was modified by another editor",
			ResourceType: "document",
			ResourceID:   doc.ID,
		}
	}
	if err := s.checkSlugLocked(stored.SpaceID, doc.Slug, doc.ID); err != nil {
		return err
	}

	stored.Title = doc.Title
	stored.Slug = doc.Slug
	stored.Content = doc.Content
	stored.Excerpt = doc.Excerpt
	stored.WordCount = doc.WordCount
	stored.IsPublic = doc.IsPublic
	stored.UpdatedAt = doc.UpdatedAt
	return nil
}

func (s *DocumentStore) Move(ctx context.Context, id string, newParentID *string, index *int, now time.Time) (*domain.DocumentNode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	node, ok := s.nodes[id]
	if !ok || node.IsDeleted {
		return nil, domain.NewNotFound("document", id)
	}
	if newParentID != nil {
		parent, ok := s.nodes[*newParentID]
		if !ok || parent.IsDeleted || parent.SpaceID != node.SpaceID {
			return nil, domain.NewNotFound("document", *newParentID)
		}
	}

	src := keyOf(node.SpaceID, node.ParentID)
	dst := keyOf(node.SpaceID, newParentID)

	s.children[src] = removeID(s.children[src], id)
	s.renumberLocked(src)

	siblings := s.children[dst]
	pos := len(siblings)
	if index != nil && *index >= 0 && *index < pos {
		pos = *index
	}
	siblings = append(siblings, "")
	copy(siblings[pos+1:], siblings[pos:])
	siblings[pos] = id
	s.children[dst] = siblings

	if newParentID == nil {
		node.ParentID = nil
	} else {
		p := *newParentID
		node.ParentID = &p
	}
	node.UpdatedAt = now
	s.renumberLocked(dst)

	return node.Clone(), nil
}

func (s *DocumentStore) SoftDelete(ctx context.Context, rootID string, subtreeIDs []string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	root, ok := s.nodes[rootID]
	if !ok || root.IsDeleted {
		return domain.NewNotFound("document", rootID)
	}

	key := keyOf(root.SpaceID, root.ParentID)
	s.children[key] = removeID(s.children[key], rootID)
	s.renumberLocked(key)

	for _, id := range subtreeIDs {
		node, ok := s.nodes[id]
		if !ok {
			continue
		}
		node.IsDeleted = true
		node.UpdatedAt = now
		delete(s.children, keyOf(node.SpaceID, &node.ID))
	}
	return nil
}

// checkSlugLocked mirrors the unique (space_id, lower(slug)) index over live nodes.
func (s *DocumentStore) checkSlugLocked(spaceID, slug, selfID string) error {
	folded := domain.NormalizeSlug(slug)
	for _, node := range s.nodes {
		if node.ID == selfID || node.IsDeleted || node.SpaceID != spaceID {
			continue
		}
		if domain.NormalizeSlug(node.Slug) == folded {
			return &domain.ConflictError{
				Message:      "slug " + folded + " is already used in this space",
				ResourceType: "document",
				ResourceID:   node.ID,
			}
		}
	}
	return nil
}

func (s *DocumentStore) renumberLocked(key childKey) {
	ids := s.children[key]
	if len(ids) == 0 {
		delete(s.children, key)
		return
	}
	for i, id := range ids {
		s.nodes[id].OrderIndex = i
	}
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i:i], ids[i+1:]...)
		}
	}
	return ids
}
