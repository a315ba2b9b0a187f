package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/custodia-labs/docspace/internal/core/domain"
	"github.com/custodia-labs/docspace/internal/core/ports/driven"
	"github.com/custodia-labs/docspace/internal/core/ports/driving"
)

// Ensure documentService implements DocumentService
var _ driving.DocumentService = (*documentService)(nil)

// documentService implements the DocumentService interface
type documentService struct {
	documents driven.DocumentStore
	spaces    driven.SpaceStore
	slugs     driving.SlugRegistry
	lease     *lease
	logger    *slog.Logger
	now       func() time.Time
}

// DocumentServiceConfig holds dependencies of the document service
type DocumentServiceConfig struct {
	Documents driven.DocumentStore
	Spaces    driven.SpaceStore
	Slugs     driving.SlugRegistry
	Lock      driven.DistributedLock // Optional: serializes structural edits per space
	Logger    *slog.Logger
	LockTTL   time.Duration // default: 30s
	LockPoll  time.Duration // default: 25ms
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(cfg DocumentServiceConfig) driving.DocumentService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &documentService{
		documents: cfg.Documents,
		spaces:    cfg.Spaces,
		slugs:     cfg.Slugs,
		lease:     newLease(cfg.Lock, cfg.LockTTL, cfg.LockPoll, logger),
		logger:    logger,
		now:       time.Now,
	}
}

// Create inserts a node as the last child of its parent
func (s *documentService) Create(ctx context.Context, req driving.CreateDocumentRequest) (*domain.DocumentNode, error) {
	err := validation.ValidateStruct(&req,
		validation.Field(&req.SpaceID, validation.Required),
		validation.Field(&req.Title, validation.Required, validation.Length(1, maxTitleLength)),
		validation.Field(&req.Slug, slugRule),
	)
	if err != nil {
		return nil, toValidationError(err)
	}
	if req.ParentID != nil && *req.ParentID == "" {
		req.ParentID = nil
	}

	if _, err := s.spaces.Get(ctx, req.SpaceID); err != nil {
		return nil, err
	}

	var created *domain.DocumentNode
	err = s.lease.with(ctx, treeLeaseName(req.SpaceID), func(ctx context.Context) error {
		if req.ParentID != nil {
			if _, err := s.liveParent(ctx, req.SpaceID, *req.ParentID); err != nil {
				return err
			}
		}

		id := uuid.NewString()
		scope := domain.SpaceScope(req.SpaceID)
		slug, err := claimSlug(ctx, s.slugs, scope, req.Slug, req.Title, id)
		if err != nil {
			return err
		}

		now := s.now()
		doc := &domain.DocumentNode{
			ID:        id,
			SpaceID:   req.SpaceID,
			Title:     req.Title,
			Slug:      slug,
			ParentID:  req.ParentID,
			IsPublic:  req.IsPublic,
			CreatedAt: now,
			UpdatedAt: now,
		}
		doc.SetContent(req.Content)

		if err := s.documents.Create(ctx, doc); err != nil {
			s.releaseSlug(ctx, scope, slug, id)
			return err
		}
		created = doc
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("document created", "document_id", created.ID, "space_id", created.SpaceID, "order_index", created.OrderIndex)
	return created, nil
}

// Get retrieves a live node
func (s *documentService) Get(ctx context.Context, id string) (*domain.DocumentNode, error) {
	doc, err := s.documents.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.IsDeleted {
		return nil, domain.NewNotFound("document", id)
	}
	return doc, nil
}

// Update edits fields in place and re-derives excerpt and word count
func (s *documentService) Update(ctx context.Context, id string, req driving.UpdateDocumentRequest) (*domain.DocumentNode, error) {
	err := validation.ValidateStruct(&req,
		validation.Field(&req.Title, validation.NilOrNotEmpty, validation.Length(1, maxTitleLength)),
		validation.Field(&req.Slug, validation.NilOrNotEmpty, slugRule),
	)
	if err != nil {
		return nil, toValidationError(err)
	}

	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		doc.Title = *req.Title
	}
	if req.Content != nil {
		doc.SetContent(*req.Content)
	}
	if req.IsPublic != nil {
		doc.IsPublic = *req.IsPublic
	}

	scope := domain.SpaceScope(doc.SpaceID)
	oldSlug := doc.Slug
	if req.Slug != nil && domain.NormalizeSlug(*req.Slug) != oldSlug {
		slug, err := s.slugs.Reserve(ctx, scope, *req.Slug, doc.ID)
		if err != nil {
			return nil, err
		}
		doc.Slug = slug
	}
	doc.UpdatedAt = s.now()

	if err := s.documents.Update(ctx, doc, req.IfUnmodifiedSince); err != nil {
		if doc.Slug != oldSlug {
			s.releaseSlug(ctx, scope, doc.Slug, doc.ID)
		}
		return nil, err
	}
	if doc.Slug != oldSlug {
		s.releaseSlug(ctx, scope, oldSlug, doc.ID)
	}

	s.logger.Debug("document updated", "document_id", doc.ID, "word_count", doc.WordCount)
	return doc, nil
}

// Move reparents and/or reorders a node
func (s *documentService) Move(ctx context.Context, id string, req driving.MoveDocumentRequest) (*domain.DocumentNode, error) {
	if req.OrderIndex != nil && *req.OrderIndex < 0 {
		return nil, domain.NewValidationError("order_index", "must not be negative")
	}
	if req.ParentID.Present && req.ParentID.Value != nil && *req.ParentID.Value == "" {
		req.ParentID.Value = nil
	}

	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var moved *domain.DocumentNode
	err = s.lease.with(ctx, treeLeaseName(doc.SpaceID), func(ctx context.Context) error {
		// Re-read under the lease; a concurrent move may have changed the parent
		current, err := s.Get(ctx, id)
		if err != nil {
			return err
		}

		newParent := current.ParentID
		if req.ParentID.Present {
			newParent = req.ParentID.Value
		}
		if newParent != nil {
			if _, err := s.liveParent(ctx, current.SpaceID, *newParent); err != nil {
				return err
			}
			if err := s.validateNoCircularReference(ctx, id, *newParent); err != nil {
				return err
			}
		}

		moved, err = s.documents.Move(ctx, id, newParent, req.OrderIndex, s.now())
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("document moved",
		"document_id", id,
		"parent_id", domain.StringValue(moved.ParentID),
		"order_index", moved.OrderIndex,
	)
	return moved, nil
}

// Delete tombstones the node and every descendant, then releases their slugs
func (s *documentService) Delete(ctx context.Context, id string) error {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	var removed []*domain.DocumentNode
	err = s.lease.with(ctx, treeLeaseName(doc.SpaceID), func(ctx context.Context) error {
		removed, err = s.deleteLocked(ctx, doc.SpaceID, id)
		return err
	})
	if err != nil {
		return err
	}
	s.releaseSlugs(ctx, doc.SpaceID, removed)

	s.logger.Info("document deleted", "document_id", id, "space_id", doc.SpaceID, "subtree_size", len(removed))
	return nil
}

// deleteLocked tombstones id and its subtree. The caller holds the tree lease.
func (s *documentService) deleteLocked(ctx context.Context, spaceID, id string) ([]*domain.DocumentNode, error) {
	removed, err := s.subtree(ctx, spaceID, id)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(removed))
	for i, n := range removed {
		ids[i] = n.ID
	}
	if err := s.documents.SoftDelete(ctx, id, ids, s.now()); err != nil {
		return nil, err
	}
	return removed, nil
}

func (s *documentService) releaseSlugs(ctx context.Context, spaceID string, nodes []*domain.DocumentNode) {
	scope := domain.SpaceScope(spaceID)
	for _, n := range nodes {
		s.releaseSlug(ctx, scope, n.Slug, n.ID)
	}
}

// GetBySlug retrieves a live node by slug within spaceID
func (s *documentService) GetBySlug(ctx context.Context, spaceID, slug string) (*domain.DocumentNode, error) {
	if _, err := s.spaces.Get(ctx, spaceID); err != nil {
		return nil, err
	}
	nodes, err := s.documents.ListBySpace(ctx, spaceID)
	if err != nil {
		return nil, err
	}
	want := domain.NormalizeSlug(slug)
	for _, n := range nodes {
		if n.Slug == want {
			return n, nil
		}
	}
	return nil, domain.NewNotFound("document", slug)
}

// Duplicate copies id and its live descendants with fresh ids and slugs.
// The copied root goes last among the siblings of id; descendants keep their relative order.
func (s *documentService) Duplicate(ctx context.Context, id string, req driving.DuplicateDocumentRequest) ([]*domain.DocumentNode, error) {
	err := validation.ValidateStruct(&req,
		validation.Field(&req.NewTitle, validation.Length(1, maxTitleLength)),
		validation.Field(&req.NewSlug, slugRule),
	)
	if err != nil {
		return nil, toValidationError(err)
	}

	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var copies []*domain.DocumentNode
	err = s.lease.with(ctx, treeLeaseName(doc.SpaceID), func(ctx context.Context) error {
		nodes, err := s.subtree(ctx, doc.SpaceID, id)
		if err != nil {
			return err
		}
		copies, err = s.copyNodes(ctx, nodes, req)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("document duplicated",
		"document_id", id,
		"copy_id", copies[0].ID,
		"space_id", doc.SpaceID,
		"subtree_size", len(copies),
	)
	return copies, nil
}

// copyNodes inserts copies of a pre-ordered subtree. On failure every copy made so far is undone.
func (s *documentService) copyNodes(ctx context.Context, nodes []*domain.DocumentNode, req driving.DuplicateDocumentRequest) (copies []*domain.DocumentNode, err error) {
	root := nodes[0]
	scope := domain.SpaceScope(root.SpaceID)

	defer func() {
		if err == nil || len(copies) == 0 {
			return
		}
		ids := make([]string, len(copies))
		for i, c := range copies {
			ids[i] = c.ID
		}
		if derr := s.documents.SoftDelete(context.WithoutCancel(ctx), copies[0].ID, ids, s.now()); derr != nil {
			s.logger.Warn("failed to undo partial duplicate", "document_id", root.ID, "error", derr)
		}
		s.releaseSlugs(ctx, root.SpaceID, copies)
		copies = nil
	}()

	copyOf := make(map[string]string, len(nodes))
	for i, n := range nodes {
		if err := ctx.Err(); err != nil {
			return copies, err
		}

		id := uuid.NewString()
		title, explicit, base := n.Title, "", n.Slug
		parent := n.ParentID
		if i == 0 {
			title = req.NewTitle
			if title == "" {
				title = copyTitle(n.Title)
			}
			explicit, base = req.NewSlug, title
		} else {
			mapped := copyOf[domain.StringValue(n.ParentID)]
			parent = &mapped
		}

		slug, err := claimSlug(ctx, s.slugs, scope, explicit, base, id)
		if err != nil {
			return copies, err
		}

		now := s.now()
		c := &domain.DocumentNode{
			ID:        id,
			SpaceID:   n.SpaceID,
			Title:     title,
			Slug:      slug,
			ParentID:  parent,
			IsPublic:  n.IsPublic,
			CreatedAt: now,
			UpdatedAt: now,
		}
		c.SetContent(n.Content)
		if err := s.documents.Create(ctx, c); err != nil {
			s.releaseSlug(ctx, scope, slug, id)
			return copies, err
		}
		copyOf[n.ID] = id
		copies = append(copies, c)
	}
	return copies, nil
}

// copyTitle names a duplicate, trimming so the suffix always fits
func copyTitle(title string) string {
	const suffix = " (copy)"
	if r := []rune(title); len(r)+len(suffix) > maxTitleLength {
		title = string(r[:maxTitleLength-len(suffix)])
	}
	return title + suffix
}

// SetPublic flips is_public on one node
func (s *documentService) SetPublic(ctx context.Context, id string, public bool) (*domain.DocumentNode, error) {
	return s.Update(ctx, id, driving.UpdateDocumentRequest{IsPublic: &public})
}

// BatchDelete deletes each listed node with its subtree. Ids already removed with an
// earlier ancestor in the batch are skipped.
func (s *documentService) BatchDelete(ctx context.Context, spaceID string, ids []string) error {
	ids, err := s.batchIDs(ctx, spaceID, ids)
	if err != nil {
		return err
	}

	var removed []*domain.DocumentNode
	err = s.lease.with(ctx, treeLeaseName(spaceID), func(ctx context.Context) error {
		gone := make(map[string]bool)
		for _, id := range ids {
			if gone[id] {
				continue
			}
			nodes, err := s.deleteLocked(ctx, spaceID, id)
			if err != nil {
				return err
			}
			for _, n := range nodes {
				gone[n.ID] = true
			}
			removed = append(removed, nodes...)
		}
		return nil
	})
	// Whatever was tombstoned before a failure stays deleted and frees its slugs
	s.releaseSlugs(ctx, spaceID, removed)
	if err != nil {
		return err
	}

	s.logger.Info("documents deleted", "space_id", spaceID, "requested", len(ids), "removed", len(removed))
	return nil
}

// BatchSetPublic sets is_public on each listed node
func (s *documentService) BatchSetPublic(ctx context.Context, spaceID string, ids []string, public bool) ([]*domain.DocumentNode, error) {
	ids, err := s.batchIDs(ctx, spaceID, ids)
	if err != nil {
		return nil, err
	}

	var updated []*domain.DocumentNode
	err = s.lease.with(ctx, treeLeaseName(spaceID), func(ctx context.Context) error {
		for _, id := range ids {
			doc, err := s.SetPublic(ctx, id, public)
			if err != nil {
				return err
			}
			updated = append(updated, doc)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("documents visibility changed", "space_id", spaceID, "count", len(updated), "is_public", public)
	return updated, nil
}

// batchIDs dedupes ids and checks each is a live node of spaceID before anything changes
func (s *documentService) batchIDs(ctx context.Context, spaceID string, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, domain.NewValidationError("document_ids", "must not be empty")
	}
	if len(ids) > maxBatchSize {
		return nil, domain.NewValidationError("document_ids", fmt.Sprintf("at most %d documents per batch", maxBatchSize))
	}

	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		doc, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if doc.SpaceID != spaceID {
			return nil, domain.NewValidationError("document_ids", "document "+id+" belongs to another space")
		}
		out = append(out, id)
	}
	return out, nil
}

// ListChildren lists live children of parentID in order
func (s *documentService) ListChildren(ctx context.Context, spaceID string, parentID *string) ([]*domain.DocumentNode, error) {
	if parentID != nil {
		if _, err := s.liveParent(ctx, spaceID, *parentID); err != nil {
			return nil, err
		}
	} else if _, err := s.spaces.Get(ctx, spaceID); err != nil {
		return nil, err
	}
	return s.documents.ListChildren(ctx, spaceID, parentID)
}

// ListSubtree lists rootID and its live descendants in pre-order
func (s *documentService) ListSubtree(ctx context.Context, rootID string) ([]*domain.DocumentNode, error) {
	root, err := s.Get(ctx, rootID)
	if err != nil {
		return nil, err
	}
	return s.subtree(ctx, root.SpaceID, rootID)
}

func (s *documentService) subtree(ctx context.Context, spaceID, rootID string) ([]*domain.DocumentNode, error) {
	nodes, err := s.documents.ListBySpace(ctx, spaceID)
	if err != nil {
		return nil, err
	}
	f := newForest(nodes)
	root, ok := f.byID[rootID]
	if !ok {
		return nil, domain.NewNotFound("document", rootID)
	}
	return f.preorder([]*domain.DocumentNode{root})
}

// liveParent loads a parent candidate and checks it is live and in the same space
func (s *documentService) liveParent(ctx context.Context, spaceID, parentID string) (*domain.DocumentNode, error) {
	parent, err := s.Get(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if parent.SpaceID != spaceID {
		return nil, domain.NewValidationError("parent_id", "parent belongs to another space")
	}
	return parent, nil
}

// validateNoCircularReference walks the ancestors of newParentID looking for nodeID
func (s *documentService) validateNoCircularReference(ctx context.Context, nodeID, newParentID string) error {
	visited := make(map[string]bool)
	current := &newParentID
	for current != nil {
		if *current == nodeID {
			return &domain.CycleError{NodeID: nodeID, ParentID: newParentID}
		}
		if visited[*current] {
			return &domain.CycleError{NodeID: *current}
		}
		visited[*current] = true

		ancestor, err := s.documents.Get(ctx, *current)
		if err != nil {
			if isNotFound(err) {
				return nil
			}
			return fmt.Errorf("walk ancestors: %w", err)
		}
		current = ancestor.ParentID
	}
	return nil
}

func (s *documentService) releaseSlug(ctx context.Context, scope domain.SlugScope, slug, owner string) {
	if err := s.slugs.Release(context.WithoutCancel(ctx), scope, slug, owner); err != nil {
		s.logger.Warn("failed to release slug", "scope", scope, "slug", slug, "error", err)
	}
}
