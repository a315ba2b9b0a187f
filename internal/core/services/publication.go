package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/custodia-labs/docspace/internal/core/domain"
	"github.com/custodia-labs/docspace/internal/core/ports/driven"
	"github.com/custodia-labs/docspace/internal/core/ports/driving"
)

var _ driving.PublicationService = (*publicationService)(nil)

// PublicationServiceConfig holds configuration for the publication service.
type PublicationServiceConfig struct {
	Publications driven.PublicationStore
	Documents    driven.DocumentStore
	Spaces       driven.SpaceStore
	Slugs        driving.SlugRegistry
	Lock         driven.DistributedLock // Optional: serializes lifecycle changes per (space, slug)
	Logger       *slog.Logger
	LockTTL      time.Duration // TTL for the publish lease (default: 30s)
	LockPoll     time.Duration // First wait between lease attempts (default: 25ms)
	MaxDocuments int           // Upper bound on snapshot size, 0 for no limit
}

type publicationService struct {
	publications driven.PublicationStore
	documents    driven.DocumentStore
	spaces       driven.SpaceStore
	slugs        driving.SlugRegistry
	lease        *lease
	logger       *slog.Logger
	maxDocuments int

	newID func() string
	now   func() time.Time
}

// NewPublicationService creates a new PublicationService
func NewPublicationService(cfg PublicationServiceConfig) driving.PublicationService {
	return newPublicationService(cfg)
}

func newPublicationService(cfg PublicationServiceConfig) *publicationService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &publicationService{
		publications: cfg.Publications,
		documents:    cfg.Documents,
		spaces:       cfg.Spaces,
		slugs:        cfg.Slugs,
		lease:        newLease(cfg.Lock, cfg.LockTTL, cfg.LockPoll, logger),
		logger:       logger,
		maxDocuments: cfg.MaxDocuments,
		newID:        uuid.NewString,
		now:          time.Now,
	}
}

// Publish snapshots the selected subtree into a new active version of opts.Slug
func (s *publicationService) Publish(ctx context.Context, spaceID string, opts domain.PublishOptions) (*domain.Publication, error) {
	if err := validatePublishOptions(&opts); err != nil {
		return nil, err
	}
	if _, err := s.spaces.Get(ctx, spaceID); err != nil {
		return nil, err
	}

	slug := domain.NormalizeSlug(opts.Slug)
	var pub *domain.Publication
	err := s.lease.with(ctx, publishLeaseName(spaceID, slug), func(ctx context.Context) error {
		var err error
		pub, err = s.publishLocked(ctx, spaceID, slug, opts)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("publication published",
		"publication_id", pub.ID,
		"space_id", spaceID,
		"slug", pub.Slug,
		"version", pub.Version,
		"document_count", pub.DocumentCount,
	)
	return pub, nil
}

// publishLocked runs reserve, select, stage and commit. The caller holds the (space, slug) lease.
func (s *publicationService) publishLocked(ctx context.Context, spaceID, slug string, opts domain.PublishOptions) (pub *domain.Publication, err error) {
	latest, err := s.publications.LatestVersion(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("read latest version: %w", err)
	}

	inUse, err := s.slugInUse(ctx, spaceID, slug)
	if err != nil {
		return nil, err
	}
	if _, err := s.slugs.Reserve(ctx, domain.ScopePublication, slug, spaceID); err != nil {
		return nil, err
	}
	if !inUse {
		// A failed publish with no surviving version leaves the slug free again
		defer func() {
			if err != nil {
				if rerr := s.slugs.Release(context.WithoutCancel(ctx), domain.ScopePublication, slug, spaceID); rerr != nil {
					s.logger.Warn("failed to release publication slug", "slug", slug, "error", rerr)
				}
			}
		}()
	}

	nodes, f, err := s.selectNodes(ctx, spaceID, opts.RootDocumentID, opts.IncludePrivate)
	if err != nil {
		return nil, err
	}

	now := s.now()
	pub = &domain.Publication{
		ID:             s.newID(),
		SpaceID:        spaceID,
		Slug:           slug,
		Version:        latest + 1,
		Title:          opts.Title,
		Description:    opts.Description,
		IsActive:       true,
		PublishedAt:    now,
		UpdatedAt:      now,
		RootDocumentID: opts.RootDocumentID,
		IncludePrivate: opts.IncludePrivate,
		ChangeSummary:  opts.ChangeSummary,
	}

	docs, err := s.stage(ctx, pub, nodes, f)
	if err != nil {
		return nil, err
	}
	pub.DocumentCount = len(docs)

	// Nothing is visible until Commit succeeds; a cancelled ctx drops the staged set here
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.publications.Commit(ctx, pub, docs); err != nil {
		if isCancellation(err) {
			return nil, err
		}
		return nil, fmt.Errorf("commit publication: %w", err)
	}
	return pub, nil
}

// selectNodes resolves the pre-order subtree and drops private nodes unless requested
func (s *publicationService) selectNodes(ctx context.Context, spaceID string, rootID *string, includePrivate bool) ([]*domain.DocumentNode, *forest, error) {
	all, err := s.documents.ListBySpace(ctx, spaceID)
	if err != nil {
		return nil, nil, err
	}
	f := newForest(all)

	starts := f.roots
	if rootID != nil {
		root, ok := f.byID[*rootID]
		if !ok {
			return nil, nil, domain.NewNotFound("document", *rootID)
		}
		starts = []*domain.DocumentNode{root}
	}
	ordered, err := f.preorder(starts)
	if err != nil {
		return nil, nil, err
	}

	selected := ordered[:0:0]
	for _, n := range ordered {
		if n.IsPublic || includePrivate {
			selected = append(selected, n)
		}
	}
	if len(selected) == 0 {
		return nil, nil, domain.NewValidationError("documents", "selection contains no documents")
	}
	if s.maxDocuments > 0 && len(selected) > s.maxDocuments {
		return nil, nil, domain.NewValidationError("documents",
			fmt.Sprintf("selection has %d documents, limit is %d", len(selected), s.maxDocuments))
	}
	return selected, f, nil
}

// stage copies selected nodes into snapshot documents.
// Parents are remapped to snapshot ids; a node whose parent was filtered out climbs to the
// nearest included ancestor, or becomes a snapshot root.
func (s *publicationService) stage(ctx context.Context, pub *domain.Publication, nodes []*domain.DocumentNode, f *forest) ([]*domain.PublicationDocument, error) {
	included := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		included[n.ID] = true
	}

	snapshotID := make(map[string]string, len(nodes))
	nextOrder := make(map[string]int)
	slugs := make(map[string]bool, len(nodes))
	docs := make([]*domain.PublicationDocument, 0, len(nodes))

	for _, n := range nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var parent *string
		for p, hops := n.ParentID, 0; p != nil && hops <= len(f.byID); hops++ {
			if included[*p] {
				id := snapshotID[*p]
				parent = &id
				break
			}
			ancestor, known := f.byID[*p]
			if !known {
				break
			}
			p = ancestor.ParentID
		}

		groupKey := domain.StringValue(parent)
		order := nextOrder[groupKey]
		nextOrder[groupKey] = order + 1

		wordCount := domain.CountWords(n.Content)
		doc := &domain.PublicationDocument{
			ID:            s.newID(),
			PublicationID: pub.ID,
			OriginalDocID: n.ID,
			Title:         n.Title,
			Slug:          uniqueSnapshotSlug(slugs, n.Slug),
			Content:       n.Content,
			Excerpt:       domain.Excerpt(n.Content),
			ParentID:      parent,
			OrderIndex:    order,
			WordCount:     wordCount,
			ReadingTime:   domain.ReadingTime(wordCount),
			CreatedAt:     pub.PublishedAt,
		}
		snapshotID[n.ID] = doc.ID
		docs = append(docs, doc)
	}
	return docs, nil
}

// uniqueSnapshotSlug claims slug in the snapshot-local set, suffixing on collision
func uniqueSnapshotSlug(taken map[string]bool, slug string) string {
	base := domain.NormalizeSlug(slug)
	candidate := base
	for n := 2; taken[candidate]; n++ {
		suffix := "-" + strconv.Itoa(n)
		stem := base
		if len(stem)+len(suffix) > domain.MaxSlugLength {
			stem = trimSlug(stem[:domain.MaxSlugLength-len(suffix)])
		}
		candidate = stem + suffix
	}
	taken[candidate] = true
	return candidate
}

// Republish publishes a new version with the options stored on id
func (s *publicationService) Republish(ctx context.Context, id, changeSummary string) (*domain.Publication, error) {
	prev, err := s.loadLive(ctx, id, "republish")
	if err != nil {
		return nil, err
	}
	if len(changeSummary) > maxDescriptionLength {
		return nil, domain.NewValidationError("change_summary", "is too long")
	}

	pub, err := s.Publish(ctx, prev.SpaceID, domain.PublishOptions{
		Slug:           prev.Slug,
		Title:          prev.Title,
		Description:    prev.Description,
		RootDocumentID: prev.RootDocumentID,
		IncludePrivate: prev.IncludePrivate,
		ChangeSummary:  changeSummary,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("publication republished", "previous_id", prev.ID, "publication_id", pub.ID, "version", pub.Version)
	return pub, nil
}

// Unpublish hides id from public reads; rows are kept for restore and preview
func (s *publicationService) Unpublish(ctx context.Context, id string) (*domain.Publication, error) {
	return s.transition(ctx, id, "unpublish", func(ctx context.Context, pub *domain.Publication) error {
		if !pub.IsActive {
			return nil
		}
		return s.publications.Deactivate(ctx, pub.ID, s.now())
	})
}

// Restore re-activates id unless another version of its slug is active
func (s *publicationService) Restore(ctx context.Context, id string) (*domain.Publication, error) {
	return s.transition(ctx, id, "restore", func(ctx context.Context, pub *domain.Publication) error {
		if pub.IsActive {
			return nil
		}
		if _, err := s.slugs.Reserve(ctx, domain.ScopePublication, pub.Slug, pub.SpaceID); err != nil {
			return err
		}
		return s.publications.Activate(ctx, pub.ID, s.now())
	})
}

// DeletePublication removes id and its documents; the slug is released once no version remains
func (s *publicationService) DeletePublication(ctx context.Context, id string) error {
	pub, err := s.loadLive(ctx, id, "delete")
	if err != nil {
		return err
	}

	err = s.lease.with(ctx, publishLeaseName(pub.SpaceID, pub.Slug), func(ctx context.Context) error {
		if _, err := s.loadLive(ctx, id, "delete"); err != nil {
			return err
		}
		if err := s.publications.Delete(ctx, id); err != nil {
			return err
		}

		inUse, err := s.slugInUse(ctx, pub.SpaceID, pub.Slug)
		if err != nil || inUse {
			return err
		}
		if err := s.slugs.Release(ctx, domain.ScopePublication, pub.Slug, pub.SpaceID); err != nil {
			s.logger.Warn("failed to release publication slug", "slug", pub.Slug, "error", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("publication deleted", "publication_id", id, "slug", pub.Slug, "version", pub.Version)
	return nil
}

// slugInUse reports whether any undeleted version of slug exists in spaceID
func (s *publicationService) slugInUse(ctx context.Context, spaceID, slug string) (bool, error) {
	versions, err := s.publications.ListBySpace(ctx, spaceID, true)
	if err != nil {
		return false, err
	}
	for _, v := range versions {
		if v.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

// Get retrieves a publication by ID
func (s *publicationService) Get(ctx context.Context, id string) (*domain.Publication, error) {
	return s.publications.Get(ctx, id)
}

// List lists publications of a space
func (s *publicationService) List(ctx context.Context, spaceID string, includeInactive bool) ([]*domain.Publication, error) {
	if _, err := s.spaces.Get(ctx, spaceID); err != nil {
		return nil, err
	}
	return s.publications.ListBySpace(ctx, spaceID, includeInactive)
}

// UpdateMetadata edits title and description in place
func (s *publicationService) UpdateMetadata(ctx context.Context, id string, req driving.UpdatePublicationRequest) (*domain.Publication, error) {
	err := validation.ValidateStruct(&req,
		validation.Field(&req.Title, validation.NilOrNotEmpty, validation.Length(1, maxTitleLength)),
		validation.Field(&req.Description, validation.Length(0, maxDescriptionLength)),
	)
	if err != nil {
		return nil, toValidationError(err)
	}

	pub, err := s.loadLive(ctx, id, "update")
	if err != nil {
		return nil, err
	}
	title, description := pub.Title, pub.Description
	if req.Title != nil {
		title = *req.Title
	}
	if req.Description != nil {
		description = *req.Description
	}
	if err := s.publications.UpdateMetadata(ctx, id, title, description, s.now()); err != nil {
		return nil, err
	}
	return s.publications.Get(ctx, id)
}

// PreviewTree returns the snapshot forest of id regardless of is_active
func (s *publicationService) PreviewTree(ctx context.Context, id string) ([]*domain.PublicationTreeNode, error) {
	if _, err := s.loadLive(ctx, id, "preview"); err != nil {
		return nil, err
	}
	docs, err := s.publications.ListDocuments(ctx, id)
	if err != nil {
		return nil, err
	}
	return buildPublicationTree(docs), nil
}

// PreviewDocument returns one snapshot document of id regardless of is_active
func (s *publicationService) PreviewDocument(ctx context.Context, id, docSlug string) (*domain.PublicationDocument, error) {
	if _, err := s.loadLive(ctx, id, "preview"); err != nil {
		return nil, err
	}
	return s.publications.GetDocumentBySlug(ctx, id, domain.NormalizeSlug(docSlug))
}

// transition runs a lifecycle change under the (space, slug) lease and returns the fresh row
func (s *publicationService) transition(ctx context.Context, id, operation string, fn func(context.Context, *domain.Publication) error) (*domain.Publication, error) {
	pub, err := s.loadLive(ctx, id, operation)
	if err != nil {
		return nil, err
	}

	err = s.lease.with(ctx, publishLeaseName(pub.SpaceID, pub.Slug), func(ctx context.Context) error {
		current, err := s.loadLive(ctx, id, operation)
		if err != nil {
			return err
		}
		return fn(ctx, current)
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.publications.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("publication state changed",
		"operation", operation,
		"publication_id", id,
		"slug", updated.Slug,
		"is_active", updated.IsActive,
	)
	return updated, nil
}

// loadLive fetches id, turning a deleted publication into a StateError
func (s *publicationService) loadLive(ctx context.Context, id, operation string) (*domain.Publication, error) {
	pub, err := s.publications.Get(ctx, id)
	if err == nil {
		return pub, nil
	}
	if !isNotFound(err) {
		return nil, err
	}
	deleted, derr := s.publications.IsDeleted(ctx, id)
	if derr != nil {
		return nil, derr
	}
	if deleted {
		return nil, &domain.StateError{ResourceID: id, State: string(domain.PublicationDeleted), Operation: operation}
	}
	return nil, err
}

func validatePublishOptions(opts *domain.PublishOptions) error {
	err := validation.ValidateStruct(opts,
		validation.Field(&opts.Slug, validation.Required, slugRule),
		validation.Field(&opts.Title, validation.Required, validation.Length(1, maxTitleLength)),
		validation.Field(&opts.Description, validation.Length(0, maxDescriptionLength)),
		validation.Field(&opts.ChangeSummary, validation.Length(0, maxDescriptionLength)),
	)
	if err != nil {
		return toValidationError(err)
	}
	if opts.RootDocumentID != nil && *opts.RootDocumentID == "" {
		opts.RootDocumentID = nil
	}
	return nil
}

// buildPublicationTree assembles snapshot documents into an ordered forest
func buildPublicationTree(docs []*domain.PublicationDocument) []*domain.PublicationTreeNode {
	nodes := make(map[string]*domain.PublicationTreeNode, len(docs))
	for _, d := range docs {
		nodes[d.ID] = &domain.PublicationTreeNode{
			ID:         d.ID,
			Title:      d.Title,
			Slug:       d.Slug,
			Excerpt:    d.Excerpt,
			OrderIndex: d.OrderIndex,
			Children:   []*domain.PublicationTreeNode{},
		}
	}

	roots := []*domain.PublicationTreeNode{}
	for _, d := range docs {
		node := nodes[d.ID]
		if d.ParentID != nil {
			if parent, ok := nodes[*d.ParentID]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}

	sortPublicationNodes(roots)
	for _, n := range nodes {
		sortPublicationNodes(n.Children)
	}
	return roots
}

func sortPublicationNodes(nodes []*domain.PublicationTreeNode) {
	sort.SliceStable(nodes, func(i, j int) bool { return nodes[i].OrderIndex < nodes[j].OrderIndex })
}
