package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/docspace/internal/core/domain"
)

// PublicationStore handles publication and snapshot document persistence
type PublicationStore interface {
	// Commit atomically deactivates the active row for pub.Slug, inserts pub and inserts docs.
	// pub.Version must equal LatestVersion(pub.Slug)+1 at commit time, otherwise a
	// ConflictError is returned and nothing is written.
	Commit(ctx context.Context, pub *domain.Publication, docs []*domain.PublicationDocument) error

	// LatestVersion returns the highest version ever committed for slug, or 0
	LatestVersion(ctx context.Context, slug string) (int, error)

	// Get retrieves a publication by ID
	Get(ctx context.Context, id string) (*domain.Publication, error)

	// GetActiveBySlug retrieves the single active publication for slug
	GetActiveBySlug(ctx context.Context, slug string) (*domain.Publication, error)

	// ListBySpace lists publications of a space, newest first
	ListBySpace(ctx context.Context, spaceID string, includeInactive bool) ([]*domain.Publication, error)

	// Deactivate clears is_active. Deactivating an inactive row is a no-op.
	Deactivate(ctx context.Context, id string, now time.Time) error

	// Activate sets is_active unless another row for the same slug is active (ConflictError)
	Activate(ctx context.Context, id string, now time.Time) error

	// UpdateMetadata rewrites title and description only
	UpdateMetadata(ctx context.Context, id, title, description string, now time.Time) error

	// Delete removes the publication and its documents and leaves a tombstone for id
	Delete(ctx context.Context, id string) error

	// IsDeleted reports whether id was removed by Delete
	IsDeleted(ctx context.Context, id string) (bool, error)

	// IncrementViews atomically adds one to total_views
	IncrementViews(ctx context.Context, id string) error

	// ListDocuments returns the documents of a publication in commit order
	ListDocuments(ctx context.Context, publicationID string) ([]*domain.PublicationDocument, error)

	// GetDocumentBySlug retrieves one snapshot document by its slug
	GetDocumentBySlug(ctx context.Context, publicationID, slug string) (*domain.PublicationDocument, error)
}
