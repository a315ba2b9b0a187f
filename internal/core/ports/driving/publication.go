package driving

import (
	"context"

	"github.com/custodia-labs/docspace/internal/core/domain"
)

// UpdatePublicationRequest edits publication metadata
type UpdatePublicationRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}

// PublicationService creates and manages publication snapshots
type PublicationService interface {
	// Publish snapshots the selected subtree of a space into a new active version
	Publish(ctx context.Context, spaceID string, opts domain.PublishOptions) (*domain.Publication, error)

	// Republish re-runs Publish with the stored options of an existing publication
	Republish(ctx context.Context, id, changeSummary string) (*domain.Publication, error)

	// Unpublish hides a publication. Idempotent.
	Unpublish(ctx context.Context, id string) (*domain.Publication, error)

	// Restore re-activates an inactive publication
	Restore(ctx context.Context, id string) (*domain.Publication, error)

	// DeletePublication removes a publication and its documents permanently
	DeletePublication(ctx context.Context, id string) error

	// Get retrieves a publication by ID without counting a view
	Get(ctx context.Context, id string) (*domain.Publication, error)

	// List lists publications of a space
	List(ctx context.Context, spaceID string, includeInactive bool) ([]*domain.Publication, error)

	// UpdateMetadata edits title and description; version and is_active are untouched
	UpdateMetadata(ctx context.Context, id string, req UpdatePublicationRequest) (*domain.Publication, error)

	// PreviewTree returns the snapshot forest of any publication by ID
	PreviewTree(ctx context.Context, id string) ([]*domain.PublicationTreeNode, error)

	// PreviewDocument returns one snapshot document of any publication by ID
	PreviewDocument(ctx context.Context, id, docSlug string) (*domain.PublicationDocument, error)
}

// PublicGateway serves active publications to anonymous readers
type PublicGateway interface {
	// ResolvePublication returns the active publication for slug and counts a view
	ResolvePublication(ctx context.Context, slug string) (*domain.Publication, error)

	// ResolveTree returns the snapshot forest of the active publication
	ResolveTree(ctx context.Context, slug string) ([]*domain.PublicationTreeNode, error)

	// ResolveDocument returns one document of the active publication
	ResolveDocument(ctx context.Context, slug, docSlug string) (*domain.PublicationDocument, error)
}
