package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/docspace/internal/core/domain"
)

// DocumentStore handles document node persistence.
// Every method runs as a single transaction against the backing store.
type DocumentStore interface {
	// Create inserts a node and assigns order_index = max(siblings)+1, or 0 for the first child
	Create(ctx context.Context, doc *domain.DocumentNode) error

	// Get retrieves a node by ID, including tombstoned nodes
	Get(ctx context.Context, id string) (*domain.DocumentNode, error)

	// ListBySpace returns every live node of a space in no particular order
	ListBySpace(ctx context.Context, spaceID string) ([]*domain.DocumentNode, error)

	// ListChildren returns live children of parentID (nil = roots) ordered by order_index
	ListChildren(ctx context.Context, spaceID string, parentID *string) ([]*domain.DocumentNode, error)

	// Update writes title, slug, content, excerpt, word_count, is_public and updated_at.
	// When ifUnmodifiedSince is set and the stored updated_at is newer, a ConflictError is returned.
	Update(ctx context.Context, doc *domain.DocumentNode, ifUnmodifiedSince *time.Time) error

	// Move reparents a node to index within newParentID's children.
	// The destination range is shifted and the source range compacted in the same transaction.
	// A nil index appends at the end.
	Move(ctx context.Context, id string, newParentID *string, index *int, now time.Time) (*domain.DocumentNode, error)

	// SoftDelete tombstones the given subtree ids and compacts the siblings of rootID
	SoftDelete(ctx context.Context, rootID string, subtreeIDs []string, now time.Time) error
}
