package driving

import (
	"context"

	"github.com/custodia-labs/docspace/internal/core/domain"
)

// TreeService derives read-only views of a space's document forest
type TreeService interface {
	// BuildTree returns the ordered forest of live nodes.
	// Nodes whose parent does not resolve are surfaced at the root with Orphaned set.
	BuildTree(ctx context.Context, spaceID string) ([]*domain.TreeNode, error)

	// Breadcrumbs returns the ancestors of nodeID from the root down, excluding the node itself
	Breadcrumbs(ctx context.Context, nodeID string) ([]*domain.DocumentNode, error)

	// SubtreeIDs returns node ids in pre-order (rootID nil = every root)
	SubtreeIDs(ctx context.Context, spaceID string, rootID *string) ([]string, error)
}
