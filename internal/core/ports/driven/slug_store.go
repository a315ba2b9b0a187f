package driven

import (
	"context"

	"github.com/custodia-labs/docspace/internal/core/domain"
)

// SlugStore persists slug reservations per scope.
// Reserve must be an atomic check-and-set.
type SlugStore interface {
	// Reserve claims slug for owner in scope.
	// Returns true when owner now holds the slug (newly or already), false when another owner does.
	Reserve(ctx context.Context, scope domain.SlugScope, slug, owner string) (bool, error)

	// Release frees slug if owner holds it. Releasing a free slug is a no-op.
	Release(ctx context.Context, scope domain.SlugScope, slug, owner string) error

	// Owner returns the current holder of slug, or "" if free
	Owner(ctx context.Context, scope domain.SlugScope, slug string) (string, error)
}
