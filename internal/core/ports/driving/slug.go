package driving

import (
	"context"

	"github.com/custodia-labs/docspace/internal/core/domain"
)

// SlugRegistry guarantees slug uniqueness per scope
type SlugRegistry interface {
	// Reserve validates and claims candidate for owner, returning the normalized slug.
	// Re-reserving by the same owner succeeds; another owner gets a ConflictError with a suggestion.
	Reserve(ctx context.Context, scope domain.SlugScope, candidate, owner string) (string, error)

	// Release frees a slug held by owner
	Release(ctx context.Context, scope domain.SlugScope, slug, owner string) error

	// IsAvailable reports whether slug is valid and unclaimed in scope
	IsAvailable(ctx context.Context, scope domain.SlugScope, slug string) (bool, error)

	// Suggest returns the first free candidate among base, base-2, base-3, ...
	Suggest(ctx context.Context, scope domain.SlugScope, base string) (string, error)
}
