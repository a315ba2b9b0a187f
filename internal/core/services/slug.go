package services

import (
	"context"
	"fmt"
	"strconv"

	"github.com/custodia-labs/docspace/internal/core/domain"
	"github.com/custodia-labs/docspace/internal/core/ports/driven"
	"github.com/custodia-labs/docspace/internal/core/ports/driving"
)

// maxSuggestAttempts bounds the base-N candidate search
const maxSuggestAttempts = 1000

var _ driving.SlugRegistry = (*slugRegistry)(nil)

type slugRegistry struct {
	store driven.SlugStore
}

// NewSlugRegistry creates a new SlugRegistry backed by store
func NewSlugRegistry(store driven.SlugStore) driving.SlugRegistry {
	return &slugRegistry{store: store}
}

func (r *slugRegistry) Reserve(ctx context.Context, scope domain.SlugScope, candidate, owner string) (string, error) {
	slug := domain.NormalizeSlug(candidate)
	if err := domain.ValidateSlug(slug); err != nil {
		return "", err
	}

	ok, err := r.store.Reserve(ctx, scope, slug, owner)
	if err != nil {
		return "", fmt.Errorf("reserve slug: %w", err)
	}
	if ok {
		return slug, nil
	}

	suggestion, _ := r.Suggest(ctx, scope, slug)
	return "", &domain.ConflictError{
		Message:      fmt.Sprintf("slug %q is already taken", slug),
		ResourceType: "slug",
		Suggestion:   suggestion,
	}
}

func (r *slugRegistry) Release(ctx context.Context, scope domain.SlugScope, slug, owner string) error {
	if err := r.store.Release(ctx, scope, domain.NormalizeSlug(slug), owner); err != nil {
		return fmt.Errorf("release slug: %w", err)
	}
	return nil
}

func (r *slugRegistry) IsAvailable(ctx context.Context, scope domain.SlugScope, slug string) (bool, error) {
	slug = domain.NormalizeSlug(slug)
	if err := domain.ValidateSlug(slug); err != nil {
		return false, err
	}
	owner, err := r.store.Owner(ctx, scope, slug)
	if err != nil {
		return false, fmt.Errorf("check slug: %w", err)
	}
	return owner == "", nil
}

func (r *slugRegistry) Suggest(ctx context.Context, scope domain.SlugScope, base string) (string, error) {
	base = domain.NormalizeSlug(base)
	if domain.ValidateSlug(base) != nil {
		base = domain.Slugify(base)
	}
	for len(base) < domain.MinSlugLength {
		base += "-doc"
		base = domain.Slugify(base)
	}

	for n := 1; n <= maxSuggestAttempts; n++ {
		candidate := base
		if n > 1 {
			suffix := "-" + strconv.Itoa(n)
			stem := base
			if len(stem)+len(suffix) > domain.MaxSlugLength {
				stem = trimSlug(stem[:domain.MaxSlugLength-len(suffix)])
			}
			candidate = stem + suffix
		}
		owner, err := r.store.Owner(ctx, scope, candidate)
		if err != nil {
			return "", fmt.Errorf("suggest slug: %w", err)
		}
		if owner == "" {
			return candidate, nil
		}
	}
	return "", &domain.ConflictError{Message: fmt.Sprintf("no free slug near %q", base), ResourceType: "slug"}
}

func trimSlug(s string) string {
	for len(s) > 0 && s[len(s)-1] == '-' {
		s = s[:len(s)-1]
	}
	return s
}
