package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docspace/internal/adapters/driven/memory"
	"github.com/custodia-labs/docspace/internal/core/domain"
)

func TestSlugRegistry_Reserve(t *testing.T) {
	ctx := context.Background()
	registry := NewSlugRegistry(memory.NewSlugStore())
	scope := domain.SpaceScope("space-1")

	slug, err := registry.Reserve(ctx, scope, "Getting-Started", "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "getting-started", slug)

	// Same owner again is fine
	slug, err = registry.Reserve(ctx, scope, "getting-started", "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "getting-started", slug)

	// Another owner collides case-insensitively
	_, err = registry.Reserve(ctx, scope, "GETTING-STARTED", "doc-2")
	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "getting-started-2", conflict.Suggestion)
	assert.ErrorIs(t, err, domain.ErrConflict)

	// Scopes are independent
	_, err = registry.Reserve(ctx, domain.SpaceScope("space-2"), "getting-started", "doc-3")
	assert.NoError(t, err)
}

func TestSlugRegistry_ReserveValidation(t *testing.T) {
	ctx := context.Background()
	registry := NewSlugRegistry(memory.NewSlugStore())

	tests := []struct {
		name string
		slug string
	}{
		{"too short", "ab"},
		{"too long", strings.Repeat("a", 51)},
		{"leading hyphen", "-intro"},
		{"trailing hyphen", "intro-"},
		{"double hyphen", "intro--guide"},
		{"underscore", "intro_guide"},
		{"space", "intro guide"},
		{"unicode", "café"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := registry.Reserve(ctx, domain.ScopePublication, tt.slug, "owner")
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestSlugRegistry_ConcurrentReserve(t *testing.T) {
	ctx := context.Background()
	registry := NewSlugRegistry(memory.NewSlugStore())

	const callers = 32
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins, conflicts := 0, 0

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := registry.Reserve(ctx, domain.ScopePublication, "guide", fmt.Sprintf("space-%d", i))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, domain.ErrConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, callers-1, conflicts)
}

func TestSlugRegistry_ReleaseAndAvailability(t *testing.T) {
	ctx := context.Background()
	registry := NewSlugRegistry(memory.NewSlugStore())
	scope := domain.SpaceScope("s")

	ok, err := registry.IsAvailable(ctx, scope, "intro")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = registry.Reserve(ctx, scope, "intro", "doc-1")
	require.NoError(t, err)

	ok, err = registry.IsAvailable(ctx, scope, "INTRO")
	require.NoError(t, err)
	assert.False(t, ok)

	// Only the owner can release
	require.NoError(t, registry.Release(ctx, scope, "intro", "doc-2"))
	ok, _ = registry.IsAvailable(ctx, scope, "intro")
	assert.False(t, ok)

	require.NoError(t, registry.Release(ctx, scope, "intro", "doc-1"))
	ok, _ = registry.IsAvailable(ctx, scope, "intro")
	assert.True(t, ok)

	_, err = registry.IsAvailable(ctx, scope, "x")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestSlugRegistry_Suggest(t *testing.T) {
	ctx := context.Background()
	registry := NewSlugRegistry(memory.NewSlugStore())
	scope := domain.SpaceScope("s")

	slug, err := registry.Suggest(ctx, scope, "intro")
	require.NoError(t, err)
	assert.Equal(t, "intro", slug)

	for _, owner := range []string{"a", "b"} {
		s, err := registry.Suggest(ctx, scope, "intro")
		require.NoError(t, err)
		_, err = registry.Reserve(ctx, scope, s, owner)
		require.NoError(t, err)
	}
	slug, err = registry.Suggest(ctx, scope, "intro")
	require.NoError(t, err)
	assert.Equal(t, "intro-3", slug)

	// Suffixes never push a slug past the length limit
	long := strings.Repeat("a", domain.MaxSlugLength)
	_, err = registry.Reserve(ctx, scope, long, "a")
	require.NoError(t, err)
	slug, err = registry.Suggest(ctx, scope, long)
	require.NoError(t, err)
	assert.Len(t, slug, domain.MaxSlugLength)
	assert.True(t, strings.HasSuffix(slug, "-2"))

	// Unusable bases are slugified and padded
	slug, err = registry.Suggest(ctx, scope, "A!")
	require.NoError(t, err)
	assert.NoError(t, domain.ValidateSlug(slug))
}
