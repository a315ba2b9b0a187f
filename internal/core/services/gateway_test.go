package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docspace/internal/core/domain"
	"github.com/custodia-labs/docspace/internal/core/ports/driven"
)

func TestPublicGateway_Resolve(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	space, _, _ := env.mustDemo(t)

	pub, err := env.pubSvc.Publish(ctx, space.ID, guideOptions())
	require.NoError(t, err)

	got, err := env.gateway.ResolvePublication(ctx, "GUIDE")
	require.NoError(t, err)
	assert.Equal(t, pub.ID, got.ID)
	assert.Equal(t, int64(1), got.TotalViews)

	tree, err := env.gateway.ResolveTree(ctx, "guide")
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Equal(t, "intro", tree[0].Slug)
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, "details", tree[0].Children[0].Slug)

	doc, err := env.gateway.ResolveDocument(ctx, "guide", "details")
	require.NoError(t, err)
	assert.Equal(t, "Content of details", doc.Content)

	_, err = env.gateway.ResolveDocument(ctx, "guide", "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	stored, err := env.pubSvc.Get(ctx, pub.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stored.TotalViews, "failed reads are not counted")
	assert.Equal(t, 1, stored.Version)
	assert.True(t, stored.IsActive)
}

func TestPublicGateway_OnlyActiveVersionIsVisible(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	space, intro, _ := env.mustDemo(t)

	v1, err := env.pubSvc.Publish(ctx, space.ID, guideOptions())
	require.NoError(t, err)
	v2, err := env.pubSvc.Republish(ctx, v1.ID, "")
	require.NoError(t, err)

	got, err := env.gateway.ResolvePublication(ctx, "guide")
	require.NoError(t, err)
	assert.Equal(t, v2.ID, got.ID)

	_, err = env.pubSvc.Unpublish(ctx, v2.ID)
	require.NoError(t, err)

	_, err = env.gateway.ResolvePublication(ctx, "guide")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = env.gateway.ResolveTree(ctx, "guide")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = env.gateway.ResolveDocument(ctx, "guide", intro.Slug)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Rows remain for preview
	doc, err := env.pubSvc.PreviewDocument(ctx, v2.ID, intro.Slug)
	require.NoError(t, err)
	assert.Equal(t, intro.ID, doc.OriginalDocID)
}

type failingViewsStore struct {
	driven.PublicationStore
}

func (f failingViewsStore) IncrementViews(ctx context.Context, id string) error {
	return errors.New("counter unavailable")
}

func TestPublicGateway_ViewCountFailureDoesNotFailRead(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	space, _, _ := env.mustDemo(t)

	_, err := env.pubSvc.Publish(ctx, space.ID, guideOptions())
	require.NoError(t, err)

	gw := NewPublicGateway(failingViewsStore{env.pubs}, env.logger)
	pub, err := gw.ResolvePublication(ctx, "guide")
	require.NoError(t, err)
	assert.Equal(t, int64(0), pub.TotalViews)
}
