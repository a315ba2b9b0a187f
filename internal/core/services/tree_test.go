package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docspace/internal/core/domain"
)

func TestTreeService_BuildTree(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	space, intro, details := env.mustDemo(t)

	tree, err := env.tree.BuildTree(ctx, space.ID)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Equal(t, intro.ID, tree[0].ID)
	assert.False(t, tree[0].Orphaned)
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, details.ID, tree[0].Children[0].ID)
	assert.Empty(t, tree[0].Children[0].Children)
}

func TestTreeService_BuildTreeOrdersSiblings(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	space := env.mustSpace(t, "ordering")

	a := env.mustDoc(t, space.ID, "alpha", nil, true)
	b := env.mustDoc(t, space.ID, "beta", nil, true)
	c := env.mustDoc(t, space.ID, "gamma", nil, true)

	_, err := env.docSvc.Move(ctx, c.ID, moveTo(nil, 0))
	require.NoError(t, err)

	tree, err := env.tree.BuildTree(ctx, space.ID)
	require.NoError(t, err)
	require.Len(t, tree, 3)
	assert.Equal(t, []string{c.ID, a.ID, b.ID}, []string{tree[0].ID, tree[1].ID, tree[2].ID})
	for i, n := range tree {
		assert.Equal(t, i, n.OrderIndex)
	}
}

func TestTreeService_BuildTreeSurfacesOrphans(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	space, intro, details := env.mustDemo(t)

	// Tombstone only the parent to leave a dangling reference behind
	require.NoError(t, env.documents.SoftDelete(ctx, intro.ID, []string{intro.ID}, time.Now()))

	tree, err := env.tree.BuildTree(ctx, space.ID)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Equal(t, details.ID, tree[0].ID)
	assert.True(t, tree[0].Orphaned)
}

func TestTreeService_Breadcrumbs(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	space, intro, details := env.mustDemo(t)
	deep := env.mustDoc(t, space.ID, "deep", details, true)

	crumbs, err := env.tree.Breadcrumbs(ctx, deep.ID)
	require.NoError(t, err)
	require.Len(t, crumbs, 2)
	assert.Equal(t, intro.ID, crumbs[0].ID)
	assert.Equal(t, details.ID, crumbs[1].ID)

	crumbs, err = env.tree.Breadcrumbs(ctx, intro.ID)
	require.NoError(t, err)
	assert.Empty(t, crumbs)

	_, err = env.tree.Breadcrumbs(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTreeService_DetectsCorruptedCycles(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	space, intro, details := env.mustDemo(t)

	// Bypass the service cycle guard to corrupt the store
	_, err := env.documents.Move(ctx, intro.ID, &details.ID, nil, time.Now())
	require.NoError(t, err)

	_, err = env.tree.Breadcrumbs(ctx, details.ID)
	assert.ErrorIs(t, err, domain.ErrCycle)

	_, err = env.tree.BuildTree(ctx, space.ID)
	assert.ErrorIs(t, err, domain.ErrCycle)

	_, err = env.tree.SubtreeIDs(ctx, space.ID, &intro.ID)
	assert.ErrorIs(t, err, domain.ErrCycle)
}

func TestTreeService_SubtreeIDsPreOrder(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	space := env.mustSpace(t, "preorder")

	a := env.mustDoc(t, space.ID, "a-root", nil, true)
	a1 := env.mustDoc(t, space.ID, "a-one", a, true)
	a2 := env.mustDoc(t, space.ID, "a-two", a, true)
	a1x := env.mustDoc(t, space.ID, "a-one-x", a1, true)
	b := env.mustDoc(t, space.ID, "b-root", nil, true)

	ids, err := env.tree.SubtreeIDs(ctx, space.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID, a1.ID, a1x.ID, a2.ID, b.ID}, ids)

	ids, err = env.tree.SubtreeIDs(ctx, space.ID, &a1.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{a1.ID, a1x.ID}, ids)

	// Stable across calls
	again, err := env.tree.SubtreeIDs(ctx, space.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID, a1.ID, a1x.ID, a2.ID, b.ID}, again)

	_, err = env.tree.SubtreeIDs(ctx, space.ID, strPtr("missing"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
