package services

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docspace/internal/core/domain"
	"github.com/custodia-labs/docspace/internal/core/ports/driving"
)

func moveTo(parent *string, index int) driving.MoveDocumentRequest {
	return driving.MoveDocumentRequest{ParentID: driving.Set(parent), OrderIndex: &index}
}

func TestDocumentService_CreateAssignsOrder(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	space, intro, details := env.mustDemo(t)

	assert.Equal(t, 0, intro.OrderIndex)
	assert.Equal(t, 0, details.OrderIndex)
	assert.Equal(t, "intro", intro.Slug)
	assert.Equal(t, intro.ID, domain.StringValue(details.ParentID))

	second := env.mustDoc(t, space.ID, "second", nil, true)
	third := env.mustDoc(t, space.ID, "third", nil, true)
	assert.Equal(t, 1, second.OrderIndex)
	assert.Equal(t, 2, third.OrderIndex)

	got, err := env.docSvc.Get(ctx, intro.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.WordCount)
	assert.Equal(t, "Content of intro", got.Excerpt)

	assert.Contains(t, env.lock.Acquired(), "tree:"+space.ID)
}

func TestDocumentService_CreateValidation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	space, intro, _ := env.mustDemo(t)
	other := env.mustSpace(t, "other")

	tests := []struct {
		name    string
		req     driving.CreateDocumentRequest
		wantErr error
	}{
		{"missing title", driving.CreateDocumentRequest{SpaceID: space.ID}, domain.ErrValidation},
		{"bad slug", driving.CreateDocumentRequest{SpaceID: space.ID, Title: "x", Slug: "Bad Slug!"}, domain.ErrValidation},
		{"missing space", driving.CreateDocumentRequest{SpaceID: "nope", Title: "x"}, domain.ErrNotFound},
		{"missing parent", driving.CreateDocumentRequest{SpaceID: space.ID, Title: "x", ParentID: strPtr("nope")}, domain.ErrNotFound},
		{"parent in other space", driving.CreateDocumentRequest{SpaceID: other.ID, Title: "x", ParentID: &intro.ID}, domain.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.docSvc.Create(ctx, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDocumentService_CreateSlugConflict(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	space, _, _ := env.mustDemo(t)

	_, err := env.docSvc.Create(ctx, driving.CreateDocumentRequest{SpaceID: space.ID, Title: "Another", Slug: "INTRO"})
	var conflict *domain.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "intro-2", conflict.Suggestion)

	// A derived slug moves on to the next free candidate
	doc, err := env.docSvc.Create(ctx, driving.CreateDocumentRequest{SpaceID: space.ID, Title: "Intro"})
	require.NoError(t, err)
	assert.Equal(t, "intro-2", doc.Slug)

	// The same slug is free in another space
	other := env.mustSpace(t, "other")
	doc, err = env.docSvc.Create(ctx, driving.CreateDocumentRequest{SpaceID: other.ID, Title: "Intro"})
	require.NoError(t, err)
	assert.Equal(t, "intro", doc.Slug)
}

func TestDocumentService_Update(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	space, intro, _ := env.mustDemo(t)

	content := "# Heading\n\nFour words right here."
	updated, err := env.docSvc.Update(ctx, intro.ID, driving.UpdateDocumentRequest{
		Content: &content,
		Slug:    strPtr("introduction"),
	})
	require.NoError(t, err)
	assert.Equal(t, content, updated.Content)
	assert.Equal(t, 5, updated.WordCount)
	assert.Equal(t, "introduction", updated.Slug)
	assert.Equal(t, "intro", updated.Title)

	// The old slug is released
	reuse, err := env.docSvc.Create(ctx, driving.CreateDocumentRequest{SpaceID: space.ID, Title: "x", Slug: "intro"})
	require.NoError(t, err)
	assert.Equal(t, "intro", reuse.Slug)

	// Taken slug is refused and the current one stays reserved
	_, err = env.docSvc.Update(ctx, intro.ID, driving.UpdateDocumentRequest{Slug: strPtr("details")})
	assert.ErrorIs(t, err, domain.ErrConflict)
	got, err := env.docSvc.Get(ctx, intro.ID)
	require.NoError(t, err)
	assert.Equal(t, "introduction", got.Slug)

	empty := ""
	_, err = env.docSvc.Update(ctx, intro.ID, driving.UpdateDocumentRequest{Title: &empty})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestDocumentService_UpdatePrecondition(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	_, intro, _ := env.mustDemo(t)

	seen := intro.UpdatedAt
	time.Sleep(2 * time.Millisecond)

	first := "first editor"
	_, err := env.docSvc.Update(ctx, intro.ID, driving.UpdateDocumentRequest{Content: &first, IfUnmodifiedSince: &seen})
	require.NoError(t, err)

	// Second editor read the same version; its write is rejected
	second := "second editor"
	_, err = env.docSvc.Update(ctx, intro.ID, driving.UpdateDocumentRequest{Content: &second, IfUnmodifiedSince: &seen})
	assert.ErrorIs(t, err, domain.ErrConflict)

	// Without a precondition the last write wins
	_, err = env.docSvc.Update(ctx, intro.ID, driving.UpdateDocumentRequest{Content: &second})
	require.NoError(t, err)
	got, _ := env.docSvc.Get(ctx, intro.ID)
	assert.Equal(t, second, got.Content)
}

func TestDocumentService_MoveRejectsCycles(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	space, intro, details := env.mustDemo(t)

	before, err := env.tree.BuildTree(ctx, space.ID)
	require.NoError(t, err)

	_, err = env.docSvc.Move(ctx, intro.ID, driving.MoveDocumentRequest{ParentID: driving.Set(&details.ID)})
	var cycle *domain.CycleError
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, intro.ID, cycle.NodeID)

	_, err = env.docSvc.Move(ctx, intro.ID, driving.MoveDocumentRequest{ParentID: driving.Set(&intro.ID)})
	assert.ErrorIs(t, err, domain.ErrCycle)

	after, err := env.tree.BuildTree(ctx, space.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestDocumentService_Move(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	space, intro, details := env.mustDemo(t)
	guide := env.mustDoc(t, space.ID, "guide", nil, true)
	faq := env.mustDoc(t, space.ID, "faq", intro, true)

	// Reparent into the middle of intro's children
	moved, err := env.docSvc.Move(ctx, guide.ID, moveTo(&intro.ID, 1))
	require.NoError(t, err)
	assert.Equal(t, intro.ID, domain.StringValue(moved.ParentID))
	assert.Equal(t, 1, moved.OrderIndex)

	children, err := env.docSvc.ListChildren(ctx, space.ID, &intro.ID)
	require.NoError(t, err)
	require.Len(t, children, 3)
	assert.Equal(t, []string{details.ID, guide.ID, faq.ID}, []string{children[0].ID, children[1].ID, children[2].ID})
	for i, c := range children {
		assert.Equal(t, i, c.OrderIndex)
	}

	// Reorder only, parent absent from the request
	_, err = env.docSvc.Move(ctx, faq.ID, driving.MoveDocumentRequest{OrderIndex: intPtr(0)})
	require.NoError(t, err)
	children, _ = env.docSvc.ListChildren(ctx, space.ID, &intro.ID)
	assert.Equal(t, faq.ID, children[0].ID)

	// Explicit null moves to the root and appends
	moved, err = env.docSvc.Move(ctx, details.ID, driving.MoveDocumentRequest{ParentID: driving.Set(nil)})
	require.NoError(t, err)
	assert.Nil(t, moved.ParentID)
	assert.Equal(t, 1, moved.OrderIndex)

	_, err = env.docSvc.Move(ctx, details.ID, driving.MoveDocumentRequest{OrderIndex: intPtr(-1)})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = env.docSvc.Move(ctx, details.ID, driving.MoveDocumentRequest{ParentID: driving.Set(strPtr("nope"))})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentService_DeleteCascades(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	space, intro, details := env.mustDemo(t)
	deep := env.mustDoc(t, space.ID, "deep", details, true)
	sibling := env.mustDoc(t, space.ID, "sibling", nil, true)

	require.NoError(t, env.docSvc.Delete(ctx, intro.ID))

	for _, id := range []string{intro.ID, details.ID, deep.ID} {
		_, err := env.docSvc.Get(ctx, id)
		assert.ErrorIs(t, err, domain.ErrNotFound, id)

		raw, err := env.documents.Get(ctx, id)
		require.NoError(t, err)
		assert.True(t, raw.IsDeleted)
	}

	// Remaining siblings are compacted
	roots, err := env.docSvc.ListChildren(ctx, space.ID, nil)
	require.NoError(t, err)
	require.Len(t, roots, 1)
	assert.Equal(t, sibling.ID, roots[0].ID)
	assert.Equal(t, 0, roots[0].OrderIndex)

	// Slugs of the whole subtree are free again
	for _, slug := range []string{"intro", "details", "deep"} {
		ok, err := env.slugs.IsAvailable(ctx, domain.SpaceScope(space.ID), slug)
		require.NoError(t, err)
		assert.True(t, ok, slug)
	}

	assert.ErrorIs(t, env.docSvc.Delete(ctx, intro.ID), domain.ErrNotFound)
}

func TestDocumentService_ListSubtree(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	space, intro, details := env.mustDemo(t)
	env.mustDoc(t, space.ID, "unrelated", nil, true)

	nodes, err := env.docSvc.ListSubtree(ctx, intro.ID)
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, intro.ID, nodes[0].ID)
	assert.Equal(t, details.ID, nodes[1].ID)
}

func TestDocumentService_WaitsForTreeLease(t *testing.T) {
	env := newTestEnv(t)
	space := env.mustSpace(t, "locked")

	env.lock.SetLockHeld("tree:"+space.ID, time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := env.docSvc.Create(ctx, driving.CreateDocumentRequest{SpaceID: space.ID, Title: "blocked"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Greater(t, env.lock.Denied("tree:"+space.ID), 0)

	// Nothing was reserved or written
	ok, err := env.slugs.IsAvailable(context.Background(), domain.SpaceScope(space.ID), "blocked")
	require.NoError(t, err)
	assert.True(t, ok)
}

// TestDocumentService_RandomMovesKeepInvariants applies random moves and checks
// acyclicity, dense sibling order and slug uniqueness after every step.
func TestDocumentService_RandomMovesKeepInvariants(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	space := env.mustSpace(t, "fuzz")

	var ids []string
	for i := 0; i < 12; i++ {
		var parent *domain.DocumentNode
		if len(ids) > 0 && i%3 != 0 {
			parent, _ = env.docSvc.Get(ctx, ids[i/2])
		}
		ids = append(ids, env.mustDoc(t, space.ID, "node "+string(rune('a'+i)), parent, true).ID)
	}

	rng := rand.New(rand.NewSource(42))
	for step := 0; step < 300; step++ {
		id := ids[rng.Intn(len(ids))]
		var parent *string
		if rng.Intn(4) != 0 {
			parent = &ids[rng.Intn(len(ids))]
		}
		_, err := env.docSvc.Move(ctx, id, moveTo(parent, rng.Intn(5)))
		if err != nil {
			require.ErrorIs(t, err, domain.ErrCycle, "step %d", step)
		}

		nodes, err := env.documents.ListBySpace(ctx, space.ID)
		require.NoError(t, err)
		assertTreeInvariants(t, nodes)
	}
}

func assertTreeInvariants(t *testing.T, nodes []*domain.DocumentNode) {
	t.Helper()

	byID := make(map[string]*domain.DocumentNode, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}

	siblings := make(map[string][]int)
	slugs := make(map[string]bool)
	for _, n := range nodes {
		// No node is its own ancestor
		seen := map[string]bool{n.ID: true}
		for p := n.ParentID; p != nil; p = byID[*p].ParentID {
			require.False(t, seen[*p], "cycle through %s", n.ID)
			seen[*p] = true
		}

		key := domain.StringValue(n.ParentID)
		siblings[key] = append(siblings[key], n.OrderIndex)

		folded := domain.NormalizeSlug(n.Slug)
		require.False(t, slugs[folded], "duplicate slug %s", folded)
		slugs[folded] = true
	}

	for parent, indexes := range siblings {
		used := make(map[int]bool, len(indexes))
		for _, idx := range indexes {
			require.False(t, used[idx], "duplicate order_index %d under %q", idx, parent)
			require.Less(t, idx, len(indexes))
			used[idx] = true
		}
	}
}
