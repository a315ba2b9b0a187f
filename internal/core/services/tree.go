package services

import (
	"context"
	"sort"

	"github.com/custodia-labs/docspace/internal/core/domain"
	"github.com/custodia-labs/docspace/internal/core/ports/driven"
	"github.com/custodia-labs/docspace/internal/core/ports/driving"
)

var _ driving.TreeService = (*treeResolver)(nil)

// treeResolver derives forests, ancestor paths and pre-order id lists.
// It never mutates the store.
type treeResolver struct {
	documents driven.DocumentStore
}

// NewTreeService creates a new TreeService
func NewTreeService(documents driven.DocumentStore) driving.TreeService {
	return &treeResolver{documents: documents}
}

// forest indexes the live nodes of one space
type forest struct {
	byID     map[string]*domain.DocumentNode
	children map[string][]*domain.DocumentNode
	roots    []*domain.DocumentNode
	orphaned map[string]bool
}

func newForest(nodes []*domain.DocumentNode) *forest {
	f := &forest{
		byID:     make(map[string]*domain.DocumentNode, len(nodes)),
		children: make(map[string][]*domain.DocumentNode),
		orphaned: make(map[string]bool),
	}
	for _, n := range nodes {
		f.byID[n.ID] = n
	}
	for _, n := range nodes {
		switch {
		case n.ParentID == nil:
			f.roots = append(f.roots, n)
		case f.byID[*n.ParentID] == nil:
			f.roots = append(f.roots, n)
			f.orphaned[n.ID] = true
		default:
			f.children[*n.ParentID] = append(f.children[*n.ParentID], n)
		}
	}
	sortSiblings(f.roots)
	for _, list := range f.children {
		sortSiblings(list)
	}
	return f
}

func sortSiblings(nodes []*domain.DocumentNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].OrderIndex != nodes[j].OrderIndex {
			return nodes[i].OrderIndex < nodes[j].OrderIndex
		}
		return nodes[i].ID < nodes[j].ID
	})
}

// preorder walks from starts with an explicit stack.
// A node reached twice means the parent chain loops.
func (f *forest) preorder(starts []*domain.DocumentNode) ([]*domain.DocumentNode, error) {
	out := make([]*domain.DocumentNode, 0, len(f.byID))
	visited := make(map[string]bool, len(f.byID))

	stack := make([]*domain.DocumentNode, 0, len(starts))
	for i := len(starts) - 1; i >= 0; i-- {
		stack = append(stack, starts[i])
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[n.ID] {
			return nil, &domain.CycleError{NodeID: n.ID}
		}
		visited[n.ID] = true
		out = append(out, n)

		kids := f.children[n.ID]
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, kids[i])
		}
	}
	return out, nil
}

func (r *treeResolver) load(ctx context.Context, spaceID string) (*forest, error) {
	nodes, err := r.documents.ListBySpace(ctx, spaceID)
	if err != nil {
		return nil, err
	}
	return newForest(nodes), nil
}

// BuildTree returns the ordered forest of live nodes
func (r *treeResolver) BuildTree(ctx context.Context, spaceID string) ([]*domain.TreeNode, error) {
	f, err := r.load(ctx, spaceID)
	if err != nil {
		return nil, err
	}

	ordered, err := f.preorder(f.roots)
	if err != nil {
		return nil, err
	}
	// Nodes not reachable from any root sit on a parent loop
	if len(ordered) != len(f.byID) {
		seen := make(map[string]bool, len(ordered))
		for _, n := range ordered {
			seen[n.ID] = true
		}
		for id := range f.byID {
			if !seen[id] {
				return nil, &domain.CycleError{NodeID: id}
			}
		}
	}

	built := make(map[string]*domain.TreeNode, len(ordered))
	roots := make([]*domain.TreeNode, 0, len(f.roots))
	for _, n := range ordered {
		tn := &domain.TreeNode{
			ID:         n.ID,
			Title:      n.Title,
			Slug:       n.Slug,
			IsPublic:   n.IsPublic,
			OrderIndex: n.OrderIndex,
			ParentID:   n.ParentID,
			Orphaned:   f.orphaned[n.ID],
			Children:   []*domain.TreeNode{},
		}
		built[n.ID] = tn
		if n.ParentID == nil || f.orphaned[n.ID] {
			roots = append(roots, tn)
			continue
		}
		parent := built[*n.ParentID]
		parent.Children = append(parent.Children, tn)
	}
	return roots, nil
}

// Breadcrumbs returns ancestors root-first
func (r *treeResolver) Breadcrumbs(ctx context.Context, nodeID string) ([]*domain.DocumentNode, error) {
	node, err := r.documents.Get(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	if node.IsDeleted {
		return nil, domain.NewNotFound("document", nodeID)
	}

	f, err := r.load(ctx, node.SpaceID)
	if err != nil {
		return nil, err
	}

	var path []*domain.DocumentNode
	visited := map[string]bool{node.ID: true}
	for cur := node; cur.ParentID != nil; {
		parent, ok := f.byID[*cur.ParentID]
		if !ok {
			break
		}
		if visited[parent.ID] {
			return nil, &domain.CycleError{NodeID: parent.ID}
		}
		visited[parent.ID] = true
		path = append(path, parent)
		cur = parent
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, nil
}

// SubtreeIDs returns ids in pre-order; siblings follow order_index
func (r *treeResolver) SubtreeIDs(ctx context.Context, spaceID string, rootID *string) ([]string, error) {
	ordered, err := r.subtreeNodes(ctx, spaceID, rootID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(ordered))
	for i, n := range ordered {
		ids[i] = n.ID
	}
	return ids, nil
}

// subtreeNodes is SubtreeIDs returning the nodes themselves
func (r *treeResolver) subtreeNodes(ctx context.Context, spaceID string, rootID *string) ([]*domain.DocumentNode, error) {
	f, err := r.load(ctx, spaceID)
	if err != nil {
		return nil, err
	}
	starts := f.roots
	if rootID != nil {
		root, ok := f.byID[*rootID]
		if !ok {
			return nil, domain.NewNotFound("document", *rootID)
		}
		starts = []*domain.DocumentNode{root}
	}
	return f.preorder(starts)
}
