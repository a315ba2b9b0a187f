package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/docspace/internal/core/domain"
)

// CreateDocumentRequest represents a request to create a document node
type CreateDocumentRequest struct {
	SpaceID  string  `json:"space_id"`
	Title    string  `json:"title"`
	Slug     string  `json:"slug,omitempty"`
	Content  string  `json:"content"`
	ParentID *string `json:"parent_id,omitempty"`
	IsPublic bool    `json:"is_public"`
}

// UpdateDocumentRequest represents a partial update of a document node
type UpdateDocumentRequest struct {
	Title    *string `json:"title,omitempty"`
	Slug     *string `json:"slug,omitempty"`
	Content  *string `json:"content,omitempty"`
	IsPublic *bool   `json:"is_public,omitempty"`

	// IfUnmodifiedSince rejects the update with a ConflictError when the node changed after it
	IfUnmodifiedSince *time.Time `json:"if_unmodified_since,omitempty"`
}

// MoveDocumentRequest represents a reparent and/or reorder
type MoveDocumentRequest struct {
	ParentID   OptionalString `json:"parent_id"`
	OrderIndex *int           `json:"order_index,omitempty"`
}

// DuplicateDocumentRequest names the copy of a subtree root. Empty fields are derived.
type DuplicateDocumentRequest struct {
	NewTitle string `json:"new_title,omitempty"`
	NewSlug  string `json:"new_slug,omitempty"`
}

// BatchDocumentsRequest lists nodes of one space to act on together
type BatchDocumentsRequest struct {
	DocumentIDs []string `json:"document_ids"`
	IsPublic    bool     `json:"is_public"`
}

// SetPublicRequest toggles whether a node is included in non-private publications
type SetPublicRequest struct {
	IsPublic bool `json:"is_public"`
}

// DocumentService manages the live document tree of a space
type DocumentService interface {
	// Create inserts a node at the end of its sibling list
	Create(ctx context.Context, req CreateDocumentRequest) (*domain.DocumentNode, error)

	// Get retrieves a live node
	Get(ctx context.Context, id string) (*domain.DocumentNode, error)

	// Update edits fields in place; structure is untouched
	Update(ctx context.Context, id string, req UpdateDocumentRequest) (*domain.DocumentNode, error)

	// Move reparents and/or reorders a node
	Move(ctx context.Context, id string, req MoveDocumentRequest) (*domain.DocumentNode, error)

	// Delete tombstones the node and its whole subtree
	Delete(ctx context.Context, id string) error

	// ListChildren lists live children of parentID (nil = roots) in order
	ListChildren(ctx context.Context, spaceID string, parentID *string) ([]*domain.DocumentNode, error)

	// ListSubtree lists rootID and its live descendants in pre-order
	ListSubtree(ctx context.Context, rootID string) ([]*domain.DocumentNode, error)

	// GetBySlug retrieves a live node by its slug within spaceID
	GetBySlug(ctx context.Context, spaceID, slug string) (*domain.DocumentNode, error)

	// Duplicate copies id and its live descendants, appending the copy as the last sibling of id.
	// Returns the copied nodes in pre-order, root first.
	Duplicate(ctx context.Context, id string, req DuplicateDocumentRequest) ([]*domain.DocumentNode, error)

	// SetPublic flips is_public on one node
	SetPublic(ctx context.Context, id string, public bool) (*domain.DocumentNode, error)

	// BatchDelete deletes every listed node and its subtree under one tree lease
	BatchDelete(ctx context.Context, spaceID string, ids []string) error

	// BatchSetPublic sets is_public on every listed node under one tree lease
	BatchSetPublic(ctx context.Context, spaceID string, ids []string, public bool) ([]*domain.DocumentNode, error)
}
