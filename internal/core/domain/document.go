package domain

import "time"

// Space is the workspace that owns a tree of documents
type Space struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	IsPublic    bool      `json:"is_public"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DocumentNode is one document in the live, mutable tree of a space
type DocumentNode struct {
	ID         string    `json:"id"`
	SpaceID    string    `json:"space_id"`
	Title      string    `json:"title"`
	Slug       string    `json:"slug"`
	Content    string    `json:"content"`
	Excerpt    string    `json:"excerpt,omitempty"`
	ParentID   *string   `json:"parent_id"`
	OrderIndex int       `json:"order_index"`
	IsPublic   bool      `json:"is_public"`
	IsDeleted  bool      `json:"is_deleted"`
	WordCount  int       `json:"word_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// IsRoot reports whether the node sits at the top of its space
func (d *DocumentNode) IsRoot() bool {
	return d.ParentID == nil
}

// HasParent reports whether the node's parent is the given id (nil = root)
func (d *DocumentNode) HasParent(parentID *string) bool {
	if d.ParentID == nil || parentID == nil {
		return d.ParentID == nil && parentID == nil
	}
	return *d.ParentID == *parentID
}

// SetContent replaces the content and re-derives excerpt and word count
func (d *DocumentNode) SetContent(content string) {
	d.Content = content
	d.Excerpt = Excerpt(content)
	d.WordCount = CountWords(content)
}

// Clone returns a deep copy so callers never share a parent pointer with a store
func (d *DocumentNode) Clone() *DocumentNode {
	c := *d
	if d.ParentID != nil {
		p := *d.ParentID
		c.ParentID = &p
	}
	return &c
}

// TreeNode is one entry of a derived document forest (metadata only)
type TreeNode struct {
	ID         string      `json:"id"`
	Title      string      `json:"title"`
	Slug       string      `json:"slug"`
	IsPublic   bool        `json:"is_public"`
	OrderIndex int         `json:"order_index"`
	ParentID   *string     `json:"parent_id"`
	// Orphaned marks a node whose parent_id did not resolve; it is surfaced at the root
	Orphaned bool        `json:"orphaned,omitempty"`
	Children []*TreeNode `json:"children"`
}

// StringPtr returns a pointer to s, or nil for the empty string
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// StringValue dereferences p, returning "" for nil
func StringValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
