package domain

import "time"

// PublicationState is the lifecycle state of a publication row
type PublicationState string

const (
	PublicationActive   PublicationState = "active"
	PublicationInactive PublicationState = "inactive"
	PublicationDeleted  PublicationState = "deleted"
)

// Publication is an immutable, versioned snapshot of a document subtree
type Publication struct {
	ID            string    `json:"id"`
	SpaceID       string    `json:"space_id"`
	Slug          string    `json:"slug"`
	Version       int       `json:"version"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	IsActive      bool      `json:"is_active"`
	DocumentCount int       `json:"document_count"`
	TotalViews    int64     `json:"total_views"`
	PublishedAt   time.Time `json:"published_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Selection options replayed by republish
	RootDocumentID *string `json:"root_document_id,omitempty"`
	IncludePrivate bool    `json:"include_private"`
	ChangeSummary  string  `json:"change_summary,omitempty"`
}

// State derives the lifecycle state of a stored row
func (p *Publication) State() PublicationState {
	if p.IsActive {
		return PublicationActive
	}
	return PublicationInactive
}

// Clone returns a copy safe to hand out of a store
func (p *Publication) Clone() *Publication {
	c := *p
	if p.RootDocumentID != nil {
		r := *p.RootDocumentID
		c.RootDocumentID = &r
	}
	return &c
}

// PublicationDocument is one document copied into a publication version
type PublicationDocument struct {
	ID            string    `json:"id"`
	PublicationID string    `json:"publication_id"`
	OriginalDocID string    `json:"original_doc_id"`
	Title         string    `json:"title"`
	Slug          string    `json:"slug"`
	Content       string    `json:"content"`
	Excerpt       string    `json:"excerpt,omitempty"`
	ParentID      *string   `json:"parent_id"`
	OrderIndex    int       `json:"order_index"`
	WordCount     int       `json:"word_count"`
	ReadingTime   int       `json:"reading_time"`
	CreatedAt     time.Time `json:"created_at"`
}

// Clone returns a copy safe to hand out of a store
func (d *PublicationDocument) Clone() *PublicationDocument {
	c := *d
	if d.ParentID != nil {
		p := *d.ParentID
		c.ParentID = &p
	}
	return &c
}

// PublicationTreeNode is one entry of a snapshot forest
type PublicationTreeNode struct {
	ID         string                 `json:"id"`
	Title      string                 `json:"title"`
	Slug       string                 `json:"slug"`
	Excerpt    string                 `json:"excerpt,omitempty"`
	OrderIndex int                    `json:"order_index"`
	Children   []*PublicationTreeNode `json:"children"`
}

// PublishOptions selects and describes the subtree to snapshot
type PublishOptions struct {
	Slug           string  `json:"slug"`
	Title          string  `json:"title"`
	Description    string  `json:"description,omitempty"`
	RootDocumentID *string `json:"root_document_id,omitempty"`
	IncludePrivate bool    `json:"include_private"`
	ChangeSummary  string  `json:"change_summary,omitempty"`
}

// DraftStatus reports whether a document has edits waiting to be written
type DraftStatus struct {
	DocumentID   string     `json:"document_id"`
	Dirty        bool       `json:"dirty"`
	PendingSince *time.Time `json:"pending_since,omitempty"`
	LastSavedAt  *time.Time `json:"last_saved_at,omitempty"`
	LastError    string     `json:"last_error,omitempty"`
}
