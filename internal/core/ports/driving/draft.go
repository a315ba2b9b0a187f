package driving

import (
	"context"

	"github.com/custodia-labs/docspace/internal/core/domain"
)

// DraftQueue coalesces autosave edits and writes them in the background
type DraftQueue interface {
	// Submit records the latest patch for a document; earlier pending patches are replaced
	Submit(ctx context.Context, documentID string, req UpdateDocumentRequest) (*domain.DraftStatus, error)

	// Flush writes the pending patch for a document now
	Flush(ctx context.Context, documentID string) (*domain.DraftStatus, error)

	// Status reports whether a document has a pending patch
	Status(documentID string) *domain.DraftStatus
}
