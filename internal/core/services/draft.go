package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/custodia-labs/docspace/internal/core/domain"
	"github.com/custodia-labs/docspace/internal/core/ports/driving"
)

var _ driving.DraftQueue = (*DraftQueue)(nil)

// DraftQueue coalesces rapid autosave edits into one latest-wins write per document.
// Pending patches are flushed on a ticker, on demand, and on Stop.
type DraftQueue struct {
	documents driving.DocumentService
	logger    *slog.Logger
	interval  time.Duration
	now       func() time.Time

	mu      sync.Mutex
	pending map[string]*draftEntry
	status  map[string]*domain.DraftStatus

	// writeMu keeps flushes of the same queue sequential
	writeMu sync.Mutex

	runMu   sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

type draftEntry struct {
	patch driving.UpdateDocumentRequest
	since time.Time
}

// DraftQueueConfig holds configuration for the draft queue.
type DraftQueueConfig struct {
	Documents driving.DocumentService
	Logger    *slog.Logger
	Interval  time.Duration // How often pending drafts are written (default: 2s)
}

// NewDraftQueue creates a new draft queue.
func NewDraftQueue(cfg DraftQueueConfig) *DraftQueue {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &DraftQueue{
		documents: cfg.Documents,
		logger:    logger,
		interval:  interval,
		now:       time.Now,
		pending:   make(map[string]*draftEntry),
		status:    make(map[string]*domain.DraftStatus),
	}
}

// Submit merges req over any pending patch for documentID; later fields win
func (q *DraftQueue) Submit(ctx context.Context, documentID string, req driving.UpdateDocumentRequest) (*domain.DraftStatus, error) {
	if _, err := q.documents.Get(ctx, documentID); err != nil {
		return nil, err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	entry, ok := q.pending[documentID]
	if !ok {
		entry = &draftEntry{since: q.now()}
		q.pending[documentID] = entry
	}
	entry.patch = mergePatch(entry.patch, req)

	st := q.statusLocked(documentID)
	st.Dirty = true
	since := entry.since
	st.PendingSince = &since
	return copyStatus(st), nil
}

// Flush writes the pending patch for documentID now
func (q *DraftQueue) Flush(ctx context.Context, documentID string) (*domain.DraftStatus, error) {
	q.writeMu.Lock()
	defer q.writeMu.Unlock()

	st, err := q.flushLocked(ctx, documentID)
	if st == nil {
		st = q.Status(documentID)
	}
	return st, err
}

// Status reports the pending state of documentID. Unknown documents are clean.
func (q *DraftQueue) Status(documentID string) *domain.DraftStatus {
	q.mu.Lock()
	defer q.mu.Unlock()
	if st, ok := q.status[documentID]; ok {
		return copyStatus(st)
	}
	return &domain.DraftStatus{DocumentID: documentID}
}

// Start begins the periodic flush loop.
// It runs until Stop is called or context is cancelled.
func (q *DraftQueue) Start(ctx context.Context) error {
	q.runMu.Lock()
	if q.running {
		q.runMu.Unlock()
		return nil
	}
	q.running = true
	stopCh, doneCh := make(chan struct{}), make(chan struct{})
	q.stopCh, q.doneCh = stopCh, doneCh
	q.runMu.Unlock()

	q.logger.Info("draft queue starting", "interval", q.interval)
	go q.run(ctx, stopCh, doneCh)
	return nil
}

// Stop flushes outstanding drafts and stops the loop.
func (q *DraftQueue) Stop() {
	q.runMu.Lock()
	if !q.running {
		q.runMu.Unlock()
		return
	}
	close(q.stopCh)
	doneCh := q.doneCh
	q.runMu.Unlock()

	<-doneCh
	q.logger.Info("draft queue stopped")
}

// run owns the loop until ctx ends or stopCh closes; either way the queue can be started again
func (q *DraftQueue) run(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer func() {
		q.runMu.Lock()
		q.running = false
		q.runMu.Unlock()
		close(doneCh)
	}()

	ticker := time.NewTicker(q.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			q.flushAll(context.WithoutCancel(ctx))
			return
		case <-stopCh:
			q.flushAll(context.WithoutCancel(ctx))
			return
		case <-ticker.C:
			q.flushAll(ctx)
		}
	}
}

// flushAll writes every pending draft
func (q *DraftQueue) flushAll(ctx context.Context) {
	q.mu.Lock()
	ids := make([]string, 0, len(q.pending))
	for id := range q.pending {
		ids = append(ids, id)
	}
	q.mu.Unlock()

	q.writeMu.Lock()
	defer q.writeMu.Unlock()
	for _, id := range ids {
		if _, err := q.flushLocked(ctx, id); err != nil {
			q.logger.Warn("draft flush failed", "document_id", id, "error", err)
		}
	}
}

// flushLocked takes the pending patch and writes it. The caller holds writeMu.
// Transient failures put the patch back unless a newer one arrived meanwhile.
// A nil status means nothing was pending.
func (q *DraftQueue) flushLocked(ctx context.Context, documentID string) (*domain.DraftStatus, error) {
	q.mu.Lock()
	entry, ok := q.pending[documentID]
	if ok {
		delete(q.pending, documentID)
	}
	q.mu.Unlock()
	if !ok {
		return nil, nil
	}

	_, err := q.documents.Update(ctx, documentID, entry.patch)

	q.mu.Lock()
	defer q.mu.Unlock()
	st := q.statusLocked(documentID)

	if err != nil {
		st.LastError = err.Error()
		if isTransient(err) {
			if newer, exists := q.pending[documentID]; exists {
				newer.patch = mergePatch(entry.patch, newer.patch)
				newer.since = entry.since
			} else {
				q.pending[documentID] = entry
			}
			return copyStatus(st), err
		}
		q.clearDirtyLocked(st, documentID)
		return copyStatus(st), err
	}

	saved := q.now()
	st.LastSavedAt = &saved
	st.LastError = ""
	q.clearDirtyLocked(st, documentID)
	out := copyStatus(st)
	if !st.Dirty {
		delete(q.status, documentID)
	}
	return out, nil
}

func (q *DraftQueue) clearDirtyLocked(st *domain.DraftStatus, documentID string) {
	if next, exists := q.pending[documentID]; exists {
		since := next.since
		st.PendingSince = &since
		return
	}
	st.Dirty = false
	st.PendingSince = nil
}

func (q *DraftQueue) statusLocked(documentID string) *domain.DraftStatus {
	st, ok := q.status[documentID]
	if !ok {
		st = &domain.DraftStatus{DocumentID: documentID}
		q.status[documentID] = st
	}
	return st
}

// isTransient reports whether a failed write is worth retrying with the same patch
func isTransient(err error) bool {
	return !errors.Is(err, domain.ErrValidation) &&
		!errors.Is(err, domain.ErrConflict) &&
		!errors.Is(err, domain.ErrNotFound)
}

// mergePatch overlays next on prev field by field
func mergePatch(prev, next driving.UpdateDocumentRequest) driving.UpdateDocumentRequest {
	out := prev
	if next.Title != nil {
		out.Title = next.Title
	}
	if next.Slug != nil {
		out.Slug = next.Slug
	}
	if next.Content != nil {
		out.Content = next.Content
	}
	if next.IsPublic != nil {
		out.IsPublic = next.IsPublic
	}
	if next.IfUnmodifiedSince != nil {
		out.IfUnmodifiedSince = next.IfUnmodifiedSince
	}
	return out
}

func copyStatus(st *domain.DraftStatus) *domain.DraftStatus {
	c := *st
	return &c
}
