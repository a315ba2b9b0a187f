package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docspace/internal/adapters/driven/memory"
	"github.com/custodia-labs/docspace/internal/core/domain"
	"github.com/custodia-labs/docspace/internal/core/ports/driven/mocks"
	"github.com/custodia-labs/docspace/internal/core/ports/driving"
)

// testEnv wires every service over the in-memory stores
type testEnv struct {
	spaces    *memory.SpaceStore
	documents *memory.DocumentStore
	slugStore *memory.SlugStore
	pubs      *memory.PublicationStore
	lock      *mocks.MockDistributedLock
	logger    *slog.Logger

	slugs    driving.SlugRegistry
	spaceSvc driving.SpaceService
	docSvc   driving.DocumentService
	tree     driving.TreeService
	pubSvc   *publicationService
	gateway  driving.PublicGateway
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	e := &testEnv{
		spaces:    memory.NewSpaceStore(),
		documents: memory.NewDocumentStore(),
		slugStore: memory.NewSlugStore(),
		pubs:      memory.NewPublicationStore(),
		lock:      mocks.NewMockDistributedLock(),
		logger:    discardLogger(),
	}
	e.slugs = NewSlugRegistry(e.slugStore)
	e.spaceSvc = NewSpaceService(e.spaces, e.slugs, e.logger)
	e.docSvc = NewDocumentService(DocumentServiceConfig{
		Documents: e.documents,
		Spaces:    e.spaces,
		Slugs:     e.slugs,
		Lock:      e.lock,
		Logger:    e.logger,
		LockPoll:  time.Millisecond,
	})
	e.tree = NewTreeService(e.documents)
	e.pubSvc = newPublicationService(PublicationServiceConfig{
		Publications: e.pubs,
		Documents:    e.documents,
		Spaces:       e.spaces,
		Slugs:        e.slugs,
		Lock:         e.lock,
		Logger:       e.logger,
		LockPoll:     time.Millisecond,
	})
	e.gateway = NewPublicGateway(e.pubs, e.logger)
	return e
}

func (e *testEnv) mustSpace(t *testing.T, name string) *domain.Space {
	t.Helper()
	space, err := e.spaceSvc.Create(context.Background(), driving.CreateSpaceRequest{Name: name})
	require.NoError(t, err)
	return space
}

func (e *testEnv) mustDoc(t *testing.T, spaceID, title string, parent *domain.DocumentNode, public bool) *domain.DocumentNode {
	t.Helper()
	req := driving.CreateDocumentRequest{
		SpaceID:  spaceID,
		Title:    title,
		Content:  "Content of " + title,
		IsPublic: public,
	}
	if parent != nil {
		req.ParentID = &parent.ID
	}
	doc, err := e.docSvc.Create(context.Background(), req)
	require.NoError(t, err)
	return doc
}

// mustDemo builds scenario one: a space with intro and intro/details
func (e *testEnv) mustDemo(t *testing.T) (*domain.Space, *domain.DocumentNode, *domain.DocumentNode) {
	t.Helper()
	space := e.mustSpace(t, "demo")
	intro := e.mustDoc(t, space.ID, "intro", nil, true)
	details := e.mustDoc(t, space.ID, "details", intro, true)
	return space, intro, details
}

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }
