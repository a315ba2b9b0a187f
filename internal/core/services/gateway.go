package services

import (
	"context"
	"log/slog"

	"github.com/custodia-labs/docspace/internal/core/domain"
	"github.com/custodia-labs/docspace/internal/core/ports/driven"
	"github.com/custodia-labs/docspace/internal/core/ports/driving"
)

var _ driving.PublicGateway = (*publicGateway)(nil)

// publicGateway resolves anonymous reads against the active version of a slug.
// The view counter is the only thing it writes.
type publicGateway struct {
	publications driven.PublicationStore
	logger       *slog.Logger
}

// NewPublicGateway creates a new PublicGateway
func NewPublicGateway(publications driven.PublicationStore, logger *slog.Logger) driving.PublicGateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &publicGateway{publications: publications, logger: logger}
}

func (g *publicGateway) ResolvePublication(ctx context.Context, slug string) (*domain.Publication, error) {
	pub, err := g.active(ctx, slug)
	if err != nil {
		return nil, err
	}
	g.countView(ctx, pub)
	return pub, nil
}

func (g *publicGateway) ResolveTree(ctx context.Context, slug string) ([]*domain.PublicationTreeNode, error) {
	pub, err := g.active(ctx, slug)
	if err != nil {
		return nil, err
	}
	docs, err := g.publications.ListDocuments(ctx, pub.ID)
	if err != nil {
		return nil, err
	}
	g.countView(ctx, pub)
	return buildPublicationTree(docs), nil
}

func (g *publicGateway) ResolveDocument(ctx context.Context, slug, docSlug string) (*domain.PublicationDocument, error) {
	pub, err := g.active(ctx, slug)
	if err != nil {
		return nil, err
	}
	doc, err := g.publications.GetDocumentBySlug(ctx, pub.ID, domain.NormalizeSlug(docSlug))
	if err != nil {
		return nil, err
	}
	g.countView(ctx, pub)
	return doc, nil
}

func (g *publicGateway) active(ctx context.Context, slug string) (*domain.Publication, error) {
	return g.publications.GetActiveBySlug(ctx, domain.NormalizeSlug(slug))
}

// countView increments total_views; a failed increment never fails the read
func (g *publicGateway) countView(ctx context.Context, pub *domain.Publication) {
	if err := g.publications.IncrementViews(ctx, pub.ID); err != nil {
		g.logger.Warn("failed to count view", "publication_id", pub.ID, "error", err)
		return
	}
	pub.TotalViews++
}
