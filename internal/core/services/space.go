package services

import (
	"context"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/custodia-labs/docspace/internal/core/domain"
	"github.com/custodia-labs/docspace/internal/core/ports/driven"
	"github.com/custodia-labs/docspace/internal/core/ports/driving"
)

var _ driving.SpaceService = (*spaceService)(nil)

type spaceService struct {
	spaces driven.SpaceStore
	slugs  driving.SlugRegistry
	logger *slog.Logger
	now    func() time.Time
}

// NewSpaceService creates a new SpaceService
func NewSpaceService(spaces driven.SpaceStore, slugs driving.SlugRegistry, logger *slog.Logger) driving.SpaceService {
	if logger == nil {
		logger = slog.Default()
	}
	return &spaceService{spaces: spaces, slugs: slugs, logger: logger, now: time.Now}
}

// Create creates a space and claims its slug in the global space scope
func (s *spaceService) Create(ctx context.Context, req driving.CreateSpaceRequest) (*domain.Space, error) {
	err := validation.ValidateStruct(&req,
		validation.Field(&req.Name, validation.Required, validation.Length(1, maxTitleLength)),
		validation.Field(&req.Slug, slugRule),
		validation.Field(&req.Description, validation.Length(0, maxDescriptionLength)),
	)
	if err != nil {
		return nil, toValidationError(err)
	}

	id := uuid.NewString()
	slug, err := claimSlug(ctx, s.slugs, domain.ScopeSpaces, req.Slug, req.Name, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	space := &domain.Space{
		ID:          id,
		Name:        req.Name,
		Slug:        slug,
		Description: req.Description,
		IsPublic:    req.IsPublic,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.spaces.Create(ctx, space); err != nil {
		_ = s.slugs.Release(ctx, domain.ScopeSpaces, slug, id)
		return nil, err
	}

	s.logger.Info("space created", "space_id", id, "slug", slug)
	return space, nil
}

// Get retrieves a space by ID
func (s *spaceService) Get(ctx context.Context, id string) (*domain.Space, error) {
	return s.spaces.Get(ctx, id)
}

// List retrieves all spaces
func (s *spaceService) List(ctx context.Context) ([]*domain.Space, error) {
	return s.spaces.List(ctx)
}

// claimSlug reserves an explicit slug, or derives one from title when explicit is empty.
// A derived slug that is taken falls back to the registry's suggestion.
func claimSlug(ctx context.Context, slugs driving.SlugRegistry, scope domain.SlugScope, explicit, title, owner string) (string, error) {
	if explicit != "" {
		return slugs.Reserve(ctx, scope, explicit, owner)
	}

	candidate, err := slugs.Suggest(ctx, scope, domain.Slugify(title))
	if err != nil {
		return "", err
	}
	for attempt := 0; attempt < 3; attempt++ {
		slug, err := slugs.Reserve(ctx, scope, candidate, owner)
		if err == nil {
			return slug, nil
		}
		var conflict *domain.ConflictError
		if !asConflict(err, &conflict) || conflict.Suggestion == "" {
			return "", err
		}
		candidate = conflict.Suggestion
	}
	return "", &domain.ConflictError{Message: "could not derive a free slug from " + title, ResourceType: "slug"}
}
