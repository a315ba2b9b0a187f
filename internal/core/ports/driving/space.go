package driving

import (
	"context"

	"github.com/custodia-labs/docspace/internal/core/domain"
)

// CreateSpaceRequest represents a request to create a new space
type CreateSpaceRequest struct {
	Name        string `json:"name"`
	Slug        string `json:"slug,omitempty"`
	Description string `json:"description,omitempty"`
	IsPublic    bool   `json:"is_public"`
}

// SpaceService manages spaces
type SpaceService interface {
	// Create creates a space; the slug is derived from the name when empty
	Create(ctx context.Context, req CreateSpaceRequest) (*domain.Space, error)

	// Get retrieves a space by ID
	Get(ctx context.Context, id string) (*domain.Space, error)

	// List retrieves all spaces
	List(ctx context.Context) ([]*domain.Space, error)
}
