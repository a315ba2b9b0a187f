package driven

import (
	"context"

	"github.com/custodia-labs/docspace/internal/core/domain"
)

// SpaceStore handles space persistence
type SpaceStore interface {
	// Create inserts a new space
	Create(ctx context.Context, space *domain.Space) error

	// Get retrieves a space by ID
	Get(ctx context.Context, id string) (*domain.Space, error)

	// List retrieves all spaces ordered by name
	List(ctx context.Context) ([]*domain.Space, error)
}
