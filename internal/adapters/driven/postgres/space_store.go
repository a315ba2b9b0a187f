package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/custodia-labs/docspace/internal/core/domain"
	"github.com/custodia-labs/docspace/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.SpaceStore = (*SpaceStore)(nil)

// SpaceStore implements driven.SpaceStore using PostgreSQL
type SpaceStore struct {
	db *DB
}

// NewSpaceStore creates a new SpaceStore
func NewSpaceStore(db *DB) *SpaceStore {
	return &SpaceStore{db: db}
}

func (s *SpaceStore) Create(ctx context.Context, space *domain.Space) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO spaces (id, name, slug, description, is_public, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, space.ID, space.Name, space.Slug, space.Description, space.IsPublic, space.CreatedAt, space.UpdatedAt)
	return asConflict(err, "space", space.ID)
}

func (s *SpaceStore) Get(ctx context.Context, id string) (*domain.Space, error) {
	var space domain.Space
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, slug, description, is_public, created_at, updated_at
		FROM spaces WHERE id = $1
	`, id).Scan(&space.ID, &space.Name, &space.Slug, &space.Description, &space.IsPublic, &space.CreatedAt, &space.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFound("space", id)
	}
	if err != nil {
		return nil, err
	}
	return &space, nil
}

func (s *SpaceStore) List(ctx context.Context) ([]*domain.Space, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, slug, description, is_public, created_at, updated_at
		FROM spaces ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var spaces []*domain.Space
	for rows.Next() {
		var space domain.Space
		if err := rows.Scan(&space.ID, &space.Name, &space.Slug, &space.Description, &space.IsPublic, &space.CreatedAt, &space.UpdatedAt); err != nil {
			return nil, err
		}
		spaces = append(spaces, &space)
	}
	return spaces, rows.Err()
}
