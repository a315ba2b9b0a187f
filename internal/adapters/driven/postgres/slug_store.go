package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/custodia-labs/docspace/internal/core/domain"
	"github.com/custodia-labs/docspace/internal/core/ports/driven"
)

var _ driven.SlugStore = (*SlugStore)(nil)

// SlugStore keeps reservations in slug_reservations keyed by (scope, slug)
type SlugStore struct {
	db *DB
}

// NewSlugStore creates a new SlugStore
func NewSlugStore(db *DB) *SlugStore {
	return &SlugStore{db: db}
}

// Reserve inserts the row or, on conflict, reports whether owner already holds it.
// The no-op update makes RETURNING yield the existing owner in one round trip.
func (s *SlugStore) Reserve(ctx context.Context, scope domain.SlugScope, slug, owner string) (bool, error) {
	var current string
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO slug_reservations (scope, slug, owner)
		VALUES ($1, $2, $3)
		ON CONFLICT (scope, slug) DO UPDATE SET owner = slug_reservations.owner
		RETURNING owner
	`, string(scope), slug, owner).Scan(&current)
	if err != nil {
		return false, err
	}
	return current == owner, nil
}

func (s *SlugStore) Release(ctx context.Context, scope domain.SlugScope, slug, owner string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM slug_reservations WHERE scope = $1 AND slug = $2 AND owner = $3`,
		string(scope), slug, owner)
	return err
}

func (s *SlugStore) Owner(ctx context.Context, scope domain.SlugScope, slug string) (string, error) {
	var owner string
	err := s.db.QueryRowContext(ctx,
		`SELECT owner FROM slug_reservations WHERE scope = $1 AND slug = $2`,
		string(scope), slug).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return owner, err
}
