package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/custodia-labs/docspace/internal/core/domain"
	"github.com/custodia-labs/docspace/internal/core/ports/driven"
	"github.com/lib/pq"
)

// Verify interface compliance
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore implements driven.DocumentStore using PostgreSQL.
// Sibling order is kept dense by shifting order_index inside each mutating transaction.
type DocumentStore struct {
	db *DB
}

// NewDocumentStore creates a new DocumentStore
func NewDocumentStore(db *DB) *DocumentStore {
	return &DocumentStore{db: db}
}

const documentColumns = `id, space_id, parent_id, title, slug, content, excerpt,
	order_index, is_public, is_deleted, word_count, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*domain.DocumentNode, error) {
	var doc domain.DocumentNode
	var parentID sql.NullString
	err := row.Scan(
		&doc.ID,
		&doc.SpaceID,
		&parentID,
		&doc.Title,
		&doc.Slug,
		&doc.Content,
		&doc.Excerpt,
		&doc.OrderIndex,
		&doc.IsPublic,
		&doc.IsDeleted,
		&doc.WordCount,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	doc.ParentID = StringPtr(parentID)
	return &doc, nil
}

func (s *DocumentStore) Create(ctx context.Context, doc *domain.DocumentNode) error {
	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		if doc.ParentID != nil {
			if err := requireLiveParent(ctx, tx, doc.SpaceID, *doc.ParentID); err != nil {
				return err
			}
		}

		err := tx.QueryRowContext(ctx, `
			SELECT COALESCE(MAX(order_index) + 1, 0) FROM documents
			WHERE space_id = $1 AND parent_id IS NOT DISTINCT FROM $2 AND NOT is_deleted
		`, doc.SpaceID, NullString(doc.ParentID)).Scan(&doc.OrderIndex)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO documents (`+documentColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, FALSE, $10, $11, $12)
		`,
			doc.ID,
			doc.SpaceID,
			NullString(doc.ParentID),
			doc.Title,
			doc.Slug,
			doc.Content,
			doc.Excerpt,
			doc.OrderIndex,
			doc.IsPublic,
			doc.WordCount,
			doc.CreatedAt,
			doc.UpdatedAt,
		)
		return asConflict(err, "document", doc.ID)
	})
}

func (s *DocumentStore) Get(ctx context.Context, id string) (*domain.DocumentNode, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFound("document", id)
	}
	return doc, err
}

func (s *DocumentStore) ListBySpace(ctx context.Context, spaceID string) ([]*domain.DocumentNode, error) {
	return s.list(ctx, `
		SELECT `+documentColumns+` FROM documents
		WHERE space_id = $1 AND NOT is_deleted
		ORDER BY id
	`, spaceID)
}

func (s *DocumentStore) ListChildren(ctx context.Context, spaceID string, parentID *string) ([]*domain.DocumentNode, error) {
	return s.list(ctx, `
		SELECT `+documentColumns+` FROM documents
		WHERE space_id = $1 AND parent_id IS NOT DISTINCT FROM $2 AND NOT is_deleted
		ORDER BY order_index, id
	`, spaceID, NullString(parentID))
}

func (s *DocumentStore) list(ctx context.Context, query string, args ...any) ([]*domain.DocumentNode, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*domain.DocumentNode
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (s *DocumentStore) Update(ctx context.Context, doc *domain.DocumentNode, ifUnmodifiedSince *time.Time) error {
	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		var updatedAt time.Time
		err := tx.QueryRowContext(ctx,
			`SELECT updated_at FROM documents WHERE id = $1 AND NOT is_deleted FOR UPDATE`,
			doc.ID).Scan(&updatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NewNotFound("document", doc.ID)
		}
		if err != nil {
			return err
		}
		if ifUnmodifiedSince != nil && updatedAt.After(*ifUnmodifiedSince) {
			return &domain.ConflictError{
				Message:      "document was modified by another editor",
				ResourceType: "document",
				ResourceID:   doc.ID,
			}
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE documents SET
				title = $2, slug = $3, content = $4, excerpt = $5,
				word_count = $6, is_public = $7, updated_at = $8
			WHERE id = $1
		`, doc.ID, doc.Title, doc.Slug, doc.Content, doc.Excerpt, doc.WordCount, doc.IsPublic, doc.UpdatedAt)
		return asConflict(err, "document", doc.ID)
	})
}

func (s *DocumentStore) Move(ctx context.Context, id string, newParentID *string, index *int, now time.Time) (*domain.DocumentNode, error) {
	var moved *domain.DocumentNode
	err := s.db.Transaction(ctx, func(tx *sql.Tx) error {
		node, err := scanDocument(tx.QueryRowContext(ctx,
			`SELECT `+documentColumns+` FROM documents WHERE id = $1 AND NOT is_deleted FOR UPDATE`, id))
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NewNotFound("document", id)
		}
		if err != nil {
			return err
		}
		if newParentID != nil {
			if err := requireLiveParent(ctx, tx, node.SpaceID, *newParentID); err != nil {
				return err
			}
		}

		// Close the gap left in the source range.
		if _, err := tx.ExecContext(ctx, `
			UPDATE documents SET order_index = order_index - 1
			WHERE space_id = $1 AND parent_id IS NOT DISTINCT FROM $2
			  AND order_index > $3 AND NOT is_deleted
		`, node.SpaceID, NullString(node.ParentID), node.OrderIndex); err != nil {
			return err
		}

		var siblings int
		if err := tx.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM documents
			WHERE space_id = $1 AND parent_id IS NOT DISTINCT FROM $2 AND id <> $3 AND NOT is_deleted
		`, node.SpaceID, NullString(newParentID), id).Scan(&siblings); err != nil {
			return err
		}
		pos := siblings
		if index != nil && *index >= 0 && *index < siblings {
			pos = *index
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE documents SET order_index = order_index + 1
			WHERE space_id = $1 AND parent_id IS NOT DISTINCT FROM $2
			  AND order_index >= $3 AND id <> $4 AND NOT is_deleted
		`, node.SpaceID, NullString(newParentID), pos, id); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE documents SET parent_id = $2, order_index = $3, updated_at = $4 WHERE id = $1`,
			id, NullString(newParentID), pos, now); err != nil {
			return err
		}

		node.ParentID = newParentID
		node.OrderIndex = pos
		node.UpdatedAt = now
		moved = node
		return nil
	})
	return moved, err
}

func (s *DocumentStore) SoftDelete(ctx context.Context, rootID string, subtreeIDs []string, now time.Time) error {
	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		var spaceID string
		var parentID sql.NullString
		var orderIndex int
		err := tx.QueryRowContext(ctx,
			`SELECT space_id, parent_id, order_index FROM documents WHERE id = $1 AND NOT is_deleted FOR UPDATE`,
			rootID).Scan(&spaceID, &parentID, &orderIndex)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NewNotFound("document", rootID)
		}
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE documents SET is_deleted = TRUE, updated_at = $2 WHERE id = ANY($1)`,
			pq.Array(subtreeIDs), now); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE documents SET order_index = order_index - 1
			WHERE space_id = $1 AND parent_id IS NOT DISTINCT FROM $2
			  AND order_index > $3 AND NOT is_deleted
		`, spaceID, parentID, orderIndex)
		return err
	})
}

func requireLiveParent(ctx context.Context, tx *sql.Tx, spaceID, parentID string) error {
	var exists bool
	err := tx.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM documents WHERE id = $1 AND space_id = $2 AND NOT is_deleted)
	`, parentID, spaceID).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return domain.NewNotFound("document", parentID)
	}
	return nil
}
