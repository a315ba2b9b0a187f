package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/docspace/internal/core/domain"
	"github.com/custodia-labs/docspace/internal/core/ports/driven"
)

var _ driven.PublicationStore = (*PublicationStore)(nil)

// PublicationStore implements driven.PublicationStore using PostgreSQL.
// publications_one_active backs the single-active-version rule.
type PublicationStore struct {
	db *DB
}

// NewPublicationStore creates a new PublicationStore
func NewPublicationStore(db *DB) *PublicationStore {
	return &PublicationStore{db: db}
}

const publicationColumns = `id, space_id, slug, version, title, description, is_active,
	document_count, total_views, root_document_id, include_private, change_summary,
	published_at, updated_at`

func scanPublication(row rowScanner) (*domain.Publication, error) {
	var pub domain.Publication
	var rootID sql.NullString
	err := row.Scan(
		&pub.ID,
		&pub.SpaceID,
		&pub.Slug,
		&pub.Version,
		&pub.Title,
		&pub.Description,
		&pub.IsActive,
		&pub.DocumentCount,
		&pub.TotalViews,
		&rootID,
		&pub.IncludePrivate,
		&pub.ChangeSummary,
		&pub.PublishedAt,
		&pub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	pub.RootDocumentID = StringPtr(rootID)
	return &pub, nil
}

func (s *PublicationStore) Commit(ctx context.Context, pub *domain.Publication, docs []*domain.PublicationDocument) error {
	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		// Serialize commits per slug so the version check and the insert see the same state.
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, lockKey("commit:"+pub.Slug)); err != nil {
			return err
		}

		latest, err := latestVersion(ctx, tx, pub.Slug)
		if err != nil {
			return err
		}
		if pub.Version != latest+1 {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("publication %s moved to version %d", pub.Slug, latest),
				ResourceType: "publication",
				ResourceID:   pub.Slug,
			}
		}

		if pub.IsActive {
			if _, err := tx.ExecContext(ctx,
				`UPDATE publications SET is_active = FALSE, updated_at = $2 WHERE slug = $1 AND is_active`,
				pub.Slug, pub.PublishedAt); err != nil {
				return err
			}
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO publications (`+publicationColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		`,
			pub.ID,
			pub.SpaceID,
			pub.Slug,
			pub.Version,
			pub.Title,
			pub.Description,
			pub.IsActive,
			pub.DocumentCount,
			pub.TotalViews,
			NullString(pub.RootDocumentID),
			pub.IncludePrivate,
			pub.ChangeSummary,
			pub.PublishedAt,
			pub.UpdatedAt,
		)
		if err != nil {
			return asConflict(err, "publication", pub.ID)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO publication_documents (id, publication_id, original_doc_id, parent_id, title, slug,
				content, excerpt, order_index, word_count, reading_time, position, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, d := range docs {
			if err := ctx.Err(); err != nil {
				return err
			}
			_, err := stmt.ExecContext(ctx,
				d.ID,
				pub.ID,
				d.OriginalDocID,
				NullString(d.ParentID),
				d.Title,
				d.Slug,
				d.Content,
				d.Excerpt,
				d.OrderIndex,
				d.WordCount,
				d.ReadingTime,
				i,
				d.CreatedAt,
			)
			if err != nil {
				return asConflict(err, "publication_document", d.Slug)
			}
		}
		return nil
	})
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func latestVersion(ctx context.Context, q queryRower, slug string) (int, error) {
	var latest int
	err := q.QueryRowContext(ctx, `
		SELECT GREATEST(
			(SELECT COALESCE(MAX(version), 0) FROM publications WHERE slug = $1),
			(SELECT COALESCE(MAX(version), 0) FROM publication_tombstones WHERE slug = $1)
		)
	`, slug).Scan(&latest)
	return latest, err
}

func (s *PublicationStore) LatestVersion(ctx context.Context, slug string) (int, error) {
	return latestVersion(ctx, s.db, slug)
}

func (s *PublicationStore) Get(ctx context.Context, id string) (*domain.Publication, error) {
	pub, err := scanPublication(s.db.QueryRowContext(ctx,
		`SELECT `+publicationColumns+` FROM publications WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFound("publication", id)
	}
	return pub, err
}

func (s *PublicationStore) GetActiveBySlug(ctx context.Context, slug string) (*domain.Publication, error) {
	pub, err := scanPublication(s.db.QueryRowContext(ctx,
		`SELECT `+publicationColumns+` FROM publications WHERE slug = $1 AND is_active`, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFound("publication", slug)
	}
	return pub, err
}

func (s *PublicationStore) ListBySpace(ctx context.Context, spaceID string, includeInactive bool) ([]*domain.Publication, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+publicationColumns+` FROM publications
		WHERE space_id = $1 AND (is_active OR $2)
		ORDER BY published_at DESC, slug, version DESC
	`, spaceID, includeInactive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pubs []*domain.Publication
	for rows.Next() {
		pub, err := scanPublication(rows)
		if err != nil {
			return nil, err
		}
		pubs = append(pubs, pub)
	}
	return pubs, rows.Err()
}

func (s *PublicationStore) Deactivate(ctx context.Context, id string, now time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE publications
		SET updated_at = CASE WHEN is_active THEN $2 ELSE updated_at END, is_active = FALSE
		WHERE id = $1
	`, id, now)
	return requireRow(res, err, "publication", id)
}

func (s *PublicationStore) Activate(ctx context.Context, id string, now time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE publications SET is_active = TRUE, updated_at = $2 WHERE id = $1`, id, now)
	if err != nil {
		return asConflict(err, "publication", id)
	}
	return requireRow(res, nil, "publication", id)
}

func (s *PublicationStore) UpdateMetadata(ctx context.Context, id, title, description string, now time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE publications SET title = $2, description = $3, updated_at = $4 WHERE id = $1`,
		id, title, description, now)
	return requireRow(res, err, "publication", id)
}

func (s *PublicationStore) Delete(ctx context.Context, id string) error {
	return s.db.Transaction(ctx, func(tx *sql.Tx) error {
		var slug string
		var version int
		err := tx.QueryRowContext(ctx,
			`DELETE FROM publications WHERE id = $1 RETURNING slug, version`, id).Scan(&slug, &version)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.NewNotFound("publication", id)
		}
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO publication_tombstones (id, slug, version) VALUES ($1, $2, $3) ON CONFLICT (id) DO NOTHING`,
			id, slug, version)
		return err
	})
}

func (s *PublicationStore) IsDeleted(ctx context.Context, id string) (bool, error) {
	var deleted bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM publication_tombstones WHERE id = $1)`, id).Scan(&deleted)
	return deleted, err
}

func (s *PublicationStore) IncrementViews(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE publications SET total_views = total_views + 1 WHERE id = $1`, id)
	return requireRow(res, err, "publication", id)
}

const publicationDocumentColumns = `id, publication_id, original_doc_id, parent_id, title, slug,
	content, excerpt, order_index, word_count, reading_time, created_at`

func scanPublicationDocument(row rowScanner) (*domain.PublicationDocument, error) {
	var d domain.PublicationDocument
	var parentID sql.NullString
	err := row.Scan(
		&d.ID,
		&d.PublicationID,
		&d.OriginalDocID,
		&parentID,
		&d.Title,
		&d.Slug,
		&d.Content,
		&d.Excerpt,
		&d.OrderIndex,
		&d.WordCount,
		&d.ReadingTime,
		&d.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	d.ParentID = StringPtr(parentID)
	return &d, nil
}

func (s *PublicationStore) ListDocuments(ctx context.Context, publicationID string) ([]*domain.PublicationDocument, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM publications WHERE id = $1)`, publicationID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.NewNotFound("publication", publicationID)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+publicationDocumentColumns+` FROM publication_documents
		WHERE publication_id = $1 ORDER BY position
	`, publicationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*domain.PublicationDocument
	for rows.Next() {
		d, err := scanPublicationDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (s *PublicationStore) GetDocumentBySlug(ctx context.Context, publicationID, slug string) (*domain.PublicationDocument, error) {
	d, err := scanPublicationDocument(s.db.QueryRowContext(ctx, `
		SELECT `+publicationDocumentColumns+` FROM publication_documents
		WHERE publication_id = $1 AND slug = $2
	`, publicationID, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFound("publication_document", slug)
	}
	return d, err
}

func requireRow(res sql.Result, err error, resourceType, id string) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NewNotFound(resourceType, id)
	}
	return nil
}
