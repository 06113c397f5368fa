package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/wolfeidau/sheetclock/internal/models"
	"github.com/wolfeidau/sheetclock/internal/store"
)

// DocumentStore implements store.DocumentStore using PostgreSQL.
type DocumentStore struct {
	db
}

var _ store.DocumentStore = (*DocumentStore)(nil)

const documentColumns = `id, title, added_at, last_modified, added_by`

func scanDocument(row pgx.Row) (*models.TrackedDocument, error) {
	var doc models.TrackedDocument
	if err := row.Scan(&doc.ID, &doc.Title, &doc.AddedAt, &doc.LastModified, &doc.AddedBy); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *DocumentStore) List(ctx context.Context) ([]*models.TrackedDocument, error) {
	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	rows, err := s.pool.Query(ctx, `SELECT `+documentColumns+` FROM tracked_documents ORDER BY added_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", mapPostgresError(err))
	}
	defer rows.Close()

	docs := []*models.TrackedDocument{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}

	return docs, rows.Err()
}

func (s *DocumentStore) Get(ctx context.Context, id string) (*models.TrackedDocument, error) {
	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	doc, err := scanDocument(s.pool.QueryRow(ctx, `SELECT `+documentColumns+` FROM tracked_documents WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", mapPostgresError(err))
	}

	return doc, nil
}

func (s *DocumentStore) Create(ctx context.Context, doc *models.TrackedDocument) error {
	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	_, err := s.pool.Exec(ctx, `
		INSERT INTO tracked_documents (`+documentColumns+`)
		VALUES ($1, $2, $3, $4, $5)
	`, doc.ID, doc.Title, doc.AddedAt, doc.LastModified, doc.AddedBy)

	return mapPostgresError(err)
}

func (s *DocumentStore) Delete(ctx context.Context, id string) error {
	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	result, err := s.pool.Exec(ctx, `DELETE FROM tracked_documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", mapPostgresError(err))
	}

	if result.RowsAffected() == 0 {
		return store.ErrDocumentNotFound
	}

	return nil
}

func (s *DocumentStore) RefreshLastModified(ctx context.Context, id string, lastModified time.Time) (bool, error) {
	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	// the comparison happens in the row update so concurrent refreshes never move the timestamp backwards
	var exists bool
	var refreshed bool
	err := s.pool.QueryRow(ctx, `
		WITH updated AS (
			UPDATE tracked_documents
			SET last_modified = $2
			WHERE id = $1 AND last_modified < $2
			RETURNING id
		)
		SELECT
			EXISTS(SELECT 1 FROM tracked_documents WHERE id = $1),
			EXISTS(SELECT 1 FROM updated)
	`, id, lastModified).Scan(&exists, &refreshed)
	if err != nil {
		return false, fmt.Errorf("failed to refresh document: %w", mapPostgresError(err))
	}

	if !exists {
		return false, store.ErrDocumentNotFound
	}

	return refreshed, nil
}
