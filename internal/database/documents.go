package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/biomed/internal/core"
)

const documentColumns = `id, card_id, title, file, uploaded_at, is_deleted`

func scanDocument(row pgx.Row) (core.Document, error) {
	var d core.Document
	err := row.Scan(&d.ID, &d.CardID, &d.Title, &d.File, &d.UploadedAt, &d.IsDeleted)
	return d, err
}

func (s *Store) CreateDocument(ctx context.Context, d core.Document) (core.Document, error) {
	doc, err := scanDocument(s.db.QueryRow(ctx, `
INSERT INTO documents (card_id, title, file)
VALUES ($1, $2, $3)
RETURNING `+documentColumns, d.CardID, d.Title, d.File))
	if err != nil {
		return core.Document{}, fmt.Errorf("insert document: %w", err)
	}
	return doc, nil
}

func (s *Store) GetDocument(ctx context.Context, id int64) (core.Document, error) {
	doc, err := scanDocument(s.db.QueryRow(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = $1`, id))
	if err != nil {
		return core.Document{}, notFound(err, core.ErrDocumentNotFound)
	}
	return doc, nil
}

func (s *Store) ListDocuments(ctx context.Context, cardID int64, includeDeleted bool) ([]core.Document, error) {
	rows, err := s.db.Query(ctx, `
SELECT `+documentColumns+`
FROM documents
WHERE card_id = $1 AND ($2 OR NOT is_deleted)
ORDER BY id`, cardID, includeDeleted)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	docs := []core.Document{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// FindDocumentByTitle returns the newest document on the card with the
// given title, removed or not.
func (s *Store) FindDocumentByTitle(ctx context.Context, cardID int64, title string) (core.Document, error) {
	doc, err := scanDocument(s.db.QueryRow(ctx, `
SELECT `+documentColumns+`
FROM documents
WHERE card_id = $1 AND title = $2
ORDER BY id DESC
LIMIT 1`, cardID, title))
	if err != nil {
		return core.Document{}, notFound(err, core.ErrDocumentNotFound)
	}
	return doc, nil
}

func (s *Store) SetDocumentDeleted(ctx context.Context, id int64, deleted bool) error {
	tag, err := s.db.Exec(ctx, `UPDATE documents SET is_deleted = $2 WHERE id = $1`, id, deleted)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrDocumentNotFound
	}
	return nil
}
