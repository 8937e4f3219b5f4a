package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/biomed/internal/core"
)

const cardColumns = `id, name, brand, model, series, risk_classification, location,
	status, image, is_deleted, access_token, created_at, updated_at`

func scanCard(row pgx.Row) (core.Card, error) {
	var (
		c     core.Card
		risk  string
		token pgtype.UUID
	)
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Brand,
		&c.Model,
		&c.Series,
		&risk,
		&c.Location,
		&c.Status,
		&c.Image,
		&c.IsDeleted,
		&token,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return core.Card{}, err
	}
	c.Risk = core.RiskClass(risk)
	c.AccessToken = uuid.UUID(token.Bytes)
	return c, nil
}

func (s *Store) CreateCard(ctx context.Context, c core.Card) (core.Card, error) {
	if c.AccessToken == uuid.Nil {
		c.AccessToken = uuid.New()
	}

	query := `
INSERT INTO cards (name, brand, model, series, risk_classification, location, status, image, is_deleted, access_token)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING ` + cardColumns

	card, err := scanCard(s.db.QueryRow(ctx, query,
		c.Name, c.Brand, c.Model, c.Series, string(c.Risk), c.Location,
		c.Status, c.Image, c.IsDeleted, pgtype.UUID{Bytes: [16]byte(c.AccessToken), Valid: true},
	))
	if err != nil {
		if isDuplicate(err) {
			return core.Card{}, core.ErrDuplicateCard
		}
		return core.Card{}, fmt.Errorf("insert card: %w", err)
	}
	return card, nil
}

func (s *Store) GetCard(ctx context.Context, id int64) (core.Card, error) {
	card, err := scanCard(s.db.QueryRow(ctx, `SELECT `+cardColumns+` FROM cards WHERE id = $1`, id))
	if err != nil {
		return core.Card{}, notFound(err, core.ErrCardNotFound)
	}
	return card, nil
}

func (s *Store) ListCards(ctx context.Context, f core.CardFilter) ([]core.Card, error) {
	var (
		where []string
		args  []any
	)
	switch f.State {
	case core.ActiveCards:
		where = append(where, "NOT is_deleted")
	case core.DeletedCards:
		where = append(where, "is_deleted")
	}
	if f.NameContains != "" {
		args = append(args, f.NameContains)
		where = append(where, fmt.Sprintf("strpos(lower(name), lower($%d)) > 0", len(args)))
	}

	query := `SELECT ` + cardColumns + ` FROM cards`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id"

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	cards := []core.Card{}
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

func (s *Store) UpdateCard(ctx context.Context, c core.Card) (core.Card, error) {
	query := `
UPDATE cards
SET name = $2, brand = $3, model = $4, series = $5, risk_classification = $6,
    location = $7, status = $8, image = $9, is_deleted = $10, updated_at = now()
WHERE id = $1
RETURNING ` + cardColumns

	card, err := scanCard(s.db.QueryRow(ctx, query,
		c.ID, c.Name, c.Brand, c.Model, c.Series, string(c.Risk),
		c.Location, c.Status, c.Image, c.IsDeleted,
	))
	if err != nil {
		if isDuplicate(err) {
			return core.Card{}, core.ErrDuplicateCard
		}
		return core.Card{}, notFound(err, core.ErrCardNotFound)
	}
	return card, nil
}

// DeleteCard removes a card; foreign keys cascade to everything it owns.
func (s *Store) DeleteCard(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM cards WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete card: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrCardNotFound
	}
	return nil
}
