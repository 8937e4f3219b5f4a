package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/biomed/internal/core"
)

const cronogramaColumns = `id, card_id, date, title, completed`

func scanCronograma(row pgx.Row) (core.Cronograma, error) {
	var c core.Cronograma
	err := row.Scan(&c.ID, &c.CardID, &c.Date, &c.Title, &c.Completed)
	return c, err
}

func (s *Store) CreateCronograma(ctx context.Context, c core.Cronograma) (core.Cronograma, error) {
	out, err := scanCronograma(s.db.QueryRow(ctx, `
INSERT INTO cronogramas (card_id, date, title, completed)
VALUES ($1, $2, $3, $4)
RETURNING `+cronogramaColumns, c.CardID, c.Date, c.Title, c.Completed))
	if err != nil {
		return core.Cronograma{}, fmt.Errorf("insert cronograma: %w", err)
	}
	return out, nil
}

func (s *Store) GetCronograma(ctx context.Context, id int64) (core.Cronograma, error) {
	c, err := scanCronograma(s.db.QueryRow(ctx,
		`SELECT `+cronogramaColumns+` FROM cronogramas WHERE id = $1`, id))
	if err != nil {
		return core.Cronograma{}, notFound(err, core.ErrCronogramaNotFound)
	}
	return c, nil
}

func (s *Store) UpdateCronograma(ctx context.Context, c core.Cronograma) (core.Cronograma, error) {
	out, err := scanCronograma(s.db.QueryRow(ctx, `
UPDATE cronogramas SET date = $2, title = $3, completed = $4
WHERE id = $1
RETURNING `+cronogramaColumns, c.ID, c.Date, c.Title, c.Completed))
	if err != nil {
		return core.Cronograma{}, notFound(err, core.ErrCronogramaNotFound)
	}
	return out, nil
}

func (s *Store) ListCronogramas(ctx context.Context, cardID int64) ([]core.Cronograma, error) {
	rows, err := s.db.Query(ctx, `
SELECT `+cronogramaColumns+`
FROM cronogramas
WHERE $1::bigint = 0 OR card_id = $1::bigint
ORDER BY date, id`, cardID)
	if err != nil {
		return nil, fmt.Errorf("list cronogramas: %w", err)
	}
	defer rows.Close()

	out := []core.Cronograma{}
	for rows.Next() {
		c, err := scanCronograma(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cronograma: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

const interventionColumns = `id, card_id, action_type, date, description, responsible`

func scanIntervention(row pgx.Row) (core.Intervention, error) {
	var (
		i      core.Intervention
		action string
	)
	err := row.Scan(&i.ID, &i.CardID, &action, &i.Date, &i.Description, &i.Responsible)
	i.ActionType = core.ActionType(action)
	return i, err
}

func (s *Store) CreateIntervention(ctx context.Context, i core.Intervention) (core.Intervention, error) {
	out, err := scanIntervention(s.db.QueryRow(ctx, `
INSERT INTO interventions (card_id, action_type, date, description, responsible)
VALUES ($1, $2, $3, $4, $5)
RETURNING `+interventionColumns,
		i.CardID, string(i.ActionType), i.Date, i.Description, i.Responsible))
	if err != nil {
		return core.Intervention{}, fmt.Errorf("insert intervention: %w", err)
	}
	return out, nil
}

func (s *Store) ListInterventions(ctx context.Context, cardID int64) ([]core.Intervention, error) {
	rows, err := s.db.Query(ctx, `
SELECT `+interventionColumns+`
FROM interventions
WHERE card_id = $1
ORDER BY date DESC, id DESC`, cardID)
	if err != nil {
		return nil, fmt.Errorf("list interventions: %w", err)
	}
	defer rows.Close()

	out := []core.Intervention{}
	for rows.Next() {
		i, err := scanIntervention(rows)
		if err != nil {
			return nil, fmt.Errorf("scan intervention: %w", err)
		}
		out = append(out, i)
	}
	return out, rows.Err()
}
