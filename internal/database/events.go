package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/biomed/internal/core"
)

const eventColumns = `id, card_id, event_type, description, occurred_at, document_file`

func scanEvent(row pgx.Row) (core.Event, error) {
	var (
		e   core.Event
		typ string
	)
	err := row.Scan(&e.ID, &e.CardID, &typ, &e.Description, &e.Timestamp, &e.DocumentFile)
	e.Type = core.EventType(typ)
	return e, err
}

// AppendEvent inserts an event. A zero Timestamp takes the database clock.
func (s *Store) AppendEvent(ctx context.Context, e core.Event) (core.Event, error) {
	var ts any
	if !e.Timestamp.IsZero() {
		ts = e.Timestamp
	}

	out, err := scanEvent(s.db.QueryRow(ctx, `
INSERT INTO events (card_id, event_type, description, occurred_at, document_file)
VALUES ($1, $2, $3, COALESCE($4::timestamptz, now()), $5)
RETURNING `+eventColumns,
		e.CardID, string(e.Type), e.Description, ts, e.DocumentFile))
	if err != nil {
		return core.Event{}, fmt.Errorf("insert event: %w", err)
	}
	return out, nil
}

func (s *Store) ListEvents(ctx context.Context, cardID int64) ([]core.Event, error) {
	rows, err := s.db.Query(ctx, `
SELECT `+eventColumns+`
FROM events
WHERE card_id = $1
ORDER BY occurred_at DESC, id DESC`, cardID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	events := []core.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
