package core

import (
	"context"
)

// CardState selects cards by their soft-delete flag.
type CardState int

const (
	ActiveCards CardState = iota
	DeletedCards
	AllCards
)

// CardFilter narrows ListCards. Results are ordered by ID ascending.
type CardFilter struct {
	State CardState
	// NameContains matches names case-insensitively when non-empty.
	NameContains string
}

// Store is the persistence boundary of the service. Implementations must
// enforce case-insensitive uniqueness of (name, model, series) and report
// violations as ErrDuplicateCard, and must remove a card's documents,
// schedule items, interventions and events when the card is deleted.
type Store interface {
	Ping(ctx context.Context) error

	CreateCard(ctx context.Context, c Card) (Card, error)
	GetCard(ctx context.Context, id int64) (Card, error)
	ListCards(ctx context.Context, f CardFilter) ([]Card, error)
	UpdateCard(ctx context.Context, c Card) (Card, error)
	DeleteCard(ctx context.Context, id int64) error

	CreateDocument(ctx context.Context, d Document) (Document, error)
	GetDocument(ctx context.Context, id int64) (Document, error)
	ListDocuments(ctx context.Context, cardID int64, includeDeleted bool) ([]Document, error)
	FindDocumentByTitle(ctx context.Context, cardID int64, title string) (Document, error)
	SetDocumentDeleted(ctx context.Context, id int64, deleted bool) error

	CreateCronograma(ctx context.Context, c Cronograma) (Cronograma, error)
	GetCronograma(ctx context.Context, id int64) (Cronograma, error)
	UpdateCronograma(ctx context.Context, c Cronograma) (Cronograma, error)
	// ListCronogramas returns every item when cardID is zero.
	ListCronogramas(ctx context.Context, cardID int64) ([]Cronograma, error)

	CreateIntervention(ctx context.Context, i Intervention) (Intervention, error)
	ListInterventions(ctx context.Context, cardID int64) ([]Intervention, error)

	EventStore
}

// EventStore is the append-only event log.
type EventStore interface {
	AppendEvent(ctx context.Context, e Event) (Event, error)
	// ListEvents returns a card's events newest first.
	ListEvents(ctx context.Context, cardID int64) ([]Event, error)
}
