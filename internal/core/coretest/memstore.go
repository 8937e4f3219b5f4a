// Package coretest provides an in-memory core.Store for tests.
package coretest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/JonMunkholm/biomed/internal/core"
)

// MemStore is a goroutine-safe in-memory core.Store. It enforces the same
// (name, model, series) uniqueness and cascade rules as the database.
type MemStore struct {
	mu sync.Mutex

	nextID int64
	now    func() time.Time

	cards         map[int64]core.Card
	documents     map[int64]core.Document
	cronogramas   map[int64]core.Cronograma
	interventions map[int64]core.Intervention
	events        []core.Event

	// FailCreateCard, when set, is consulted before every card insert.
	FailCreateCard func(core.Card) error
	// FailAppendEvent, when set, replaces every event insert with its error.
	FailAppendEvent error
}

// NewMemStore returns an empty store.
func NewMemStore() *MemStore {
	return &MemStore{
		now:           time.Now,
		cards:         make(map[int64]core.Card),
		documents:     make(map[int64]core.Document),
		cronogramas:   make(map[int64]core.Cronograma),
		interventions: make(map[int64]core.Intervention),
	}
}

var _ core.Store = (*MemStore)(nil)

func (m *MemStore) id() int64 {
	m.nextID++
	return m.nextID
}

func dedupKey(c core.Card) string {
	return strings.ToLower(c.Name) + "\x00" + strings.ToLower(c.Model) + "\x00" + strings.ToLower(c.Series)
}

func (m *MemStore) conflicts(c core.Card) bool {
	key := dedupKey(c)
	for id, other := range m.cards {
		if id != c.ID && dedupKey(other) == key {
			return true
		}
	}
	return false
}

func (m *MemStore) Ping(context.Context) error { return nil }

func (m *MemStore) CreateCard(_ context.Context, c core.Card) (core.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailCreateCard != nil {
		if err := m.FailCreateCard(c); err != nil {
			return core.Card{}, err
		}
	}
	if m.conflicts(c) {
		return core.Card{}, core.ErrDuplicateCard
	}

	c.ID = m.id()
	c.CreatedAt = m.now().UTC()
	c.UpdatedAt = c.CreatedAt
	m.cards[c.ID] = c
	return c, nil
}

func (m *MemStore) GetCard(_ context.Context, id int64) (core.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.cards[id]
	if !ok {
		return core.Card{}, core.ErrCardNotFound
	}
	return c, nil
}

func (m *MemStore) ListCards(_ context.Context, f core.CardFilter) ([]core.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	needle := strings.ToLower(f.NameContains)
	out := []core.Card{}
	for _, c := range m.cards {
		switch {
		case f.State == core.ActiveCards && c.IsDeleted:
			continue
		case f.State == core.DeletedCards && !c.IsDeleted:
			continue
		case needle != "" && !strings.Contains(strings.ToLower(c.Name), needle):
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemStore) UpdateCard(_ context.Context, c core.Card) (core.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	old, ok := m.cards[c.ID]
	if !ok {
		return core.Card{}, core.ErrCardNotFound
	}
	if m.conflicts(c) {
		return core.Card{}, core.ErrDuplicateCard
	}
	c.CreatedAt = old.CreatedAt
	c.AccessToken = old.AccessToken
	c.UpdatedAt = m.now().UTC()
	m.cards[c.ID] = c
	return c, nil
}

func (m *MemStore) DeleteCard(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.cards[id]; !ok {
		return core.ErrCardNotFound
	}
	delete(m.cards, id)
	for k, d := range m.documents {
		if d.CardID == id {
			delete(m.documents, k)
		}
	}
	for k, c := range m.cronogramas {
		if c.CardID == id {
			delete(m.cronogramas, k)
		}
	}
	for k, i := range m.interventions {
		if i.CardID == id {
			delete(m.interventions, k)
		}
	}
	kept := m.events[:0]
	for _, e := range m.events {
		if e.CardID != id {
			kept = append(kept, e)
		}
	}
	m.events = kept
	return nil
}

func (m *MemStore) CreateDocument(_ context.Context, d core.Document) (core.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d.ID = m.id()
	d.UploadedAt = m.now().UTC()
	m.documents[d.ID] = d
	return d, nil
}

func (m *MemStore) GetDocument(_ context.Context, id int64) (core.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.documents[id]
	if !ok {
		return core.Document{}, core.ErrDocumentNotFound
	}
	return d, nil
}

func (m *MemStore) ListDocuments(_ context.Context, cardID int64, includeDeleted bool) ([]core.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []core.Document{}
	for _, d := range m.documents {
		if d.CardID == cardID && (includeDeleted || !d.IsDeleted) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemStore) FindDocumentByTitle(_ context.Context, cardID int64, title string) (core.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var found *core.Document
	for _, d := range m.documents {
		if d.CardID == cardID && d.Title == title {
			if found == nil || d.ID > found.ID {
				d := d
				found = &d
			}
		}
	}
	if found == nil {
		return core.Document{}, core.ErrDocumentNotFound
	}
	return *found, nil
}

func (m *MemStore) SetDocumentDeleted(_ context.Context, id int64, deleted bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.documents[id]
	if !ok {
		return core.ErrDocumentNotFound
	}
	d.IsDeleted = deleted
	m.documents[id] = d
	return nil
}

func (m *MemStore) CreateCronograma(_ context.Context, c core.Cronograma) (core.Cronograma, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.cards[c.CardID]; !ok {
		return core.Cronograma{}, core.ErrCardNotFound
	}
	c.ID = m.id()
	m.cronogramas[c.ID] = c
	return c, nil
}

func (m *MemStore) GetCronograma(_ context.Context, id int64) (core.Cronograma, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.cronogramas[id]
	if !ok {
		return core.Cronograma{}, core.ErrCronogramaNotFound
	}
	return c, nil
}

func (m *MemStore) UpdateCronograma(_ context.Context, c core.Cronograma) (core.Cronograma, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.cronogramas[c.ID]; !ok {
		return core.Cronograma{}, core.ErrCronogramaNotFound
	}
	m.cronogramas[c.ID] = c
	return c, nil
}

func (m *MemStore) ListCronogramas(_ context.Context, cardID int64) ([]core.Cronograma, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []core.Cronograma{}
	for _, c := range m.cronogramas {
		if cardID == 0 || c.CardID == cardID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemStore) CreateIntervention(_ context.Context, i core.Intervention) (core.Intervention, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.cards[i.CardID]; !ok {
		return core.Intervention{}, core.ErrCardNotFound
	}
	i.ID = m.id()
	m.interventions[i.ID] = i
	return i, nil
}

func (m *MemStore) ListInterventions(_ context.Context, cardID int64) ([]core.Intervention, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []core.Intervention{}
	for _, i := range m.interventions {
		if i.CardID == cardID {
			out = append(out, i)
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if !out[a].Date.Equal(out[b].Date) {
			return out[a].Date.After(out[b].Date)
		}
		return out[a].ID > out[b].ID
	})
	return out, nil
}

func (m *MemStore) AppendEvent(_ context.Context, e core.Event) (core.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailAppendEvent != nil {
		return core.Event{}, m.FailAppendEvent
	}
	e.ID = m.id()
	m.events = append(m.events, e)
	return e, nil
}

func (m *MemStore) ListEvents(_ context.Context, cardID int64) ([]core.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []core.Event{}
	for i := len(m.events) - 1; i >= 0; i-- {
		if m.events[i].CardID == cardID {
			out = append(out, m.events[i])
		}
	}
	return out, nil
}

// Events returns every stored event in insertion order.
func (m *MemStore) Events() []core.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]core.Event(nil), m.events...)
}
