package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JonMunkholm/biomed/internal/core"
)

func TestIsDuplicate(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"dedup violation", &pgconn.PgError{Code: "23505", ConstraintName: "cards_dedup_key"}, true},
		{"wrapped dedup violation", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "cards_dedup_key"}), true},
		{"other unique constraint", &pgconn.PgError{Code: "23505", ConstraintName: "cards_access_token_key"}, false},
		{"foreign key", &pgconn.PgError{Code: "23503"}, false},
		{"plain error", errors.New("duplicate key"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isDuplicate(tt.err); got != tt.want {
				t.Errorf("isDuplicate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNotFound(t *testing.T) {
	if err := notFound(pgx.ErrNoRows, core.ErrCardNotFound); !errors.Is(err, core.ErrCardNotFound) {
		t.Errorf("notFound(ErrNoRows) = %v", err)
	}
	other := errors.New("boom")
	if err := notFound(other, core.ErrCardNotFound); err != other {
		t.Errorf("notFound(other) = %v", err)
	}
}

// newTestStore connects to TEST_DATABASE_URL and resets the schema. Tests
// using it are skipped when the variable is unset.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := NewPool(ctx, url, nil)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	t.Cleanup(pool.Close)

	if _, err := pool.Exec(ctx, `DROP TABLE IF EXISTS events, interventions, cronogramas, documents, cards CASCADE`); err != nil {
		t.Fatalf("reset schema: %v", err)
	}
	if err := Migrate(ctx, pool); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	// Running twice must be harmless.
	if err := Migrate(ctx, pool); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
	return New(pool)
}

func TestStore_CardUniqueness(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c, err := s.CreateCard(ctx, core.Card{Name: "Monitor", Model: "MX450", Series: "SN-1", Status: core.StatusActive})
	if err != nil {
		t.Fatalf("CreateCard: %v", err)
	}
	if c.ID == 0 || c.AccessToken.String() == "" {
		t.Errorf("card = %+v", c)
	}

	_, err = s.CreateCard(ctx, core.Card{Name: "MONITOR", Model: "mx450", Series: "sn-1"})
	if !errors.Is(err, core.ErrDuplicateCard) {
		t.Fatalf("duplicate insert error = %v, want ErrDuplicateCard", err)
	}

	other, err := s.CreateCard(ctx, core.Card{Name: "Monitor", Model: "MX450", Series: "SN-2"})
	if err != nil {
		t.Fatalf("CreateCard distinct series: %v", err)
	}

	other.Series = "sn-1"
	if _, err := s.UpdateCard(ctx, other); !errors.Is(err, core.ErrDuplicateCard) {
		t.Errorf("colliding update error = %v, want ErrDuplicateCard", err)
	}
}

func TestStore_FiltersAndCascade(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a, _ := s.CreateCard(ctx, core.Card{Name: "Monitor de signos"})
	b, _ := s.CreateCard(ctx, core.Card{Name: "Bomba", IsDeleted: true})

	active, err := s.ListCards(ctx, core.CardFilter{State: core.ActiveCards})
	if err != nil || len(active) != 1 || active[0].ID != a.ID {
		t.Fatalf("active = %+v, %v", active, err)
	}
	deleted, _ := s.ListCards(ctx, core.CardFilter{State: core.DeletedCards})
	if len(deleted) != 1 || deleted[0].ID != b.ID {
		t.Fatalf("deleted = %+v", deleted)
	}
	found, _ := s.ListCards(ctx, core.CardFilter{State: core.AllCards, NameContains: "SIGNOS"})
	if len(found) != 1 {
		t.Fatalf("search = %+v", found)
	}

	if _, err := s.CreateDocument(ctx, core.Document{CardID: a.ID, Title: "Manual", File: "documents/m.pdf"}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateCronograma(ctx, core.Cronograma{CardID: a.ID, Title: "Rev", Date: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AppendEvent(ctx, core.Event{CardID: a.ID, Type: core.EventCardCreated, Description: "x"}); err != nil {
		t.Fatal(err)
	}

	if err := s.DeleteCard(ctx, a.ID); err != nil {
		t.Fatalf("DeleteCard: %v", err)
	}
	if err := s.DeleteCard(ctx, a.ID); !errors.Is(err, core.ErrCardNotFound) {
		t.Errorf("second DeleteCard = %v, want ErrCardNotFound", err)
	}

	docs, _ := s.ListDocuments(ctx, a.ID, true)
	crons, _ := s.ListCronogramas(ctx, a.ID)
	events, _ := s.ListEvents(ctx, a.ID)
	if len(docs)+len(crons)+len(events) != 0 {
		t.Errorf("children survived: %d docs, %d cronogramas, %d events", len(docs), len(crons), len(events))
	}
}

func TestStore_EventsNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c, _ := s.CreateCard(ctx, core.Card{Name: "Monitor"})
	base := time.Now().UTC().Truncate(time.Second)
	for i, typ := range []core.EventType{core.EventCardCreated, core.EventStatusChanged, core.EventCardUpdated} {
		_, err := s.AppendEvent(ctx, core.Event{CardID: c.ID, Type: typ, Description: string(typ), Timestamp: base.Add(time.Duration(i) * time.Second)})
		if err != nil {
			t.Fatalf("AppendEvent: %v", err)
		}
	}

	events, err := s.ListEvents(ctx, c.ID)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 3 || events[0].Type != core.EventCardUpdated || events[2].Type != core.EventCardCreated {
		t.Errorf("events = %+v", events)
	}
}
