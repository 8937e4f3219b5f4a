package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/JonMunkholm/biomed/internal/core"
)

type published struct {
	subject string
	data    []byte
}

type fakeConn struct {
	msgs []published
	err  error
}

func (f *fakeConn) Publish(subj string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, published{subj, data})
	return nil
}

func TestPublisher_Publish(t *testing.T) {
	conn := &fakeConn{}
	p := NewPublisher(conn, "")

	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	err := p.Publish(context.Background(), core.Event{
		ID:           7,
		CardID:       3,
		Type:         core.EventDocumentAdded,
		Description:  "Documento agregado: Manual",
		Timestamp:    ts,
		DocumentFile: "documents/abc_manual.pdf",
	})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if len(conn.msgs) != 1 {
		t.Fatalf("published %d messages, want 1", len(conn.msgs))
	}
	if conn.msgs[0].subject != "cards.events.document_added" {
		t.Errorf("subject = %q", conn.msgs[0].subject)
	}

	var got Message
	if err := json.Unmarshal(conn.msgs[0].data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.CardID != 3 || got.Label != "Documento agregado" || !got.Timestamp.Equal(ts) {
		t.Errorf("message = %+v", got)
	}
}

func TestPublisher_PropagatesError(t *testing.T) {
	conn := &fakeConn{err: errors.New("nats: connection closed")}
	p := NewPublisher(conn, "audit")

	err := p.Publish(context.Background(), core.Event{Type: core.EventCardCreated})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestSubject(t *testing.T) {
	if got := Subject("audit", core.EventStatusChanged); got != "audit.status_changed" {
		t.Errorf("Subject() = %q", got)
	}
}
