// Package events publishes card history to NATS so other systems can
// follow equipment changes without polling the API.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/JonMunkholm/biomed/internal/core"
)

// Message is the JSON payload published for every recorded event.
type Message struct {
	ID           int64     `json:"id"`
	CardID       int64     `json:"card_id"`
	EventType    string    `json:"event_type"`
	Label        string    `json:"event_type_display"`
	Description  string    `json:"description"`
	Timestamp    time.Time `json:"timestamp"`
	DocumentFile string    `json:"document_file,omitempty"`
}

// NewMessage converts a recorded event to its wire form.
func NewMessage(e core.Event) Message {
	return Message{
		ID:           e.ID,
		CardID:       e.CardID,
		EventType:    string(e.Type),
		Label:        e.Type.Label(),
		Description:  e.Description,
		Timestamp:    e.Timestamp,
		DocumentFile: e.DocumentFile,
	}
}

// Subject returns the subject an event is published on: prefix.event_type.
func Subject(prefix string, t core.EventType) string {
	return prefix + "." + string(t)
}

// Conn is the subset of *nats.Conn the publisher needs.
type Conn interface {
	Publish(subj string, data []byte) error
}

// Publisher implements core.EventSink on a NATS connection.
type Publisher struct {
	conn   Conn
	prefix string
	close  func()
}

// Connect dials url and returns a Publisher for subjects under prefix.
// token may be empty.
func Connect(url, token, prefix string) (*Publisher, error) {
	opts := []nats.Option{
		nats.Name("biomed card events"),
		nats.MaxReconnects(-1),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", url, err)
	}

	p := NewPublisher(nc, prefix)
	p.close = func() {
		_ = nc.Drain()
	}
	return p, nil
}

// NewPublisher wraps an existing connection.
func NewPublisher(conn Conn, prefix string) *Publisher {
	if prefix == "" {
		prefix = "cards.events"
	}
	return &Publisher{conn: conn, prefix: prefix}
}

// Publish implements core.EventSink.
func (p *Publisher) Publish(_ context.Context, e core.Event) error {
	data, err := json.Marshal(NewMessage(e))
	if err != nil {
		return fmt.Errorf("marshal event %d: %w", e.ID, err)
	}
	return p.conn.Publish(Subject(p.prefix, e.Type), data)
}

// Close flushes pending messages and closes the connection.
func (p *Publisher) Close() {
	if p.close != nil {
		p.close()
	}
}
