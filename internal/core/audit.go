package core

import (
	"context"
	"time"

	"github.com/JonMunkholm/biomed/internal/logging"
)

// EventType is the kind of change recorded in a card's history.
type EventType string

const (
	EventDocumentAdded       EventType = "document_added"
	EventDocumentRemoved     EventType = "document_removed"
	EventActivityCompleted   EventType = "activity_completed"
	EventActivityPending     EventType = "activity_pending"
	EventInterventionCreated EventType = "intervention_created"
	EventStatusChanged       EventType = "status_changed"
	EventCardCreated         EventType = "card_created"
	EventCardUpdated         EventType = "card_updated"
	EventCardDeleted         EventType = "card_deleted"
	EventCardRestored        EventType = "card_restored"
)

var eventLabels = map[EventType]string{
	EventDocumentAdded:       "Documento agregado",
	EventDocumentRemoved:     "Documento eliminado",
	EventActivityCompleted:   "Actividad completada",
	EventActivityPending:     "Actividad pendiente",
	EventInterventionCreated: "Intervención creada",
	EventStatusChanged:       "Cambio de estado",
	EventCardCreated:         "Tarjeta Creada",
	EventCardUpdated:         "Tarjeta Actualizada",
	EventCardDeleted:         "Tarjeta Eliminada",
	EventCardRestored:        "Tarjeta Restaurada",
}

// Label returns the operator-facing name of the event type.
func (t EventType) Label() string {
	if l, ok := eventLabels[t]; ok {
		return l
	}
	return string(t)
}

// Event is one immutable entry in a card's history.
type Event struct {
	ID           int64     `json:"id"`
	CardID       int64     `json:"card_id"`
	Type         EventType `json:"event_type"`
	Description  string    `json:"description"`
	Timestamp    time.Time `json:"timestamp"`
	DocumentFile string    `json:"document_file,omitempty"`
}

// EventSink receives every recorded event after it is stored.
type EventSink interface {
	Publish(ctx context.Context, e Event) error
}

// Recorder appends events to the store and forwards them to sinks.
// Recording never fails the caller: errors are logged and dropped.
type Recorder struct {
	store EventStore
	sinks []EventSink
	now   func() time.Time
}

// NewRecorder creates a Recorder writing to store.
func NewRecorder(store EventStore, sinks ...EventSink) *Recorder {
	return &Recorder{store: store, sinks: sinks, now: time.Now}
}

// Record appends an event for cardID. documentFile may be empty.
func (r *Recorder) Record(ctx context.Context, cardID int64, typ EventType, description, documentFile string) {
	logger := logging.ForCard(ctx, cardID).With("event_type", string(typ))

	e, err := r.store.AppendEvent(ctx, Event{
		CardID:       cardID,
		Type:         typ,
		Description:  description,
		Timestamp:    r.now().UTC(),
		DocumentFile: documentFile,
	})
	if err != nil {
		logger.Error("failed to record event", "error", err)
		return
	}

	meta := RequestMetaFrom(ctx)
	logger.Debug("event recorded",
		"event_id", e.ID,
		"ip", meta.IPAddress,
		"user_agent", meta.UserAgent,
	)

	for _, sink := range r.sinks {
		if err := sink.Publish(ctx, e); err != nil {
			logger.Warn("failed to publish event", "event_id", e.ID, "error", err)
		}
	}
}
