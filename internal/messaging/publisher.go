package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// EventType is the kind of change an event reports
type EventType string

const (
	EventTypeAuditRecord  EventType = "audit_record"
	EventTypePayment      EventType = "payment"
	EventTypeNotification EventType = "notification"
)

// Event is a change notification published on the event stream
type Event struct {
	// ID is a ULID, also used as the JetStream message id for de-duplication
	ID         string          `json:"id"`
	Service    string          `json:"service"`
	Type       EventType       `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

// Subject returns the subject the event is published on.
// Format: events.{service}.{type}, e.g. events.marketplace.audit_record
func (e *Event) Subject() string {
	return fmt.Sprintf("events.%s.%s", e.Service, e.Type)
}

// Publisher defines the interface for publishing events to message queue
//
//go:generate mockgen -source=publisher.go -destination=../mocks/publisher.go -package=mocks -mock_names=Publisher=MockPublisher
type Publisher interface {
	// PublishEvent publishes an event to the message broker
	PublishEvent(ctx context.Context, event *Event) error
	// Close closes the connection
	Close()
}
