// Package events carries round lifecycle events to external brokers.
// Publishing is best-effort: callers log failures and carry on.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	EventTypeRoundStarted = "round.started"
	EventTypeGuessPlaced  = "guess.placed"
	EventTypeRoundSettled = "round.settled"
)

// Event is one domain event ready to publish
type Event struct {
	ID        uuid.UUID
	EventType string
	RoundID   uuid.UUID
	Timestamp time.Time
	Payload   json.RawMessage
}

// Envelope is the wire form of an Event
type Envelope struct {
	EventID   string          `json:"eventId"`
	EventType string          `json:"eventType"`
	RoundID   string          `json:"roundId"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// Publisher delivers events to a broker
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NewEvent encodes payload into a fresh event
func NewEvent(eventType string, roundID uuid.UUID, at time.Time, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal payload: %w", err)
	}
	return Event{
		ID:        uuid.New(),
		EventType: eventType,
		RoundID:   roundID,
		Timestamp: at.UTC(),
		Payload:   raw,
	}, nil
}

// Envelope returns the wire form of e
func (e Event) Envelope() Envelope {
	return Envelope{
		EventID:   e.ID.String(),
		EventType: e.EventType,
		RoundID:   e.RoundID.String(),
		Timestamp: e.Timestamp,
		Payload:   e.Payload,
	}
}

// Header names carried on every published message
const (
	HeaderEventType = "Event-Type"
	HeaderEventID   = "Event-ID"
	HeaderRoundID   = "Round-ID"
)

// Header is one broker message header
type Header struct {
	Key   string
	Value string
}

// Headers returns the routing headers for e in a fixed order
func (e Event) Headers() []Header {
	return []Header{
		{Key: HeaderEventType, Value: e.EventType},
		{Key: HeaderEventID, Value: e.ID.String()},
		{Key: HeaderRoundID, Value: e.RoundID.String()},
	}
}

// Marshal encodes the envelope
func (e Event) Marshal() ([]byte, error) {
	data, err := json.Marshal(e.Envelope())
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return data, nil
}
