package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event type identifiers.
const (
	// TypeCardLapsed is emitted when a review rates a card at the lowest
	// tier, indicating the card was forgotten.
	TypeCardLapsed = "card_lapsed"

	// TypeDueCountThreshold is emitted when a deck's due-card count
	// crosses the configured notification threshold.
	TypeDueCountThreshold = "due_count_threshold"
)

// DomainEvent is a notification about something that happened in the
// engine, carrying a type identifier and a JSON payload so consumers can
// route without compile-time coupling to every payload shape.
type DomainEvent struct {
	// ID is a unique identifier for this event.
	ID uuid.UUID `json:"id"`

	// Type identifies the payload shape.
	Type string `json:"type"`

	// Payload contains the event-specific data serialized as JSON.
	Payload json.RawMessage `json:"payload"`

	// OccurredAt is when the underlying condition was observed.
	OccurredAt time.Time `json:"occurred_at"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *DomainEvent) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// NewDomainEvent creates a DomainEvent of the given type with the payload
// serialized to JSON.
func NewDomainEvent(eventType string, payload interface{}, occurredAt time.Time) (*DomainEvent, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &DomainEvent{
		ID:         uuid.New(),
		Type:       eventType,
		Payload:    payloadBytes,
		OccurredAt: occurredAt,
	}, nil
}

// CardLapsedPayload is the payload for TypeCardLapsed.
type CardLapsedPayload struct {
	UserID uuid.UUID `json:"user_id"`
	CardID uuid.UUID `json:"card_id"`
	DeckID uuid.UUID `json:"deck_id"`
	Lapses int       `json:"lapses"`
}

// DueCountThresholdPayload is the payload for TypeDueCountThreshold.
type DueCountThresholdPayload struct {
	UserID    uuid.UUID `json:"user_id"`
	DeckID    uuid.UUID `json:"deck_id"`
	DueCount  int       `json:"due_count"`
	Threshold int       `json:"threshold"`
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *DomainEvent) error
}

// EventEmitter defines an interface for components that can emit events.
// This allows the engine to publish events without direct knowledge of
// handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *DomainEvent) error
}
