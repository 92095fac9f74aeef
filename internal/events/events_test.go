package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewDomainEvent(t *testing.T) {
	t.Parallel()
	now := time.Now().UTC()

	payload := CardLapsedPayload{
		UserID: uuid.New(),
		CardID: uuid.New(),
		DeckID: uuid.New(),
		Lapses: 3,
	}

	event, err := NewDomainEvent(TypeCardLapsed, payload, now)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, TypeCardLapsed, event.Type)
	assert.True(t, event.OccurredAt.Equal(now))

	var decoded CardLapsedPayload
	require.NoError(t, event.UnmarshalPayload(&decoded))
	assert.Equal(t, payload, decoded)
}

func TestNewDomainEventRejectsUnserializablePayload(t *testing.T) {
	t.Parallel()

	_, err := NewDomainEvent(TypeCardLapsed, func() {}, time.Now().UTC())
	assert.Error(t, err)
}

// captureHandler records events and optionally fails.
type captureHandler struct {
	events []*DomainEvent
	err    error
}

func (h *captureHandler) HandleEvent(ctx context.Context, event *DomainEvent) error {
	h.events = append(h.events, event)
	return h.err
}

func TestInMemoryEventEmitter(t *testing.T) {
	t.Parallel()

	t.Run("delivers to all handlers", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(testLogger())
		first := &captureHandler{}
		second := &captureHandler{}
		emitter.RegisterHandler(first)
		emitter.RegisterHandler(second)

		event, err := NewDomainEvent(TypeDueCountThreshold, DueCountThresholdPayload{
			UserID:    uuid.New(),
			DeckID:    uuid.New(),
			DueCount:  12,
			Threshold: 10,
		}, time.Now().UTC())
		require.NoError(t, err)

		require.NoError(t, emitter.EmitEvent(context.Background(), event))
		assert.Len(t, first.events, 1)
		assert.Len(t, second.events, 1)
	})

	t.Run("handler failure does not block later handlers", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(testLogger())
		failing := &captureHandler{err: errors.New("handler down")}
		healthy := &captureHandler{}
		emitter.RegisterHandler(failing)
		emitter.RegisterHandler(healthy)

		event, err := NewDomainEvent(TypeCardLapsed, CardLapsedPayload{}, time.Now().UTC())
		require.NoError(t, err)

		err = emitter.EmitEvent(context.Background(), event)
		assert.ErrorIs(t, err, failing.err)
		assert.Len(t, healthy.events, 1, "delivery must continue past a failing handler")
	})

	t.Run("no handlers is a no-op", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(testLogger())

		event, err := NewDomainEvent(TypeCardLapsed, CardLapsedPayload{}, time.Now().UTC())
		require.NoError(t, err)

		assert.NoError(t, emitter.EmitEvent(context.Background(), event))
	})
}
