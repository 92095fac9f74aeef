package task

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/scry-sync/internal/domain"
	"github.com/phrazzld/scry-sync/internal/dueindex"
	"github.com/phrazzld/scry-sync/internal/events"
	"github.com/phrazzld/scry-sync/internal/reconcile"
	"github.com/phrazzld/scry-sync/internal/store"
)

func TestTombstonePurgeJob(t *testing.T) {
	t.Parallel()

	current := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	s := store.NewEntityStore(testLogger(), func() time.Time { return current })

	deck, err := domain.NewDeck(uuid.New(), "Purge Deck")
	require.NoError(t, err)
	_, err = s.Upsert(store.CollectionDecks, deck, 1)
	require.NoError(t, err)
	_, err = s.Remove(store.CollectionDecks, deck.ID, 2)
	require.NoError(t, err)

	job := &TombstonePurgeJob{
		Store:     s,
		Retention: time.Hour,
		Every:     time.Minute,
		Logger:    testLogger(),
	}

	require.NoError(t, job.Run(context.Background()))
	assert.True(t, s.Seen(store.CollectionDecks, deck.ID), "fresh tombstone must survive")

	current = current.Add(2 * time.Hour)
	require.NoError(t, job.Run(context.Background()))
	assert.False(t, s.Seen(store.CollectionDecks, deck.ID))
}

func TestOrphanSweepJob(t *testing.T) {
	t.Parallel()

	current := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	s := store.NewEntityStore(testLogger(), nil)
	r := reconcile.New(s, testLogger(), reconcile.Options{
		PendingTimeout: time.Minute,
		Now:            func() time.Time { return current },
	})

	orphan, err := domain.NewSection(uuid.New(), "Orphan", 0)
	require.NoError(t, err)
	require.NoError(t, r.Apply(reconcile.Event{
		Collection: store.CollectionSections,
		Kind:       reconcile.EventCreated,
		ID:         orphan.ID,
		Entity:     orphan,
		Version:    1,
	}))
	require.Equal(t, 1, r.PendingCount())

	job := &OrphanSweepJob{Reconciler: r, Every: time.Minute, Logger: testLogger()}

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 1, r.PendingCount(), "young entry must survive")

	current = current.Add(2 * time.Minute)
	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 0, r.PendingCount())
}

func TestDueThresholdJob(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	s := store.NewEntityStore(testLogger(), func() time.Time { return now })
	index := dueindex.NewDueSetIndex(testLogger())
	s.RegisterObserver(index)

	userID := uuid.New()
	deck, err := domain.NewDeck(uuid.New(), "Threshold Deck")
	require.NoError(t, err)
	section, err := domain.NewSection(deck.ID, "S", 0)
	require.NoError(t, err)
	_, err = s.Upsert(store.CollectionDecks, deck, 1)
	require.NoError(t, err)
	_, err = s.Upsert(store.CollectionSections, section, 1)
	require.NoError(t, err)

	addDueCard := func(dueAt time.Time) {
		card, err := domain.NewCard(deck.ID, section.ID, []byte(`{"front":"Q","back":"A"}`))
		require.NoError(t, err)
		_, err = s.Upsert(store.CollectionCards, card, 1)
		require.NoError(t, err)
		data, err := domain.NewCardUserData(userID, card.ID, deck.ID, dueAt)
		require.NoError(t, err)
		_, err = s.Upsert(store.CollectionCardUserData, data, 1)
		require.NoError(t, err)
	}

	emitter := events.NewInMemoryEventEmitter(testLogger())
	handler := &thresholdHandler{}
	emitter.RegisterHandler(handler)

	job := &DueThresholdJob{
		Store:     s,
		Index:     index,
		Emitter:   emitter,
		UserID:    userID,
		Threshold: 2,
		Every:     time.Minute,
		Now:       func() time.Time { return now },
		Logger:    testLogger(),
	}

	t.Run("below the threshold nothing fires", func(t *testing.T) {
		addDueCard(now.Add(-time.Hour))
		require.NoError(t, job.Run(context.Background()))
		assert.Empty(t, handler.events)
	})

	t.Run("crossing the threshold fires once", func(t *testing.T) {
		addDueCard(now.Add(-time.Hour))
		require.NoError(t, job.Run(context.Background()))
		require.Len(t, handler.events, 1)

		var payload events.DueCountThresholdPayload
		require.NoError(t, handler.events[0].UnmarshalPayload(&payload))
		assert.Equal(t, deck.ID, payload.DeckID)
		assert.Equal(t, 2, payload.DueCount)
		assert.Equal(t, 2, payload.Threshold)
	})

	t.Run("staying above the threshold does not refire", func(t *testing.T) {
		addDueCard(now.Add(-time.Hour))
		require.NoError(t, job.Run(context.Background()))
		assert.Len(t, handler.events, 1)
	})
}

// thresholdHandler records emitted events.
type thresholdHandler struct {
	events []*events.DomainEvent
}

func (h *thresholdHandler) HandleEvent(ctx context.Context, event *events.DomainEvent) error {
	h.events = append(h.events, event)
	return nil
}
