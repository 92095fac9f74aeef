package store

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/scry-sync/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T, now func() time.Time) *EntityStore {
	t.Helper()
	return NewEntityStore(testLogger(), now)
}

func newDeck(t *testing.T) *domain.Deck {
	t.Helper()
	deck, err := domain.NewDeck(uuid.New(), "Test Deck")
	require.NoError(t, err)
	return deck
}

func newSection(t *testing.T, deckID uuid.UUID) *domain.Section {
	t.Helper()
	section, err := domain.NewSection(deckID, "Test Section", 0)
	require.NoError(t, err)
	return section
}

func newCard(t *testing.T, deckID, sectionID uuid.UUID) *domain.Card {
	t.Helper()
	card, err := domain.NewCard(deckID, sectionID, json.RawMessage(`{"front":"Q","back":"A"}`))
	require.NoError(t, err)
	return card
}

// seedHierarchy inserts a deck, one section and one card at version 1 each.
func seedHierarchy(t *testing.T, s *EntityStore) (*domain.Deck, *domain.Section, *domain.Card) {
	t.Helper()

	deck := newDeck(t)
	section := newSection(t, deck.ID)
	card := newCard(t, deck.ID, section.ID)

	applied, err := s.Upsert(CollectionDecks, deck, 1)
	require.NoError(t, err)
	require.True(t, applied)

	applied, err = s.Upsert(CollectionSections, section, 1)
	require.NoError(t, err)
	require.True(t, applied)

	applied, err = s.Upsert(CollectionCards, card, 1)
	require.NoError(t, err)
	require.True(t, applied)

	return deck, section, card
}

func TestUpsertValidation(t *testing.T) {
	t.Parallel()
	s := newTestStore(t, nil)

	t.Run("unknown collection", func(t *testing.T) {
		_, err := s.Upsert(Collection("bogus"), newDeck(t), 1)
		assert.ErrorIs(t, err, ErrUnknownCollection)
	})

	t.Run("nil entity", func(t *testing.T) {
		_, err := s.Upsert(CollectionDecks, nil, 1)
		assert.ErrorIs(t, err, ErrNilEntity)
	})

	t.Run("store error carries collection and operation", func(t *testing.T) {
		_, err := s.Upsert(CollectionDecks, nil, 1)

		var storeErr *StoreError
		require.ErrorAs(t, err, &storeErr)
		assert.Equal(t, CollectionDecks, storeErr.Collection)
		assert.Equal(t, "upsert", storeErr.Operation)
	})
}

func TestUpsertLastWriterWins(t *testing.T) {
	t.Parallel()
	s := newTestStore(t, nil)

	deck := newDeck(t)
	applied, err := s.Upsert(CollectionDecks, deck, 5)
	require.NoError(t, err)
	require.True(t, applied)

	t.Run("newer version applies", func(t *testing.T) {
		renamed := *deck
		renamed.Name = "Renamed"
		applied, err := s.Upsert(CollectionDecks, &renamed, 6)
		require.NoError(t, err)
		assert.True(t, applied)

		entity, ok := s.Get(CollectionDecks, deck.ID)
		require.True(t, ok)
		assert.Equal(t, "Renamed", entity.(*domain.Deck).Name)
	})

	t.Run("equal version is discarded silently", func(t *testing.T) {
		stale := *deck
		stale.Name = "Replayed"
		applied, err := s.Upsert(CollectionDecks, &stale, 6)
		require.NoError(t, err)
		assert.False(t, applied)
	})

	t.Run("older version is discarded silently", func(t *testing.T) {
		stale := *deck
		stale.Name = "Ancient"
		applied, err := s.Upsert(CollectionDecks, &stale, 2)
		require.NoError(t, err)
		assert.False(t, applied)

		entity, ok := s.Get(CollectionDecks, deck.ID)
		require.True(t, ok)
		assert.Equal(t, "Renamed", entity.(*domain.Deck).Name)
	})
}

func TestUpsertParentMissing(t *testing.T) {
	t.Parallel()
	s := newTestStore(t, nil)

	section := newSection(t, uuid.New())
	_, err := s.Upsert(CollectionSections, section, 1)
	assert.ErrorIs(t, err, ErrParentMissing)

	t.Run("tombstoned parent counts as missing", func(t *testing.T) {
		deck, _, _ := seedHierarchy(t, s)

		applied, err := s.Remove(CollectionDecks, deck.ID, 2)
		require.NoError(t, err)
		require.True(t, applied)

		orphan := newSection(t, deck.ID)
		_, err = s.Upsert(CollectionSections, orphan, 1)
		assert.ErrorIs(t, err, ErrParentMissing)
	})
}

func TestRemoveCascades(t *testing.T) {
	t.Parallel()
	s := newTestStore(t, nil)

	deck, section, card := seedHierarchy(t, s)

	applied, err := s.Remove(CollectionDecks, deck.ID, 2)
	require.NoError(t, err)
	require.True(t, applied)

	for _, probe := range []struct {
		collection Collection
		id         uuid.UUID
	}{
		{CollectionDecks, deck.ID},
		{CollectionSections, section.ID},
		{CollectionCards, card.ID},
	} {
		_, ok := s.Get(probe.collection, probe.id)
		assert.False(t, ok, "expected %s/%s to be logically deleted", probe.collection, probe.id)
		assert.True(t, s.Seen(probe.collection, probe.id), "tombstone for %s/%s should remain", probe.collection, probe.id)
	}

	assert.Empty(t, s.Children(CollectionSections, deck.ID))
	assert.Empty(t, s.Children(CollectionCards, section.ID))
}

func TestRemoveSemantics(t *testing.T) {
	t.Parallel()
	s := newTestStore(t, nil)

	t.Run("unknown ID returns not found", func(t *testing.T) {
		_, err := s.Remove(CollectionDecks, uuid.New(), 1)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("stale removal is discarded silently", func(t *testing.T) {
		deck, _, _ := seedHierarchy(t, s)

		renamed := *deck
		applied, err := s.Upsert(CollectionDecks, &renamed, 10)
		require.NoError(t, err)
		require.True(t, applied)

		applied, err = s.Remove(CollectionDecks, deck.ID, 3)
		require.NoError(t, err)
		assert.False(t, applied)

		_, ok := s.Get(CollectionDecks, deck.ID)
		assert.True(t, ok, "stale removal must not delete the entity")
	})

	t.Run("tombstone rejects stale update and admits newer one", func(t *testing.T) {
		deck, _, _ := seedHierarchy(t, s)

		applied, err := s.Remove(CollectionDecks, deck.ID, 7)
		require.NoError(t, err)
		require.True(t, applied)

		stale := *deck
		applied, err = s.Upsert(CollectionDecks, &stale, 4)
		require.NoError(t, err)
		assert.False(t, applied)
		_, ok := s.Get(CollectionDecks, deck.ID)
		assert.False(t, ok)

		resurrected := *deck
		applied, err = s.Upsert(CollectionDecks, &resurrected, 8)
		require.NoError(t, err)
		assert.True(t, applied)
		_, ok = s.Get(CollectionDecks, deck.ID)
		assert.True(t, ok)
	})
}

func TestUpsertLocalAssignsVersions(t *testing.T) {
	t.Parallel()
	s := newTestStore(t, nil)

	deck := newDeck(t)
	version, err := s.UpsertLocal(CollectionDecks, deck)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	renamed := *deck
	renamed.Name = "Second Edition"
	version, err = s.UpsertLocal(CollectionDecks, &renamed)
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)

	t.Run("local write continues from the remote version", func(t *testing.T) {
		remote := *deck
		applied, err := s.Upsert(CollectionDecks, &remote, 40)
		require.NoError(t, err)
		require.True(t, applied)

		local := *deck
		version, err := s.UpsertLocal(CollectionDecks, &local)
		require.NoError(t, err)
		assert.Equal(t, int64(41), version)
	})
}

func TestChildrenInsertionOrder(t *testing.T) {
	t.Parallel()
	s := newTestStore(t, nil)

	deck := newDeck(t)
	_, err := s.Upsert(CollectionDecks, deck, 1)
	require.NoError(t, err)

	first := newSection(t, deck.ID)
	second := newSection(t, deck.ID)
	third := newSection(t, deck.ID)
	for _, section := range []*domain.Section{first, second, third} {
		_, err := s.Upsert(CollectionSections, section, 1)
		require.NoError(t, err)
	}

	children := s.Children(CollectionSections, deck.ID)
	require.Len(t, children, 3)
	assert.Equal(t, first.ID, children[0].EntityID())
	assert.Equal(t, second.ID, children[1].EntityID())
	assert.Equal(t, third.ID, children[2].EntityID())
}

// recordingObserver captures changes in delivery order.
type recordingObserver struct {
	changes []Change
}

func (o *recordingObserver) EntityChanged(change Change) {
	o.changes = append(o.changes, change)
}

func TestObserversSeeMutationsInOrder(t *testing.T) {
	t.Parallel()
	s := newTestStore(t, nil)

	observer := &recordingObserver{}
	s.RegisterObserver(observer)

	deck, section, card := seedHierarchy(t, s)

	applied, err := s.Remove(CollectionDecks, deck.ID, 2)
	require.NoError(t, err)
	require.True(t, applied)

	require.Len(t, observer.changes, 6, "three upserts plus a three-entity cascade")

	assert.Equal(t, ChangeUpserted, observer.changes[0].Kind)
	assert.Equal(t, deck.ID, observer.changes[0].ID)
	assert.Equal(t, section.ID, observer.changes[1].ID)
	assert.Equal(t, card.ID, observer.changes[2].ID)

	// The cascade notifies top-down: deck, then section, then card.
	assert.Equal(t, ChangeRemoved, observer.changes[3].Kind)
	assert.Equal(t, deck.ID, observer.changes[3].ID)
	assert.Equal(t, section.ID, observer.changes[4].ID)
	assert.Equal(t, card.ID, observer.changes[5].ID)
	assert.Nil(t, observer.changes[3].Entity)
}

func TestPurgeTombstones(t *testing.T) {
	t.Parallel()

	current := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	s := newTestStore(t, func() time.Time { return current })

	deck, section, card := seedHierarchy(t, s)

	applied, err := s.Remove(CollectionCards, card.ID, 2)
	require.NoError(t, err)
	require.True(t, applied)

	t.Run("fresh tombstones survive", func(t *testing.T) {
		assert.Equal(t, 0, s.PurgeTombstones(time.Hour))
		assert.True(t, s.Seen(CollectionCards, card.ID))
	})

	t.Run("expired tombstones are dropped", func(t *testing.T) {
		current = current.Add(2 * time.Hour)
		assert.Equal(t, 1, s.PurgeTombstones(time.Hour))
		assert.False(t, s.Seen(CollectionCards, card.ID))
	})

	// Live entities are never purged.
	assert.True(t, s.Seen(CollectionDecks, deck.ID))
	assert.True(t, s.Seen(CollectionSections, section.ID))
}

func TestCollectionsParentsFirst(t *testing.T) {
	t.Parallel()

	order := Collections()
	position := make(map[Collection]int, len(order))
	for i, c := range order {
		position[c] = i
	}

	for child, parent := range parentCollections {
		assert.Less(t, position[parent], position[child],
			"%s must come before %s", parent, child)
	}
}
