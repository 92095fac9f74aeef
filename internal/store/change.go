package store

import (
	"github.com/google/uuid"

	"github.com/phrazzld/scry-sync/internal/domain"
)

// Collection identifies one of the synchronized entity collections.
type Collection string

// Managed collections.
const (
	CollectionDecks        Collection = "decks"
	CollectionSections     Collection = "sections"
	CollectionCards        Collection = "cards"
	CollectionCardUserData Collection = "card_user_data"
	CollectionTopics       Collection = "topics"
)

// parentCollections maps each child collection to the collection its
// parent entity lives in. Root collections are absent.
var parentCollections = map[Collection]Collection{
	CollectionSections:     CollectionDecks,
	CollectionCards:        CollectionSections,
	CollectionCardUserData: CollectionCards,
}

// Collections lists every managed collection, parents before children.
func Collections() []Collection {
	return []Collection{
		CollectionTopics,
		CollectionDecks,
		CollectionSections,
		CollectionCards,
		CollectionCardUserData,
	}
}

// knownCollection reports whether the store manages the collection.
func knownCollection(c Collection) bool {
	switch c {
	case CollectionDecks, CollectionSections, CollectionCards, CollectionCardUserData, CollectionTopics:
		return true
	default:
		return false
	}
}

// ChangeKind distinguishes the two mutations the store can apply.
type ChangeKind string

// Possible change kinds.
const (
	ChangeUpserted ChangeKind = "upserted"
	ChangeRemoved  ChangeKind = "removed"
)

// Change describes a single applied mutation. Entity is nil for removals.
type Change struct {
	Collection Collection
	Kind       ChangeKind
	ID         uuid.UUID
	Entity     domain.Entity
	Version    int64
}

// Observer receives change notifications from the store.
//
// Notifications are delivered synchronously while the store's mutation lock
// is held, which guarantees observers see mutations in order and that
// derived views update atomically with the store. Observers must not call
// back into the store.
type Observer interface {
	EntityChanged(change Change)
}
