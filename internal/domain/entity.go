package domain

import "github.com/google/uuid"

// Entity is implemented by every domain type held in the entity store.
//
// EntityID returns the entity's unique identifier within its collection.
// EntityParent returns the identifier of the entity's parent in the
// deck -> section -> card -> card user data hierarchy, or uuid.Nil for
// root entities (decks, topics).
type Entity interface {
	EntityID() uuid.UUID
	EntityParent() uuid.UUID
}
