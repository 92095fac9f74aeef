package reconcile

import (
	"context"

	"github.com/google/uuid"

	"github.com/phrazzld/scry-sync/internal/domain"
	"github.com/phrazzld/scry-sync/internal/store"
)

// EventKind identifies the three change event kinds a feed can deliver.
type EventKind string

// Possible event kinds.
const (
	EventCreated EventKind = "created"
	EventUpdated EventKind = "updated"
	EventDeleted EventKind = "deleted"
)

// Event is one change delivered by a collection feed. Entity is nil for
// Deleted events. Version is an opaque, monotonically increasing token
// assigned by the backing store; the engine only ever compares it.
type Event struct {
	Collection store.Collection
	Kind       EventKind
	ID         uuid.UUID
	Entity     domain.Entity
	Version    int64
}

// Feed is the per-collection subscription surface of the persistence
// collaborator. On first subscription the feed produces a full snapshot,
// which the reconciler applies as a sequence of Created events; Events then
// yields incremental deltas in delivery order until the feed is closed or
// the context is cancelled.
type Feed interface {
	// Collection names the entity collection this feed carries.
	Collection() store.Collection

	// Snapshot returns the initial full state of the collection.
	Snapshot(ctx context.Context) ([]Event, error)

	// Events returns the delta channel. The channel is closed when the
	// subscription ends.
	Events() <-chan Event
}
