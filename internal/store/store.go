package store

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/scry-sync/internal/domain"
)

// record wraps an entity payload with its version token and tombstone
// state. Tombstones are retained for a bounded window to reject
// late-arriving stale updates for already-deleted entities.
type record struct {
	entity    domain.Entity
	version   int64
	tombstone bool
	deletedAt time.Time
}

// EntityStore is the normalized, versioned cache of synchronized entities.
// It is safe for concurrent use; all mutation is serialized by an internal
// lock that also covers observer fan-out.
type EntityStore struct {
	mu          sync.Mutex
	logger      *slog.Logger
	now         func() time.Time
	collections map[Collection]map[uuid.UUID]*record

	// childIndex holds, per child collection, the live child IDs of each
	// parent in insertion order.
	childIndex map[Collection]map[uuid.UUID][]uuid.UUID

	observers []Observer
}

// NewEntityStore creates an empty store. The time source is injected so
// tombstone retention can be tested deterministically; a nil now falls back
// to time.Now in UTC.
func NewEntityStore(logger *slog.Logger, now func() time.Time) *EntityStore {
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}

	s := &EntityStore{
		logger:      logger.With("component", "entity_store"),
		now:         now,
		collections: make(map[Collection]map[uuid.UUID]*record),
		childIndex:  make(map[Collection]map[uuid.UUID][]uuid.UUID),
	}

	for _, c := range Collections() {
		s.collections[c] = make(map[uuid.UUID]*record)
		s.childIndex[c] = make(map[uuid.UUID][]uuid.UUID)
	}

	return s
}

// RegisterObserver adds an observer that will receive every subsequent
// mutation, in application order.
func (s *EntityStore) RegisterObserver(observer Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, observer)
}

// Upsert applies a create-or-update for the given entity.
//
// Last-writer-wins by version: an event whose version token is less than or
// equal to the stored version is discarded and reported as not applied,
// with no error; idempotent re-delivery and out-of-order network delivery
// are expected. An upsert for an entity whose parent is not resolved fails
// with ErrParentMissing so the caller can buffer and replay it.
func (s *EntityStore) Upsert(
	collection Collection,
	entity domain.Entity,
	version int64,
) (bool, error) {
	if !knownCollection(collection) {
		return false, newStoreError(collection, "upsert", ErrUnknownCollection)
	}
	if entity == nil {
		return false, newStoreError(collection, "upsert", ErrNilEntity)
	}

	id := entity.EntityID()
	if id == uuid.Nil {
		return false, newStoreError(collection, "upsert", domain.ErrInvalidID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if parentColl, ok := parentCollections[collection]; ok {
		parentID := entity.EntityParent()
		parent, exists := s.collections[parentColl][parentID]
		if parentID == uuid.Nil || !exists || parent.tombstone {
			return false, newStoreError(collection, "upsert", ErrParentMissing)
		}
	}

	existing, exists := s.collections[collection][id]
	if exists && version <= existing.version {
		s.logger.Debug("discarding stale upsert",
			"collection", string(collection),
			"entity_id", id,
			"event_version", version,
			"stored_version", existing.version)
		return false, nil
	}

	if exists && !existing.tombstone {
		// Reparenting: drop the ID from the old parent's child list.
		oldParent := existing.entity.EntityParent()
		if oldParent != entity.EntityParent() {
			s.removeChildLocked(collection, oldParent, id)
		}
	}

	s.collections[collection][id] = &record{
		entity:  entity,
		version: version,
	}
	s.addChildLocked(collection, entity.EntityParent(), id)

	s.notifyLocked(Change{
		Collection: collection,
		Kind:       ChangeUpserted,
		ID:         id,
		Entity:     entity,
		Version:    version,
	})

	return true, nil
}

// UpsertLocal applies a locally originated mutation, such as a schedule
// update from a review session, assigning the next version token (stored
// version + 1, or 1 for a new entity) under the store lock so concurrent
// local writers serialize. Parent resolution rules match Upsert. Returns
// the assigned version.
func (s *EntityStore) UpsertLocal(collection Collection, entity domain.Entity) (int64, error) {
	if !knownCollection(collection) {
		return 0, newStoreError(collection, "upsert_local", ErrUnknownCollection)
	}
	if entity == nil {
		return 0, newStoreError(collection, "upsert_local", ErrNilEntity)
	}

	id := entity.EntityID()
	if id == uuid.Nil {
		return 0, newStoreError(collection, "upsert_local", domain.ErrInvalidID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if parentColl, ok := parentCollections[collection]; ok {
		parentID := entity.EntityParent()
		parent, exists := s.collections[parentColl][parentID]
		if parentID == uuid.Nil || !exists || parent.tombstone {
			return 0, newStoreError(collection, "upsert_local", ErrParentMissing)
		}
	}

	version := int64(1)
	if existing, exists := s.collections[collection][id]; exists {
		version = existing.version + 1
		if !existing.tombstone {
			oldParent := existing.entity.EntityParent()
			if oldParent != entity.EntityParent() {
				s.removeChildLocked(collection, oldParent, id)
			}
		}
	}

	s.collections[collection][id] = &record{
		entity:  entity,
		version: version,
	}
	s.addChildLocked(collection, entity.EntityParent(), id)

	s.notifyLocked(Change{
		Collection: collection,
		Kind:       ChangeUpserted,
		ID:         id,
		Entity:     entity,
		Version:    version,
	})

	return version, nil
}

// Remove applies a versioned deletion. The entity is tombstoned, not
// physically removed, and its live descendants are logically deleted in
// cascade (each at its own current version, so a genuinely newer child
// event can still resurrect it).
//
// Returns ErrNotFound when the ID has never been seen; returns not-applied
// with no error when the deletion is stale.
func (s *EntityStore) Remove(collection Collection, id uuid.UUID, version int64) (bool, error) {
	if !knownCollection(collection) {
		return false, newStoreError(collection, "remove", ErrUnknownCollection)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.collections[collection][id]
	if !exists {
		return false, newStoreError(collection, "remove", ErrNotFound)
	}

	if version <= existing.version {
		s.logger.Debug("discarding stale removal",
			"collection", string(collection),
			"entity_id", id,
			"event_version", version,
			"stored_version", existing.version)
		return false, nil
	}

	s.removeLocked(collection, id, existing, version)
	return true, nil
}

// removeLocked tombstones one record and cascades to its live children.
func (s *EntityStore) removeLocked(
	collection Collection,
	id uuid.UUID,
	rec *record,
	version int64,
) {
	parentID := rec.entity.EntityParent()
	rec.tombstone = true
	rec.version = version
	rec.deletedAt = s.now()

	s.removeChildLocked(collection, parentID, id)

	s.notifyLocked(Change{
		Collection: collection,
		Kind:       ChangeRemoved,
		ID:         id,
		Version:    version,
	})

	// Cascade to whichever collection holds this collection's children.
	for childColl, parentColl := range parentCollections {
		if parentColl != collection {
			continue
		}
		children := append([]uuid.UUID(nil), s.childIndex[childColl][id]...)
		for _, childID := range children {
			childRec, ok := s.collections[childColl][childID]
			if !ok || childRec.tombstone {
				continue
			}
			s.removeLocked(childColl, childID, childRec, childRec.version)
		}
	}
}

// Get returns the live entity with the given ID, or false when it is
// absent or tombstoned.
func (s *EntityStore) Get(collection Collection, id uuid.UUID) (domain.Entity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.collections[collection][id]
	if !ok || rec.tombstone {
		return nil, false
	}
	return rec.entity, true
}

// Seen reports whether the ID is known to the store at all, live or
// tombstoned. The reconciler uses this to distinguish "never created" from
// "deleted but within the tombstone retention window".
func (s *EntityStore) Seen(collection Collection, id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.collections[collection][id]
	return ok
}

// Children returns the live entities in collection whose parent is
// parentID, in insertion order.
func (s *EntityStore) Children(collection Collection, parentID uuid.UUID) []domain.Entity {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.childIndex[collection][parentID]
	entities := make([]domain.Entity, 0, len(ids))
	for _, id := range ids {
		if rec, ok := s.collections[collection][id]; ok && !rec.tombstone {
			entities = append(entities, rec.entity)
		}
	}
	return entities
}

// All returns every live entity in the collection. Order is unspecified.
func (s *EntityStore) All(collection Collection) []domain.Entity {
	s.mu.Lock()
	defer s.mu.Unlock()

	entities := make([]domain.Entity, 0, len(s.collections[collection]))
	for _, rec := range s.collections[collection] {
		if !rec.tombstone {
			entities = append(entities, rec.entity)
		}
	}
	return entities
}

// Len returns the number of live entities in the collection.
func (s *EntityStore) Len(collection Collection) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, rec := range s.collections[collection] {
		if !rec.tombstone {
			n++
		}
	}
	return n
}

// PurgeTombstones physically removes tombstones older than the retention
// window and returns how many were purged. After a purge, a late stale
// update for the purged entity is indistinguishable from a creation; the
// retention window bounds that risk.
func (s *EntityStore) PurgeTombstones(retention time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-retention)
	purged := 0
	for coll, records := range s.collections {
		for id, rec := range records {
			if rec.tombstone && rec.deletedAt.Before(cutoff) {
				delete(records, id)
				purged++
				s.logger.Debug("purged tombstone",
					"collection", string(coll),
					"entity_id", id)
			}
		}
	}
	return purged
}

func (s *EntityStore) addChildLocked(collection Collection, parentID, id uuid.UUID) {
	if parentID == uuid.Nil {
		return
	}
	for _, existing := range s.childIndex[collection][parentID] {
		if existing == id {
			return
		}
	}
	s.childIndex[collection][parentID] = append(s.childIndex[collection][parentID], id)
}

func (s *EntityStore) removeChildLocked(collection Collection, parentID, id uuid.UUID) {
	if parentID == uuid.Nil {
		return
	}
	ids := s.childIndex[collection][parentID]
	for i, existing := range ids {
		if existing == id {
			s.childIndex[collection][parentID] = append(ids[:i], ids[i+1:]...)
			return
		}
	}
}

func (s *EntityStore) notifyLocked(change Change) {
	for _, observer := range s.observers {
		observer.EntityChanged(change)
	}
}
