package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/phrazzld/scry-sync/internal/store"
)

// DefaultPendingTimeout bounds how long an event may wait for the ID
// blocking it before being dropped as an orphan.
const DefaultPendingTimeout = 2 * time.Minute

// Options configures a Reconciler. Zero values use defaults.
type Options struct {
	// PendingTimeout bounds the wait for an unresolved parent or a
	// not-yet-created entity. Zero means DefaultPendingTimeout.
	PendingTimeout time.Duration

	// Now injects the time source. Nil means time.Now in UTC.
	Now func() time.Time
}

// pendingEvent is a buffered event together with its enqueue time, used by
// the orphan sweep.
type pendingEvent struct {
	event      Event
	enqueuedAt time.Time
}

// Reconciler applies feed events to the entity store with the ordering and
// idempotence rules described in the package comment.
//
// Event application is serialized by an internal lock: within one feed,
// events apply in delivery order; across feeds, application never
// interleaves, so the pending buffer cannot lose the race between a parent
// arriving and a child being queued.
type Reconciler struct {
	store          *store.EntityStore
	logger         *slog.Logger
	now            func() time.Time
	pendingTimeout time.Duration

	mu sync.Mutex
	// pending buffers events keyed by the ID that blocks them: the missing
	// parent for Created events, the entity's own ID for Updated/Deleted
	// events that precede their Created.
	pending map[uuid.UUID][]pendingEvent
	// bootstrapped channels close once a collection's snapshot is applied.
	bootstrapped map[store.Collection]chan struct{}
}

// New creates a Reconciler applying events to the given store.
func New(entityStore *store.EntityStore, logger *slog.Logger, opts Options) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.PendingTimeout == 0 {
		opts.PendingTimeout = DefaultPendingTimeout
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}

	r := &Reconciler{
		store:          entityStore,
		logger:         logger.With("component", "reconciler"),
		now:            opts.Now,
		pendingTimeout: opts.PendingTimeout,
		pending:        make(map[uuid.UUID][]pendingEvent),
		bootstrapped:   make(map[store.Collection]chan struct{}),
	}

	for _, c := range store.Collections() {
		r.bootstrapped[c] = make(chan struct{})
	}

	return r
}

// Run subscribes to the given feeds and pumps their events into the store
// until the context is cancelled or a feed fails its snapshot. Each feed is
// bootstrapped from its snapshot first, then drained incrementally.
func (r *Reconciler) Run(ctx context.Context, feeds ...Feed) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, feed := range feeds {
		feed := feed
		g.Go(func() error {
			return r.runFeed(ctx, feed)
		})
	}

	return g.Wait()
}

func (r *Reconciler) runFeed(ctx context.Context, feed Feed) error {
	collection := feed.Collection()

	snapshot, err := feed.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("snapshot for %q failed: %w", collection, err)
	}
	r.ApplySnapshot(collection, snapshot)

	events := feed.Events()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-events:
			if !ok {
				r.logger.Debug("feed closed", "collection", string(collection))
				return nil
			}
			if err := r.Apply(event); err != nil {
				// Application errors are diagnostic, never fatal: the
				// worst outcome is a locally stale view, which heals on
				// the next full resync.
				r.logger.Warn("failed to apply event",
					"collection", string(event.Collection),
					"kind", string(event.Kind),
					"entity_id", event.ID,
					"version", event.Version,
					"error", err)
			}
		}
	}
}

// ApplySnapshot applies an initial full snapshot as a sequence of Created
// events and marks the collection bootstrapped.
func (r *Reconciler) ApplySnapshot(collection store.Collection, events []Event) {
	for _, event := range events {
		event.Kind = EventCreated
		if err := r.Apply(event); err != nil {
			r.logger.Warn("failed to apply snapshot event",
				"collection", string(collection),
				"entity_id", event.ID,
				"error", err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	select {
	case <-r.bootstrapped[collection]:
		// Already bootstrapped; a resubscription snapshot is just replay.
	default:
		close(r.bootstrapped[collection])
		r.logger.Info("collection bootstrapped",
			"collection", string(collection),
			"entities", len(events))
	}
}

// WaitForBootstrap blocks until the collection's initial snapshot has been
// applied or the context is cancelled.
func (r *Reconciler) WaitForBootstrap(ctx context.Context, collection store.Collection) error {
	r.mu.Lock()
	ch, ok := r.bootstrapped[collection]
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %q", store.ErrUnknownCollection, collection)
	}

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Apply applies a single event. Events that cannot be applied yet are
// buffered; stale events are discarded. The returned error is diagnostic
// only; no event application error is fatal.
func (r *Reconciler) Apply(event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.applyLocked(event)
}

func (r *Reconciler) applyLocked(event Event) error {
	switch event.Kind {
	case EventCreated, EventUpdated:
		return r.applyUpsertLocked(event)
	case EventDeleted:
		return r.applyDeleteLocked(event)
	default:
		return fmt.Errorf("unknown event kind %q", event.Kind)
	}
}

func (r *Reconciler) applyUpsertLocked(event Event) error {
	if event.Entity == nil {
		return fmt.Errorf("%s event for %s carries no payload", event.Kind, event.ID)
	}

	// An update for an entity we have never seen precedes its Created
	// event on another feed; park it until the Created arrives.
	if event.Kind == EventUpdated && !r.store.Seen(event.Collection, event.ID) {
		r.bufferLocked(event.ID, event)
		return nil
	}

	applied, err := r.store.Upsert(event.Collection, event.Entity, event.Version)
	if err != nil {
		if errors.Is(err, store.ErrParentMissing) {
			r.bufferLocked(event.Entity.EntityParent(), event)
			return nil
		}
		return err
	}

	if applied && event.Kind == EventCreated {
		r.flushLocked(event.ID)
	}
	return nil
}

func (r *Reconciler) applyDeleteLocked(event Event) error {
	applied, err := r.store.Remove(event.Collection, event.ID, event.Version)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Deletion racing ahead of its Created event; park it so the
			// create-then-delete sequence still converges to a tombstone.
			r.bufferLocked(event.ID, event)
			return nil
		}
		return err
	}

	if !applied {
		r.logger.Debug("stale deletion discarded",
			"collection", string(event.Collection),
			"entity_id", event.ID,
			"version", event.Version)
	}
	return nil
}

func (r *Reconciler) bufferLocked(blockingID uuid.UUID, event Event) {
	r.pending[blockingID] = append(r.pending[blockingID], pendingEvent{
		event:      event,
		enqueuedAt: r.now(),
	})
	r.logger.Debug("buffered event pending arrival",
		"blocking_id", blockingID,
		"collection", string(event.Collection),
		"kind", string(event.Kind),
		"entity_id", event.ID)
}

// flushLocked replays, in original order, every event that was waiting for
// the given ID. Replayed Created events flush their own dependents in turn.
func (r *Reconciler) flushLocked(arrivedID uuid.UUID) {
	waiting, ok := r.pending[arrivedID]
	if !ok {
		return
	}
	delete(r.pending, arrivedID)

	for _, p := range waiting {
		if err := r.applyLocked(p.event); err != nil {
			r.logger.Warn("failed to replay buffered event",
				"collection", string(p.event.Collection),
				"kind", string(p.event.Kind),
				"entity_id", p.event.ID,
				"error", err)
		}
	}
}

// CollectOrphans drops buffered events that have waited longer than the
// pending timeout and returns how many were dropped. An orphan event is a
// diagnostic condition, not an error: its parent never arrived, so the
// event can never apply.
func (r *Reconciler) CollectOrphans() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.pendingTimeout)
	dropped := 0

	for blockingID, waiting := range r.pending {
		kept := waiting[:0]
		for _, p := range waiting {
			if p.enqueuedAt.Before(cutoff) {
				dropped++
				r.logger.Warn("dropping orphan event",
					"blocking_id", blockingID,
					"collection", string(p.event.Collection),
					"kind", string(p.event.Kind),
					"entity_id", p.event.ID,
					"waited", r.now().Sub(p.enqueuedAt).String())
				continue
			}
			kept = append(kept, p)
		}
		if len(kept) == 0 {
			delete(r.pending, blockingID)
		} else {
			r.pending[blockingID] = kept
		}
	}

	return dropped
}

// PendingCount returns the number of buffered events awaiting resolution.
func (r *Reconciler) PendingCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, waiting := range r.pending {
		n += len(waiting)
	}
	return n
}
