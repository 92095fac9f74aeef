package task

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/scry-sync/internal/domain"
	"github.com/phrazzld/scry-sync/internal/dueindex"
	"github.com/phrazzld/scry-sync/internal/events"
	"github.com/phrazzld/scry-sync/internal/reconcile"
	"github.com/phrazzld/scry-sync/internal/store"
)

// TombstonePurgeJob physically removes tombstones older than the retention
// window from the entity store.
type TombstonePurgeJob struct {
	Store     *store.EntityStore
	Retention time.Duration
	Every     time.Duration
	Logger    *slog.Logger
}

// Name implements Job.
func (j *TombstonePurgeJob) Name() string { return "tombstone_purge" }

// Interval implements Job.
func (j *TombstonePurgeJob) Interval() time.Duration { return j.Every }

// Run implements Job.
func (j *TombstonePurgeJob) Run(ctx context.Context) error {
	if purged := j.Store.PurgeTombstones(j.Retention); purged > 0 && j.Logger != nil {
		j.Logger.Debug("purged expired tombstones", "count", purged)
	}
	return nil
}

// OrphanSweepJob drops reconciler events whose parent never arrived within
// the pending timeout.
type OrphanSweepJob struct {
	Reconciler *reconcile.Reconciler
	Every      time.Duration
	Logger     *slog.Logger
}

// Name implements Job.
func (j *OrphanSweepJob) Name() string { return "orphan_sweep" }

// Interval implements Job.
func (j *OrphanSweepJob) Interval() time.Duration { return j.Every }

// Run implements Job.
func (j *OrphanSweepJob) Run(ctx context.Context) error {
	if dropped := j.Reconciler.CollectOrphans(); dropped > 0 && j.Logger != nil {
		j.Logger.Debug("dropped orphan events", "count", dropped)
	}
	return nil
}

// DueThresholdJob re-evaluates every deck's due count against the wall
// clock and emits a DueCountThreshold event when a deck crosses the
// configured threshold from below. Due-ness is a function of time, not
// writes, so this runs on a tick rather than on store mutations.
type DueThresholdJob struct {
	Store     *store.EntityStore
	Index     *dueindex.DueSetIndex
	Emitter   events.EventEmitter
	UserID    uuid.UUID
	Threshold int
	Every     time.Duration
	Now       func() time.Time
	Logger    *slog.Logger

	// lastCounts remembers the previous tick's counts for crossing
	// detection. Only touched from Run, which the runner serializes.
	lastCounts map[uuid.UUID]int
}

// Name implements Job.
func (j *DueThresholdJob) Name() string { return "due_threshold" }

// Interval implements Job.
func (j *DueThresholdJob) Interval() time.Duration { return j.Every }

// Run implements Job.
func (j *DueThresholdJob) Run(ctx context.Context) error {
	if j.lastCounts == nil {
		j.lastCounts = make(map[uuid.UUID]int)
	}

	now := time.Now().UTC()
	if j.Now != nil {
		now = j.Now()
	}

	var firstErr error
	for _, entity := range j.Store.All(store.CollectionDecks) {
		deck := entity.(*domain.Deck)
		count := j.Index.CountDue(deck.ID, j.UserID, now)
		previous := j.lastCounts[deck.ID]
		j.lastCounts[deck.ID] = count

		if count < j.Threshold || previous >= j.Threshold {
			continue
		}

		event, err := events.NewDomainEvent(events.TypeDueCountThreshold, events.DueCountThresholdPayload{
			UserID:    j.UserID,
			DeckID:    deck.ID,
			DueCount:  count,
			Threshold: j.Threshold,
		}, now)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		if err := j.Emitter.EmitEvent(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
