// Package dueindex maintains, per (deck, user) pair, an ordered index of
// cards by due time. It is a pure derived view over the entity store's
// card_user_data collection: fully reconstructable from the store plus the
// current time, and never an independent source of truth.
package dueindex

import (
	"bytes"
	"log/slog"
	"sync"
	"time"

	"github.com/emirpasic/gods/trees/redblacktree"
	"github.com/google/uuid"

	"github.com/phrazzld/scry-sync/internal/domain"
	"github.com/phrazzld/scry-sync/internal/store"
)

// Entry is one indexed card. PopDueBatch hands entries to a review session;
// Restore puts unreviewed entries back when a session is cancelled.
type Entry struct {
	CardID uuid.UUID
	DueAt  time.Time
}

// deckUser keys the per-deck, per-user trees.
type deckUser struct {
	deckID uuid.UUID
	userID uuid.UUID
}

// entryKey orders the tree by (dueAt, cardID). The card ID tie-break makes
// batch ordering deterministic when several cards share a due time.
type entryKey struct {
	dueAt  time.Time
	cardID uuid.UUID
}

func compareEntryKeys(a, b interface{}) int {
	ka := a.(entryKey)
	kb := b.(entryKey)

	switch {
	case ka.dueAt.Before(kb.dueAt):
		return -1
	case ka.dueAt.After(kb.dueAt):
		return 1
	default:
		return bytes.Compare(ka.cardID[:], kb.cardID[:])
	}
}

// DueSetIndex answers "which cards are due now" and "how many" in O(log n)
// per mutation, without rescanning all cards.
//
// It updates itself by observing entity store changes; because store
// observers run synchronously under the store's mutation lock, the index is
// always atomic with the store state that produced it. Due-ness itself is a
// function of wall-clock time, so queries take an explicit asOf timestamp
// and re-evaluate the boundary on every call rather than only on writes.
type DueSetIndex struct {
	mu     sync.Mutex
	logger *slog.Logger

	trees     map[deckUser]*redblacktree.Tree
	positions map[deckUser]map[uuid.UUID]entryKey

	// byCard locates every (deck, user) tree holding an entry for a card,
	// for removal events that carry only the card ID.
	byCard map[uuid.UUID]map[deckUser]struct{}
}

// Compile-time check: the index is a store observer.
var _ store.Observer = (*DueSetIndex)(nil)

// NewDueSetIndex creates an empty index.
func NewDueSetIndex(logger *slog.Logger) *DueSetIndex {
	if logger == nil {
		logger = slog.Default()
	}
	return &DueSetIndex{
		logger:    logger.With("component", "due_set_index"),
		trees:     make(map[deckUser]*redblacktree.Tree),
		positions: make(map[deckUser]map[uuid.UUID]entryKey),
		byCard:    make(map[uuid.UUID]map[deckUser]struct{}),
	}
}

// EntityChanged implements store.Observer. Only card_user_data mutations
// affect the index.
func (idx *DueSetIndex) EntityChanged(change store.Change) {
	if change.Collection != store.CollectionCardUserData {
		return
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	switch change.Kind {
	case store.ChangeUpserted:
		data, ok := change.Entity.(*domain.CardUserData)
		if !ok {
			idx.logger.Warn("unexpected entity type in card_user_data change",
				"entity_id", change.ID)
			return
		}
		idx.upsertLocked(data)
	case store.ChangeRemoved:
		idx.removeLocked(change.ID)
	}
}

func (idx *DueSetIndex) upsertLocked(data *domain.CardUserData) {
	key := deckUser{deckID: data.DeckID, userID: data.UserID}

	tree, ok := idx.trees[key]
	if !ok {
		tree = redblacktree.NewWith(compareEntryKeys)
		idx.trees[key] = tree
		idx.positions[key] = make(map[uuid.UUID]entryKey)
	}

	if old, exists := idx.positions[key][data.CardID]; exists {
		tree.Remove(old)
	}

	entry := entryKey{dueAt: data.DueAt, cardID: data.CardID}
	tree.Put(entry, data.CardID)
	idx.positions[key][data.CardID] = entry

	owners, ok := idx.byCard[data.CardID]
	if !ok {
		owners = make(map[deckUser]struct{})
		idx.byCard[data.CardID] = owners
	}
	owners[key] = struct{}{}
}

func (idx *DueSetIndex) removeLocked(cardID uuid.UUID) {
	for key := range idx.byCard[cardID] {
		if old, exists := idx.positions[key][cardID]; exists {
			idx.trees[key].Remove(old)
			delete(idx.positions[key], cardID)
		}
	}
	delete(idx.byCard, cardID)
}

// CountDue returns the number of cards in the (deck, user) set whose due
// time is at or before asOf.
func (idx *DueSetIndex) CountDue(deckID, userID uuid.UUID, asOf time.Time) int {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	tree, ok := idx.trees[deckUser{deckID: deckID, userID: userID}]
	if !ok {
		return 0
	}

	count := 0
	it := tree.Iterator()
	for it.Next() {
		if it.Key().(entryKey).dueAt.After(asOf) {
			break
		}
		count++
	}
	return count
}

// PopDueBatch removes and returns up to n due entries, ordered by earliest
// due time first with ties broken by card ID. The caller owns the returned
// entries; Restore reinserts any that end up unreviewed.
func (idx *DueSetIndex) PopDueBatch(deckID, userID uuid.UUID, asOf time.Time, n int) []Entry {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	key := deckUser{deckID: deckID, userID: userID}
	tree, ok := idx.trees[key]
	if !ok || n <= 0 {
		return nil
	}

	batch := make([]Entry, 0, n)
	it := tree.Iterator()
	for it.Next() && len(batch) < n {
		entry := it.Key().(entryKey)
		if entry.dueAt.After(asOf) {
			break
		}
		batch = append(batch, Entry{CardID: entry.cardID, DueAt: entry.dueAt})
	}

	for _, entry := range batch {
		tree.Remove(entryKey{dueAt: entry.DueAt, cardID: entry.CardID})
		delete(idx.positions[key], entry.CardID)
		if owners, ok := idx.byCard[entry.CardID]; ok {
			delete(owners, key)
			if len(owners) == 0 {
				delete(idx.byCard, entry.CardID)
			}
		}
	}

	return batch
}

// Restore reinserts entries previously returned by PopDueBatch. A card that
// reappeared in the index in the meantime (a schedule update arrived while
// the session held it) keeps its newer position.
func (idx *DueSetIndex) Restore(deckID, userID uuid.UUID, entries []Entry) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	key := deckUser{deckID: deckID, userID: userID}
	tree, ok := idx.trees[key]
	if !ok {
		tree = redblacktree.NewWith(compareEntryKeys)
		idx.trees[key] = tree
		idx.positions[key] = make(map[uuid.UUID]entryKey)
	}

	for _, entry := range entries {
		if _, exists := idx.positions[key][entry.CardID]; exists {
			continue
		}
		ek := entryKey{dueAt: entry.DueAt, cardID: entry.CardID}
		tree.Put(ek, entry.CardID)
		idx.positions[key][entry.CardID] = ek

		owners, ok := idx.byCard[entry.CardID]
		if !ok {
			owners = make(map[deckUser]struct{})
			idx.byCard[entry.CardID] = owners
		}
		owners[key] = struct{}{}
	}
}

// Len returns the total number of indexed cards for the (deck, user) pair,
// due or not.
func (idx *DueSetIndex) Len(deckID, userID uuid.UUID) int {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	tree, ok := idx.trees[deckUser{deckID: deckID, userID: userID}]
	if !ok {
		return 0
	}
	return tree.Size()
}
