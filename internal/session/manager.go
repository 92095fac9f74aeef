package session

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/scry-sync/internal/domain"
	"github.com/phrazzld/scry-sync/internal/dueindex"
	"github.com/phrazzld/scry-sync/internal/events"
	"github.com/phrazzld/scry-sync/internal/reconcile"
	"github.com/phrazzld/scry-sync/internal/srs"
	"github.com/phrazzld/scry-sync/internal/store"
)

// Mode selects how a session draws its cards.
type Mode string

// Session modes.
const (
	// ModeNormal draws exclusively from the due-set index and persists
	// schedule mutations.
	ModeNormal Mode = "normal"

	// ModeCram draws from all cards in the deck regardless of due date
	// and never persists schedule mutations.
	ModeCram Mode = "cram"
)

// IsValid reports whether the mode is known.
func (m Mode) IsValid() bool {
	return m == ModeNormal || m == ModeCram
}

// Committer persists schedule mutations to the backing store. It is the
// outbound half of the persistence collaborator; the engine retries
// transient failures and otherwise treats commit errors as diagnostic:
// local state stays authoritative until the next resync.
type Committer interface {
	CommitReview(ctx context.Context, data *domain.CardUserData) error
}

// Config tunes the session manager. Zero values use defaults.
type Config struct {
	// BatchSize is the maximum number of due cards drawn into a normal
	// session. Zero means 20.
	BatchSize int

	// CommitAttempts is how many times a schedule commit is tried before
	// giving up. Zero means 3.
	CommitAttempts uint

	// CommitDelay is the base delay between commit retries. Zero means
	// 250ms.
	CommitDelay time.Duration

	// Now injects the time source. Nil means time.Now in UTC.
	Now func() time.Time
}

// deckUser keys the set of active sessions; at most one session may run
// per (deck, user) pair so that all schedule mutations for a card
// serialize through a single session.
type deckUser struct {
	deckID uuid.UUID
	userID uuid.UUID
}

// Manager creates and tracks review sessions.
type Manager struct {
	store      *store.EntityStore
	index      *dueindex.DueSetIndex
	reconciler *reconcile.Reconciler
	scheduler  srs.Service
	committer  Committer
	emitter    events.EventEmitter
	logger     *slog.Logger

	now            func() time.Time
	batchSize      int
	commitAttempts uint
	commitDelay    time.Duration

	mu     sync.Mutex
	active map[deckUser]*Session
}

// NewManager creates a session manager. The reconciler, committer and
// emitter are optional: without a reconciler sessions start immediately
// instead of waiting for bootstrap, without a committer mutations stay
// local, without an emitter no domain events are published.
func NewManager(
	entityStore *store.EntityStore,
	index *dueindex.DueSetIndex,
	reconciler *reconcile.Reconciler,
	scheduler srs.Service,
	committer Committer,
	emitter events.EventEmitter,
	logger *slog.Logger,
	cfg Config,
) *Manager {
	if entityStore == nil {
		panic("entityStore cannot be nil")
	}
	if index == nil {
		panic("index cannot be nil")
	}
	if scheduler == nil {
		panic("scheduler cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 20
	}
	if cfg.CommitAttempts == 0 {
		cfg.CommitAttempts = 3
	}
	if cfg.CommitDelay == 0 {
		cfg.CommitDelay = 250 * time.Millisecond
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}

	return &Manager{
		store:          entityStore,
		index:          index,
		reconciler:     reconciler,
		scheduler:      scheduler,
		committer:      committer,
		emitter:        emitter,
		logger:         logger.With("component", "session_manager"),
		now:            cfg.Now,
		batchSize:      cfg.BatchSize,
		commitAttempts: cfg.CommitAttempts,
		commitDelay:    cfg.CommitDelay,
		active:         make(map[deckUser]*Session),
	}
}

// Start begins a review session for the given deck and user.
//
// It suspends until the entity collections a session depends on have
// completed their bootstrap snapshot, or the context is cancelled. In
// normal mode the session draws up to the configured batch of due cards
// from the index; in cram mode it takes every card in the deck in section
// order.
func (m *Manager) Start(
	ctx context.Context,
	deckID, userID uuid.UUID,
	mode Mode,
) (*Session, error) {
	if !mode.IsValid() {
		return nil, &ServiceError{Operation: "start", Message: fmt.Sprintf("invalid mode %q", mode)}
	}
	if deckID == uuid.Nil || userID == uuid.Nil {
		return nil, &ServiceError{Operation: "start", Message: "deck and user IDs are required", Err: domain.ErrInvalidID}
	}

	if m.reconciler != nil {
		for _, collection := range []store.Collection{
			store.CollectionDecks,
			store.CollectionSections,
			store.CollectionCards,
			store.CollectionCardUserData,
		} {
			if err := m.reconciler.WaitForBootstrap(ctx, collection); err != nil {
				return nil, &ServiceError{Operation: "start", Message: "bootstrap did not complete", Err: err}
			}
		}
	}

	if _, ok := m.store.Get(store.CollectionDecks, deckID); !ok {
		return nil, ErrDeckNotFound
	}

	key := deckUser{deckID: deckID, userID: userID}
	m.mu.Lock()
	if _, exists := m.active[key]; exists {
		m.mu.Unlock()
		return nil, ErrSessionActive
	}
	// Reserve the slot before building the queue so two concurrent Start
	// calls cannot both pop the due batch.
	m.active[key] = nil
	m.mu.Unlock()

	queue, err := m.buildQueue(deckID, userID, mode)
	if err != nil {
		m.release(key)
		return nil, err
	}

	sess := &Session{
		id:      uuid.New(),
		deckID:  deckID,
		userID:  userID,
		mode:    mode,
		manager: m,
		queue:   queue,
		state:   sessionActive,
	}

	m.mu.Lock()
	m.active[key] = sess
	m.mu.Unlock()

	m.logger.Info("review session started",
		"session_id", sess.id,
		"deck_id", deckID,
		"user_id", userID,
		"mode", string(mode),
		"cards", len(queue))

	return sess, nil
}

func (m *Manager) buildQueue(deckID, userID uuid.UUID, mode Mode) ([]dueindex.Entry, error) {
	if mode == ModeNormal {
		entries := m.index.PopDueBatch(deckID, userID, m.now(), m.batchSize)
		if len(entries) == 0 {
			return nil, ErrNoCardsDue
		}
		return entries, nil
	}

	// Cram: every card in the deck, in section order.
	sections := m.store.Children(store.CollectionSections, deckID)
	sort.Slice(sections, func(i, j int) bool {
		return sections[i].(*domain.Section).Position < sections[j].(*domain.Section).Position
	})

	var entries []dueindex.Entry
	for _, section := range sections {
		for _, entity := range m.store.Children(store.CollectionCards, section.EntityID()) {
			card := entity.(*domain.Card)
			entries = append(entries, dueindex.Entry{CardID: card.ID})
		}
	}
	if len(entries) == 0 {
		return nil, ErrNoCardsDue
	}
	return entries, nil
}

func (m *Manager) release(key deckUser) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.active, key)
}
