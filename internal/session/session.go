package session

import (
	"context"
	"fmt"
	"sync"

	retry "github.com/avast/retry-go"
	"github.com/google/uuid"

	"github.com/phrazzld/scry-sync/internal/domain"
	"github.com/phrazzld/scry-sync/internal/dueindex"
	"github.com/phrazzld/scry-sync/internal/events"
	"github.com/phrazzld/scry-sync/internal/platform/logger"
	"github.com/phrazzld/scry-sync/internal/store"
)

type sessionState int

const (
	sessionActive sessionState = iota
	sessionCancelled
	sessionCompleted
)

// Session is one interactive review run over a deck. All methods are safe
// for concurrent use; submissions for the session's cards serialize
// through the session lock, so a second rating for the same card always
// observes the result of the first.
type Session struct {
	id      uuid.UUID
	deckID  uuid.UUID
	userID  uuid.UUID
	mode    Mode
	manager *Manager

	mu         sync.Mutex
	queue      []dueindex.Entry
	pos        int
	reviewed   int
	remembered int
	state      sessionState
}

// SubmitResult reports the outcome of one rating submission.
type SubmitResult struct {
	// Completed is true when no cards remain in the session.
	Completed bool

	// NextCardID is the card to show next; uuid.Nil when Completed.
	NextCardID uuid.UUID

	// Remaining is the number of cards left, including the next one.
	Remaining int

	// Remembered is the running cram tally; zero in normal mode.
	Remembered int

	// Data is the updated schedule state; nil in cram mode.
	Data *domain.CardUserData
}

// ID returns the session's unique identifier.
func (s *Session) ID() uuid.UUID { return s.id }

// Mode returns the session's review mode.
func (s *Session) Mode() Mode { return s.mode }

// CurrentCard returns the card awaiting a rating. It skips over cards that
// were deleted while the session was running.
func (s *Session) CurrentCard() (*domain.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != sessionActive {
		return nil, ErrUnknownSession
	}

	id, ok := s.currentLocked()
	if !ok {
		return nil, ErrNoCardsDue
	}

	entity, _ := s.manager.store.Get(store.CollectionCards, id)
	return entity.(*domain.Card), nil
}

// Submit applies a rating to the session's current card.
//
// In normal mode the rating runs through the scheduler, the resulting
// schedule mutation is applied to the entity store (which keeps the due
// index in lockstep) and committed to the persistence collaborator. In
// cram mode the rating only feeds the remembered tally.
//
// Returns ErrUnknownSession if the session is cancelled or completed, and
// ErrCardNotInSession if cardID is not the session's current card.
func (s *Session) Submit(
	ctx context.Context,
	cardID uuid.UUID,
	rating domain.PerformanceRating,
) (*SubmitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != sessionActive {
		return nil, ErrUnknownSession
	}

	currentID, ok := s.currentLocked()
	if !ok {
		// Every remaining card vanished mid-session.
		s.completeLocked()
		return nil, ErrCardNotInSession
	}
	if cardID != currentID {
		return nil, ErrCardNotInSession
	}

	var updated *domain.CardUserData
	switch s.mode {
	case ModeNormal:
		data, err := s.submitNormalLocked(ctx, cardID, rating)
		if err != nil {
			return nil, err
		}
		updated = data
	case ModeCram:
		if !rating.IsValid() {
			return nil, fmt.Errorf("%w: unknown rating %d", domain.ErrInvalidRating, int(rating))
		}
		if rating.Remembered() {
			s.remembered++
		}
	}

	s.reviewed++
	s.pos++

	result := &SubmitResult{
		Remembered: s.remembered,
		Data:       updated,
	}

	if nextID, ok := s.currentLocked(); ok {
		result.NextCardID = nextID
		result.Remaining = len(s.queue) - s.pos
	} else {
		result.Completed = true
		s.completeLocked()
	}

	return result, nil
}

// submitNormalLocked runs the scheduler, stores the mutation and commits
// it outward.
func (s *Session) submitNormalLocked(
	ctx context.Context,
	cardID uuid.UUID,
	rating domain.PerformanceRating,
) (*domain.CardUserData, error) {
	m := s.manager
	now := m.now()

	var data *domain.CardUserData
	if entity, ok := m.store.Get(store.CollectionCardUserData, cardID); ok {
		data = entity.(*domain.CardUserData)
	} else {
		// First review of this card for this user.
		fresh, err := domain.NewCardUserData(s.userID, cardID, s.deckID, now)
		if err != nil {
			return nil, &ServiceError{Operation: "submit", Message: "failed to create review state", Err: err}
		}
		data = fresh
	}

	updated, err := m.scheduler.SubmitRating(data, rating, now)
	if err != nil {
		return nil, &ServiceError{Operation: "submit", Message: "scheduler rejected rating", Err: err}
	}

	if _, err := m.store.UpsertLocal(store.CollectionCardUserData, updated); err != nil {
		return nil, &ServiceError{Operation: "submit", Message: "failed to store schedule", Err: err}
	}

	s.commit(ctx, updated)

	if rating.IsLapse() {
		s.emitLapse(ctx, updated)
	}

	return updated, nil
}

// commit pushes the mutation to the persistence collaborator, retrying
// transient failures. A commit that still fails is logged and absorbed:
// local state stays authoritative and the next full resync reconciles it.
func (s *Session) commit(ctx context.Context, data *domain.CardUserData) {
	m := s.manager
	if m.committer == nil {
		return
	}

	err := retry.Do(
		func() error {
			return m.committer.CommitReview(ctx, data)
		},
		retry.Attempts(m.commitAttempts),
		retry.Delay(m.commitDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		log := logger.FromContextOrDefault(ctx, m.logger)
		log.Warn("failed to commit review mutation",
			"session_id", s.id,
			"card_id", data.CardID,
			"error", err)
	}
}

func (s *Session) emitLapse(ctx context.Context, data *domain.CardUserData) {
	m := s.manager
	if m.emitter == nil {
		return
	}
	log := logger.FromContextOrDefault(ctx, m.logger)

	event, err := events.NewDomainEvent(events.TypeCardLapsed, events.CardLapsedPayload{
		UserID: data.UserID,
		CardID: data.CardID,
		DeckID: data.DeckID,
		Lapses: data.Lapses,
	}, m.now())
	if err != nil {
		log.Warn("failed to build lapse event", "error", err)
		return
	}

	if err := m.emitter.EmitEvent(ctx, event); err != nil {
		log.Warn("lapse event handler failed", "error", err)
	}
}

// Cancel abandons the session. Ratings already committed keep their
// effect; cards the session still held are returned to the due index so
// the derived view stays consistent. Cancelling a finished session returns
// ErrUnknownSession.
func (s *Session) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != sessionActive {
		return ErrUnknownSession
	}
	s.state = sessionCancelled

	if s.mode == ModeNormal && s.pos < len(s.queue) {
		s.manager.index.Restore(s.deckID, s.userID, s.queue[s.pos:])
	}

	s.manager.release(deckUser{deckID: s.deckID, userID: s.userID})
	s.manager.logger.Info("review session cancelled",
		"session_id", s.id,
		"reviewed", s.reviewed,
		"remaining", len(s.queue)-s.pos)

	return nil
}

// Remaining returns how many cards are left to review.
func (s *Session) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != sessionActive {
		return 0
	}
	return len(s.queue) - s.pos
}

// Remembered returns the cram tally.
func (s *Session) Remembered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remembered
}

// currentLocked resolves the current card, skipping entries whose card was
// deleted while the session was running.
func (s *Session) currentLocked() (uuid.UUID, bool) {
	for s.pos < len(s.queue) {
		id := s.queue[s.pos].CardID
		if _, ok := s.manager.store.Get(store.CollectionCards, id); ok {
			return id, true
		}
		s.pos++
	}
	return uuid.Nil, false
}

func (s *Session) completeLocked() {
	if s.state == sessionActive {
		s.state = sessionCompleted
		s.manager.release(deckUser{deckID: s.deckID, userID: s.userID})
		s.manager.logger.Info("review session completed",
			"session_id", s.id,
			"reviewed", s.reviewed,
			"mode", string(s.mode))
	}
}
