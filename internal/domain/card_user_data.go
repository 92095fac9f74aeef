package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ScheduleState tracks where a card sits in its review lifecycle.
type ScheduleState string

// Possible schedule states. New is the initial state; there is no terminal
// state; a card can be revisited indefinitely.
const (
	ScheduleStateNew       ScheduleState = "new"
	ScheduleStateLearning  ScheduleState = "learning"
	ScheduleStateReviewing ScheduleState = "reviewing"
	ScheduleStateLapsed    ScheduleState = "lapsed"
)

// IsValid reports whether the state is one of the known lifecycle states.
func (s ScheduleState) IsValid() bool {
	switch s {
	case ScheduleStateNew, ScheduleStateLearning, ScheduleStateReviewing, ScheduleStateLapsed:
		return true
	default:
		return false
	}
}

// Common validation errors for CardUserData
var (
	ErrEmptyDataUserID   = errors.New("card user data user ID cannot be empty")
	ErrEmptyDataCardID   = errors.New("card user data card ID cannot be empty")
	ErrEmptyDataDeckID   = errors.New("card user data deck ID cannot be empty")
	ErrNegativeInterval  = errors.New("interval cannot be negative")
	ErrInvalidEaseFactor = errors.New("ease factor must be greater than 1.0")
	ErrInvalidState      = errors.New("invalid schedule state")
)

// ReviewRecord is one entry in a card's append-only review history.
type ReviewRecord struct {
	Rating     PerformanceRating `json:"rating"`
	ReviewedAt time.Time         `json:"reviewed_at"`
	Interval   time.Duration     `json:"interval"`
	EaseFactor float64           `json:"ease_factor"`
}

// CardUserData tracks a user's spaced repetition state for a specific card.
// It is the scheduler's unit of mutation: every submitted rating produces a
// new CardUserData value with an updated interval, ease factor and due time,
// and appends one ReviewRecord to the history.
type CardUserData struct {
	UserID         uuid.UUID      `json:"user_id"`
	CardID         uuid.UUID      `json:"card_id"`
	DeckID         uuid.UUID      `json:"deck_id"`
	State          ScheduleState  `json:"state"`
	Interval       time.Duration  `json:"interval"`         // current interval
	EaseFactor     float64        `json:"ease_factor"`      // growth multiplier, typically 1.3-2.5
	DueAt          time.Time      `json:"due_at"`           // when the card should next be reviewed
	LastReviewedAt time.Time      `json:"last_reviewed_at"` // zero until the first review
	ReviewCount    int            `json:"review_count"`
	Lapses         int            `json:"lapses"`
	History        []ReviewRecord `json:"history,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// NewCardUserData creates review state for a user and card with default
// values. New cards are due immediately.
func NewCardUserData(userID, cardID, deckID uuid.UUID, now time.Time) (*CardUserData, error) {
	data := &CardUserData{
		UserID:     userID,
		CardID:     cardID,
		DeckID:     deckID,
		State:      ScheduleStateNew,
		Interval:   0,
		EaseFactor: 2.5, // default ease factor
		DueAt:      now, // available for review immediately
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := data.Validate(); err != nil {
		return nil, err
	}

	return data, nil
}

// Validate checks if the CardUserData has valid data.
// Returns an error if any field fails validation.
func (d *CardUserData) Validate() error {
	if d.UserID == uuid.Nil {
		return ErrEmptyDataUserID
	}

	if d.CardID == uuid.Nil {
		return ErrEmptyDataCardID
	}

	if d.DeckID == uuid.Nil {
		return ErrEmptyDataDeckID
	}

	if d.Interval < 0 {
		return ErrNegativeInterval
	}

	if d.EaseFactor <= 1.0 {
		return ErrInvalidEaseFactor
	}

	if !d.State.IsValid() {
		return ErrInvalidState
	}

	return nil
}

// Clone returns a deep copy. The scheduler mutates copies, never the
// original, so a caller holding a *CardUserData never observes a partial
// update.
func (d *CardUserData) Clone() *CardUserData {
	clone := *d
	if d.History != nil {
		clone.History = make([]ReviewRecord, len(d.History))
		copy(clone.History, d.History)
	}
	return &clone
}

// EntityID implements Entity. Review state is keyed by its card within the
// per-user collection.
func (d *CardUserData) EntityID() uuid.UUID { return d.CardID }

// EntityParent implements Entity.
func (d *CardUserData) EntityParent() uuid.UUID { return d.CardID }
