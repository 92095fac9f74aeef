package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Deck-specific validation errors
var (
	// ErrDeckIDEmpty is returned when a deck ID is empty or nil.
	ErrDeckIDEmpty = errors.New("deck ID cannot be empty")

	// ErrDeckOwnerIDEmpty is returned when a deck's owner ID is empty or nil.
	ErrDeckOwnerIDEmpty = errors.New("deck owner ID cannot be empty")

	// ErrDeckNameEmpty is returned when a deck's name is empty.
	ErrDeckNameEmpty = errors.New("deck name cannot be empty")

	// ErrDeckNegativeCount is returned when a deck carries a negative
	// denormalized counter.
	ErrDeckNegativeCount = errors.New("deck counters cannot be negative")
)

// Deck represents a published collection of flashcards, organized into
// ordered sections.
//
// The counter fields (CardCount, DownloadCount, RatingCount) and the
// aggregate rating stats are denormalized values maintained by a background
// aggregation job; they arrive through the same update feed as
// user-originated edits and are never computed locally.
type Deck struct {
	ID            uuid.UUID   `json:"id"`
	OwnerID       uuid.UUID   `json:"owner_id"`
	Name          string      `json:"name"`
	Subtitle      string      `json:"subtitle,omitempty"`
	Description   string      `json:"description,omitempty"`
	CardCount     int         `json:"card_count"`
	DownloadCount int         `json:"download_count"`
	RatingCount   int         `json:"rating_count"`
	AverageRating float64     `json:"average_rating"`
	SectionIDs    []uuid.UUID `json:"section_ids"` // ordered
	TopicIDs      []uuid.UUID `json:"topic_ids,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// NewDeck creates a new Deck owned by the given user.
// It generates a new UUID for the deck ID and sets the creation/update
// timestamps. Returns an error if validation fails.
func NewDeck(ownerID uuid.UUID, name string) (*Deck, error) {
	now := time.Now().UTC()
	deck := &Deck{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := deck.Validate(); err != nil {
		return nil, err
	}

	return deck, nil
}

// Validate checks if the Deck has valid data.
// Returns an error if any field fails validation.
func (d *Deck) Validate() error {
	if d.ID == uuid.Nil {
		return ErrDeckIDEmpty
	}

	if d.OwnerID == uuid.Nil {
		return ErrDeckOwnerIDEmpty
	}

	if d.Name == "" {
		return ErrDeckNameEmpty
	}

	if d.CardCount < 0 || d.DownloadCount < 0 || d.RatingCount < 0 {
		return ErrDeckNegativeCount
	}

	return nil
}

// EntityID implements Entity.
func (d *Deck) EntityID() uuid.UUID { return d.ID }

// EntityParent implements Entity. Decks are root entities.
func (d *Deck) EntityParent() uuid.UUID { return uuid.Nil }
