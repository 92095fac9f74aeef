package domain

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Card-specific validation errors
var (
	// ErrCardIDEmpty is returned when a card ID is empty or nil.
	ErrCardIDEmpty = errors.New("card ID cannot be empty")

	// ErrCardDeckIDEmpty is returned when a card's deck ID is empty or nil.
	ErrCardDeckIDEmpty = errors.New("card deck ID cannot be empty")

	// ErrCardSectionIDEmpty is returned when a card's section ID is empty or nil.
	ErrCardSectionIDEmpty = errors.New("card section ID cannot be empty")

	// ErrCardContentEmpty is returned when a card's content is empty.
	ErrCardContentEmpty = errors.New("card content cannot be empty")

	// ErrCardContentInvalid is returned when a card's content is not valid JSON.
	ErrCardContentInvalid = errors.New("card content must be valid JSON")
)

// Card represents a single flashcard. The content is stored as a raw JSON
// structure, allowing for flexible card formats (plain front/back text,
// embedded media references) without schema changes.
//
// Global creation metadata lives here; per-user review state lives in
// CardUserData and is synchronized independently.
type Card struct {
	ID        uuid.UUID       `json:"id"`
	DeckID    uuid.UUID       `json:"deck_id"`
	SectionID uuid.UUID       `json:"section_id"`
	Content   json.RawMessage `json:"content"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// CardContent represents the conventional structure of the content field.
// Cards can carry additional fields as content is stored as raw JSON.
type CardContent struct {
	Front    string `json:"front"`
	Back     string `json:"back"`
	ImageURL string `json:"image_url,omitempty"`
}

// NewCard creates a new Card in the given deck and section.
// It generates a new UUID for the card ID and sets the creation/update
// timestamps. Returns an error if validation fails.
func NewCard(deckID, sectionID uuid.UUID, content json.RawMessage) (*Card, error) {
	now := time.Now().UTC()
	card := &Card{
		ID:        uuid.New(),
		DeckID:    deckID,
		SectionID: sectionID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := card.Validate(); err != nil {
		return nil, err
	}

	return card, nil
}

// Validate checks if the Card has valid data.
// Returns an error if any field fails validation.
func (c *Card) Validate() error {
	if c.ID == uuid.Nil {
		return ErrCardIDEmpty
	}

	if c.DeckID == uuid.Nil {
		return ErrCardDeckIDEmpty
	}

	if c.SectionID == uuid.Nil {
		return ErrCardSectionIDEmpty
	}

	if len(c.Content) == 0 {
		return ErrCardContentEmpty
	}

	var js json.RawMessage
	if err := json.Unmarshal(c.Content, &js); err != nil {
		return ErrCardContentInvalid
	}

	return nil
}

// EntityID implements Entity.
func (c *Card) EntityID() uuid.UUID { return c.ID }

// EntityParent implements Entity. A card's direct parent is its section.
func (c *Card) EntityParent() uuid.UUID { return c.SectionID }
