package domain

import (
	"errors"

	"github.com/google/uuid"
)

// Section-specific validation errors
var (
	// ErrSectionIDEmpty is returned when a section ID is empty or nil.
	ErrSectionIDEmpty = errors.New("section ID cannot be empty")

	// ErrSectionDeckIDEmpty is returned when a section's deck ID is empty or nil.
	ErrSectionDeckIDEmpty = errors.New("section deck ID cannot be empty")

	// ErrSectionNameEmpty is returned when a section's name is empty.
	ErrSectionNameEmpty = errors.New("section name cannot be empty")

	// ErrSectionNegativePosition is returned when a section's position is negative.
	ErrSectionNegativePosition = errors.New("section position cannot be negative")
)

// Section is an ordered grouping of cards within a deck. A section belongs
// to exactly one deck; deleting the deck logically deletes its sections.
type Section struct {
	ID       uuid.UUID `json:"id"`
	DeckID   uuid.UUID `json:"deck_id"`
	Name     string    `json:"name"`
	Position int       `json:"position"`
}

// NewSection creates a new Section in the given deck at the given position.
// Returns an error if validation fails.
func NewSection(deckID uuid.UUID, name string, position int) (*Section, error) {
	section := &Section{
		ID:       uuid.New(),
		DeckID:   deckID,
		Name:     name,
		Position: position,
	}

	if err := section.Validate(); err != nil {
		return nil, err
	}

	return section, nil
}

// Validate checks if the Section has valid data.
func (s *Section) Validate() error {
	if s.ID == uuid.Nil {
		return ErrSectionIDEmpty
	}

	if s.DeckID == uuid.Nil {
		return ErrSectionDeckIDEmpty
	}

	if s.Name == "" {
		return ErrSectionNameEmpty
	}

	if s.Position < 0 {
		return ErrSectionNegativePosition
	}

	return nil
}

// EntityID implements Entity.
func (s *Section) EntityID() uuid.UUID { return s.ID }

// EntityParent implements Entity.
func (s *Section) EntityParent() uuid.UUID { return s.DeckID }
