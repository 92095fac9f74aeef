package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestNewCard(t *testing.T) {
	t.Parallel()
	deckID := uuid.New()
	sectionID := uuid.New()
	content := json.RawMessage(`{"front":"Question","back":"Answer"}`)

	t.Run("valid card", func(t *testing.T) {
		card, err := NewCard(deckID, sectionID, content)
		if err != nil {
			t.Fatalf("NewCard failed: %v", err)
		}
		if card.ID == uuid.Nil {
			t.Error("Expected a generated card ID")
		}
		if card.DeckID != deckID {
			t.Errorf("Expected deck ID %v, got %v", deckID, card.DeckID)
		}
		if card.SectionID != sectionID {
			t.Errorf("Expected section ID %v, got %v", sectionID, card.SectionID)
		}
		if card.CreatedAt.IsZero() || card.UpdatedAt.IsZero() {
			t.Error("Expected timestamps to be set")
		}
	})

	t.Run("missing deck ID", func(t *testing.T) {
		_, err := NewCard(uuid.Nil, sectionID, content)
		if !errors.Is(err, ErrCardDeckIDEmpty) {
			t.Errorf("Expected ErrCardDeckIDEmpty, got %v", err)
		}
	})

	t.Run("missing section ID", func(t *testing.T) {
		_, err := NewCard(deckID, uuid.Nil, content)
		if !errors.Is(err, ErrCardSectionIDEmpty) {
			t.Errorf("Expected ErrCardSectionIDEmpty, got %v", err)
		}
	})

	t.Run("empty content", func(t *testing.T) {
		_, err := NewCard(deckID, sectionID, nil)
		if !errors.Is(err, ErrCardContentEmpty) {
			t.Errorf("Expected ErrCardContentEmpty, got %v", err)
		}
	})

	t.Run("malformed content", func(t *testing.T) {
		_, err := NewCard(deckID, sectionID, json.RawMessage(`{front`))
		if !errors.Is(err, ErrCardContentInvalid) {
			t.Errorf("Expected ErrCardContentInvalid, got %v", err)
		}
	})
}

func TestCardEntity(t *testing.T) {
	t.Parallel()

	card, err := NewCard(uuid.New(), uuid.New(), json.RawMessage(`{"front":"Q","back":"A"}`))
	if err != nil {
		t.Fatalf("NewCard failed: %v", err)
	}

	if card.EntityID() != card.ID {
		t.Errorf("Expected entity ID %v, got %v", card.ID, card.EntityID())
	}
	if card.EntityParent() != card.SectionID {
		t.Errorf("Expected entity parent %v, got %v", card.SectionID, card.EntityParent())
	}
}
