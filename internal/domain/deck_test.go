package domain

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestNewDeck(t *testing.T) {
	t.Parallel()
	ownerID := uuid.New()

	t.Run("valid deck", func(t *testing.T) {
		deck, err := NewDeck(ownerID, "Spanish Vocabulary")
		if err != nil {
			t.Fatalf("NewDeck failed: %v", err)
		}
		if deck.ID == uuid.Nil {
			t.Error("Expected a generated deck ID")
		}
		if deck.OwnerID != ownerID {
			t.Errorf("Expected owner ID %v, got %v", ownerID, deck.OwnerID)
		}
		if deck.EntityParent() != uuid.Nil {
			t.Errorf("Expected deck to be a root entity, got parent %v", deck.EntityParent())
		}
	})

	t.Run("missing owner", func(t *testing.T) {
		_, err := NewDeck(uuid.Nil, "Spanish Vocabulary")
		if !errors.Is(err, ErrDeckOwnerIDEmpty) {
			t.Errorf("Expected ErrDeckOwnerIDEmpty, got %v", err)
		}
	})

	t.Run("empty name", func(t *testing.T) {
		_, err := NewDeck(ownerID, "")
		if !errors.Is(err, ErrDeckNameEmpty) {
			t.Errorf("Expected ErrDeckNameEmpty, got %v", err)
		}
	})
}

func TestDeckValidateCounters(t *testing.T) {
	t.Parallel()

	deck, err := NewDeck(uuid.New(), "Geography")
	if err != nil {
		t.Fatalf("NewDeck failed: %v", err)
	}

	deck.CardCount = -1
	if err := deck.Validate(); !errors.Is(err, ErrDeckNegativeCount) {
		t.Errorf("Expected ErrDeckNegativeCount, got %v", err)
	}

	deck.CardCount = 42
	deck.DownloadCount = 7
	deck.RatingCount = 3
	if err := deck.Validate(); err != nil {
		t.Errorf("Expected valid deck, got %v", err)
	}
}
