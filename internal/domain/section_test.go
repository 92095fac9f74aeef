package domain

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestNewSection(t *testing.T) {
	t.Parallel()
	deckID := uuid.New()

	t.Run("valid section", func(t *testing.T) {
		section, err := NewSection(deckID, "Chapter 1", 0)
		if err != nil {
			t.Fatalf("NewSection failed: %v", err)
		}
		if section.ID == uuid.Nil {
			t.Error("Expected a generated section ID")
		}
		if section.EntityParent() != deckID {
			t.Errorf("Expected entity parent %v, got %v", deckID, section.EntityParent())
		}
	})

	t.Run("missing deck ID", func(t *testing.T) {
		_, err := NewSection(uuid.Nil, "Chapter 1", 0)
		if !errors.Is(err, ErrSectionDeckIDEmpty) {
			t.Errorf("Expected ErrSectionDeckIDEmpty, got %v", err)
		}
	})

	t.Run("empty name", func(t *testing.T) {
		_, err := NewSection(deckID, "", 0)
		if !errors.Is(err, ErrSectionNameEmpty) {
			t.Errorf("Expected ErrSectionNameEmpty, got %v", err)
		}
	})

	t.Run("negative position", func(t *testing.T) {
		_, err := NewSection(deckID, "Chapter 1", -1)
		if !errors.Is(err, ErrSectionNegativePosition) {
			t.Errorf("Expected ErrSectionNegativePosition, got %v", err)
		}
	})
}
