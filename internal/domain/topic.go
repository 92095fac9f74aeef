package domain

import (
	"errors"

	"github.com/google/uuid"
)

// Topic-specific validation errors
var (
	// ErrTopicIDEmpty is returned when a topic ID is empty or nil.
	ErrTopicIDEmpty = errors.New("topic ID cannot be empty")

	// ErrTopicNameEmpty is returned when a topic's name is empty.
	ErrTopicNameEmpty = errors.New("topic name cannot be empty")
)

// Topic is a browse/search category a deck can be tagged with.
type Topic struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// NewTopic creates a new Topic with the given name.
func NewTopic(name string) (*Topic, error) {
	topic := &Topic{
		ID:   uuid.New(),
		Name: name,
	}

	if err := topic.Validate(); err != nil {
		return nil, err
	}

	return topic, nil
}

// Validate checks if the Topic has valid data.
func (t *Topic) Validate() error {
	if t.ID == uuid.Nil {
		return ErrTopicIDEmpty
	}

	if t.Name == "" {
		return ErrTopicNameEmpty
	}

	return nil
}

// EntityID implements Entity.
func (t *Topic) EntityID() uuid.UUID { return t.ID }

// EntityParent implements Entity. Topics are root entities.
func (t *Topic) EntityParent() uuid.UUID { return uuid.Nil }
