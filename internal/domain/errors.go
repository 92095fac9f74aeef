package domain

import "errors"

// Common domain errors used across the engine.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or missing.
	ErrInvalidID = errors.New("invalid ID")

	// ErrInvalidRating is returned when a performance rating is outside
	// the known scale, or when a review is submitted with a timestamp
	// earlier than the schedule's last recorded review.
	ErrInvalidRating = errors.New("invalid rating")

	// ErrEmptyContent is returned when required content is empty.
	ErrEmptyContent = errors.New("content cannot be empty")
)
