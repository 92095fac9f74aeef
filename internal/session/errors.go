package session

import (
	"errors"
	"fmt"
)

// Common session errors.
var (
	// ErrUnknownSession is returned for any operation on a session that
	// has been cancelled or completed.
	ErrUnknownSession = errors.New("unknown or inactive review session")

	// ErrCardNotInSession is returned when a rating targets a card other
	// than the session's current card.
	ErrCardNotInSession = errors.New("card does not belong to the active session")

	// ErrDeckNotFound is returned when starting a session for a deck the
	// store does not hold.
	ErrDeckNotFound = errors.New("deck not found")

	// ErrNoCardsDue is returned when a session has nothing to review: no
	// due cards in normal mode, no cards at all in cram mode.
	ErrNoCardsDue = errors.New("no cards available for review")

	// ErrSessionActive is returned when a session for the same deck and
	// user is already running.
	ErrSessionActive = errors.New("a session for this deck is already active")
)

// ServiceError wraps session failures with the operation that produced
// them, supporting errors.Is/errors.As on the underlying sentinel.
type ServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error.
func (e *ServiceError) Unwrap() error {
	return e.Err
}
