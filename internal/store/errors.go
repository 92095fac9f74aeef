package store

import (
	"errors"
	"fmt"
)

// Common store errors.
var (
	// ErrNotFound is returned when a requested entity does not exist in
	// the store, or exists only as a tombstone.
	ErrNotFound = errors.New("entity not found")

	// ErrParentMissing is returned when an upsert references a parent
	// entity that is not (yet) present. Callers that consume ordered
	// change feeds are expected to buffer the event and retry once the
	// parent arrives.
	ErrParentMissing = errors.New("parent entity not resolved")

	// ErrUnknownCollection is returned when an operation names a
	// collection the store does not manage.
	ErrUnknownCollection = errors.New("unknown collection")

	// ErrNilEntity is returned when an upsert carries no payload.
	ErrNilEntity = errors.New("entity cannot be nil")
)

// StoreError wraps store failures with the collection and operation that
// produced them, so callers can log precise diagnostics while still
// matching the underlying sentinel with errors.Is.
type StoreError struct {
	Collection Collection
	Operation  string
	Err        error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return fmt.Sprintf("%s operation on %q failed: %v", e.Operation, e.Collection, e.Err)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *StoreError) Unwrap() error {
	return e.Err
}

func newStoreError(collection Collection, operation string, err error) *StoreError {
	return &StoreError{
		Collection: collection,
		Operation:  operation,
		Err:        err,
	}
}
