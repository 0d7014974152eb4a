package store

import (
	"errors"
	"fmt"
)

// Error taxonomy. Callers match with errors.Is; engines wrap backend
// failures in OpError so the failing engine and operation stay visible.
var (
	// ErrInvalidInput is returned when caller input is missing required
	// pieces (empty collection name, empty document data, bad identifier).
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound is returned when a requested document id does not exist
	// in the target collection.
	ErrNotFound = errors.New("document not found")

	// ErrBackendUnavailable is returned when a configured backend cannot
	// be reached. During engine selection it is recovered by falling
	// through to the next engine in priority order.
	ErrBackendUnavailable = errors.New("backend unavailable")
)

// OpError wraps a backend failure with the engine and operation it
// happened in.
type OpError struct {
	Engine string
	Op     string
	Err    error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Engine, e.Op, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

func opErr(engine, op string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Engine: engine, Op: op, Err: err}
}
