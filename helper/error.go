package helper

import (
	"errors"
	"fmt"
)

// Sentinel errors for the pipeline failure taxonomy. They are attached via
// fmt.Errorf("%w: ...") and checked with errors.Is, so callers can react to
// the category without parsing messages.
var (
	// ErrConfiguration marks invalid size/overlap/dimension settings.
	// Fatal, raised before any processing happens.
	ErrConfiguration = errors.New("invalid configuration")
	// ErrEmbedding marks an embedding backend failure for a whole batch.
	ErrEmbedding = errors.New("embedding failed")
	// ErrDimensionMismatch marks a vector dimension drift between the
	// index and a query or upsert. Fatal, indicates model/version drift.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	// ErrTimeout marks an embedding, index or generator call that exceeded
	// its deadline. Retried once with backoff before being surfaced.
	ErrTimeout = errors.New("operation timed out")
	// ErrGeneration marks an answer generator failure.
	ErrGeneration = errors.New("answer generation failed")
)

// Error wraps an underlying error with the operation that failed.
type Error struct {
	Operation string
	Err       error
}

// NewError creates a new wrapped error for the given operation
func NewError(operation string, err error) error {
	return &Error{Operation: operation, Err: err}
}

func (e *Error) Error() string {
	return fmt.Sprintf("error in %v: %v", e.Operation, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
