package docbind

import (
	"errors"
	"fmt"

	"github.com/arthur-debert/docbind/types"
)

var (
	// ErrNotFound reports a missing document on FindByID or Ref.Get. It is the
	// store's own sentinel so errors.Is works across layers.
	ErrNotFound = types.ErrNotFound

	// ErrInvalidQuery reports a query built with a misused builder call:
	// ordering on a non-scalar field, filtering on a sub-collection, a bad
	// operator or limit.
	ErrInvalidQuery = types.ErrInvalidQuery

	// ErrInvalidSchema reports a schema struct that cannot be classified.
	ErrInvalidSchema = errors.New("invalid schema")

	// ErrUnboundReference is returned by Ref.Get when no target is bound.
	ErrUnboundReference = errors.New("reference is not bound")

	// ErrUnsavedEntity is returned when an entity without identity is used
	// as a reference target.
	ErrUnsavedEntity = errors.New("entity has not been saved")

	// ErrUnregisteredSchema is returned when saving an entity that was not
	// created or loaded through a Collection.
	ErrUnregisteredSchema = errors.New("entity is not bound to a collection")

	// ErrNotInitialized is returned when the process-wide DB is needed before
	// Init was called.
	ErrNotInitialized = errors.New("docbind is not initialized")
)

// Operation names used in OpError.
const (
	OpQuery  = "query"
	OpFetch  = "fetch"
	OpSave   = "save"
	OpGetRef = "get-ref"
)

// OpError wraps a store failure with the operation that was in flight.
type OpError struct {
	Op   string // one of the Op* constants
	Path string // collection or document path
	Err  error
}

// Error implements the error interface
func (e *OpError) Error() string {
	return fmt.Sprintf("docbind: %s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error for error chain compatibility
func (e *OpError) Unwrap() error {
	return e.Err
}

func opError(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, Path: path, Err: err}
}
