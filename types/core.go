package types

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned by a Store when no document exists at a path.
	ErrNotFound = errors.New("document not found")

	// ErrInvalidPath is returned for collection or document paths with the wrong
	// number of segments or empty segments.
	ErrInvalidPath = errors.New("invalid path")

	// ErrInvalidQuery is returned by a Store for queries it cannot execute.
	ErrInvalidQuery = errors.New("invalid query")
)

// DocRef points at exactly one document. It is also the value stored in a
// document field to represent a pointer to another document, which is how
// stores tell references apart from plain strings.
//
// Paths alternate collection and document segments: "users/u1" is a
// document in collection "users", "users/u1/books/b7" a document in the
// sub-collection "books" of "users/u1".
type DocRef struct {
	Path string
}

// NewDocRef builds a reference to document id inside collection.
func NewDocRef(collection, id string) DocRef {
	return DocRef{Path: collection + "/" + id}
}

// ParseDocRef validates a document path.
func ParseDocRef(path string) (DocRef, error) {
	if err := ValidateDocumentPath(path); err != nil {
		return DocRef{}, err
	}
	return DocRef{Path: path}, nil
}

// ID returns the last path segment.
func (r DocRef) ID() string {
	if i := strings.LastIndexByte(r.Path, '/'); i >= 0 {
		return r.Path[i+1:]
	}
	return r.Path
}

// Collection returns the path of the collection holding the document.
func (r DocRef) Collection() string {
	if i := strings.LastIndexByte(r.Path, '/'); i >= 0 {
		return r.Path[:i]
	}
	return ""
}

// Sub returns the path of the named sub-collection under this document.
func (r DocRef) Sub(name string) string {
	return r.Path + "/" + name
}

// IsZero reports whether the reference points nowhere.
func (r DocRef) IsZero() bool {
	return r.Path == ""
}

func (r DocRef) String() string {
	return r.Path
}

// ValidateCollectionPath checks that path has an odd number of non-empty segments.
func ValidateCollectionPath(path string) error {
	n, err := countSegments(path)
	if err != nil {
		return err
	}
	if n%2 != 1 {
		return fmt.Errorf("%w: %q is not a collection path", ErrInvalidPath, path)
	}
	return nil
}

// ValidateDocumentPath checks that path has an even number of non-empty segments.
func ValidateDocumentPath(path string) error {
	n, err := countSegments(path)
	if err != nil {
		return err
	}
	if n%2 != 0 {
		return fmt.Errorf("%w: %q is not a document path", ErrInvalidPath, path)
	}
	return nil
}

func countSegments(path string) (int, error) {
	if path == "" {
		return 0, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	parts := strings.Split(path, "/")
	for _, p := range parts {
		if p == "" {
			return 0, fmt.Errorf("%w: %q has an empty segment", ErrInvalidPath, path)
		}
	}
	return len(parts), nil
}

// Snapshot is a document as read from a store.
type Snapshot struct {
	Ref  DocRef
	Data map[string]interface{}
}

// ID returns the document identifier.
func (s Snapshot) ID() string {
	return s.Ref.ID()
}

// Value returns the stored value of a top-level field.
func (s Snapshot) Value(field string) (interface{}, bool) {
	v, ok := s.Data[field]
	return v, ok
}

// Store is the backing document store. Implementations must be safe for
// concurrent use.
type Store interface {
	// Add creates a document with a generated identifier.
	Add(ctx context.Context, collection string, data map[string]interface{}) (DocRef, error)

	// Set writes a document at ref. With merge, fields in data overwrite the
	// stored ones and the rest are kept; without it the document is replaced.
	Set(ctx context.Context, ref DocRef, data map[string]interface{}, merge bool) error

	// Get fetches one document. Missing documents return ErrNotFound.
	Get(ctx context.Context, ref DocRef) (Snapshot, error)

	// Query returns the documents of one collection matching q.
	Query(ctx context.Context, q Query) ([]Snapshot, error)

	// Close releases the store's resources.
	Close() error
}
