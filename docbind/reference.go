package docbind

import (
	"context"
	"reflect"

	"github.com/arthur-debert/docbind/types"
)

// Ref points at one document of schema T. The zero value is unbound, which
// is a valid state for optional relations.
type Ref[T any] struct {
	db     *DB
	target types.DocRef
}

// RefTo returns a reference to the given document.
func RefTo[T any](db *DB, target types.DocRef) Ref[T] {
	return Ref[T]{db: db, target: target}
}

// IsBound reports whether the reference has a target.
func (r Ref[T]) IsBound() bool {
	return !r.target.IsZero()
}

// Target returns the referenced document and whether there is one.
func (r Ref[T]) Target() (types.DocRef, bool) {
	return r.target, !r.target.IsZero()
}

// ID returns the referenced document's identifier, or "" when unbound.
func (r Ref[T]) ID() string {
	if r.target.IsZero() {
		return ""
	}
	return r.target.ID()
}

// Bind points the reference at target. A reference bound this way has no
// DB until the entity holding it is saved or loaded; Get on it before then
// uses the default DB.
func (r *Ref[T]) Bind(target types.DocRef) {
	r.target = target
}

// Assign points the reference at a saved entity.
func (r *Ref[T]) Assign(e *T) error {
	holder, ok := any(e).(entityHolder)
	if !ok {
		return ErrUnregisteredSchema
	}
	ent := holder.entity()
	target, ok := ent.DocRef()
	if !ok {
		return ErrUnsavedEntity
	}
	r.target = target
	if ent.db != nil {
		r.db = ent.db
	}
	return nil
}

// Get fetches and materializes the referenced document.
func (r Ref[T]) Get(ctx context.Context) (*T, error) {
	if r.target.IsZero() {
		return nil, ErrUnboundReference
	}
	desc, err := descriptorFor[T]()
	if err != nil {
		return nil, err
	}
	db, err := resolve(r.db)
	if err != nil {
		return nil, err
	}

	snap, err := db.store.Get(ctx, r.target)
	if err != nil {
		return nil, opError(OpGetRef, r.target.Path, err)
	}
	v, err := materialize(db, desc, snap)
	if err != nil {
		return nil, err
	}
	return v.Interface().(*T), nil
}

func (Ref[T]) refTarget() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func (Ref[T]) withTarget(db *DB, target types.DocRef) reflect.Value {
	return reflect.ValueOf(Ref[T]{db: db, target: target})
}

func (r Ref[T]) storedRef() (types.DocRef, bool) {
	return r.Target()
}

func (r Ref[T]) hasDB() bool {
	return r.db != nil
}
