package docbind

import (
	"context"
	"fmt"
	"reflect"

	"github.com/arthur-debert/docbind/internal/validation"
	"go.uber.org/zap"
)

// Entity is embedded in every schema struct. It carries the document
// identity and the binding needed to save the struct it is embedded in.
type Entity struct {
	ref        DocRef
	collection string
	db         *DB
	desc       *Descriptor
	self       reflect.Value // pointer to the owning struct
}

// entityHolder is satisfied by pointers to schema structs through the
// embedded Entity.
type entityHolder interface {
	entity() *Entity
}

func (e *Entity) entity() *Entity {
	return e
}

// ID returns the document identifier, or "" before the first save.
func (e *Entity) ID() string {
	if e.ref.IsZero() {
		return ""
	}
	return e.ref.ID()
}

// DocRef returns the document identity and whether there is one.
func (e *Entity) DocRef() (DocRef, bool) {
	return e.ref, !e.ref.IsZero()
}

// Path returns the full document path, or "" before the first save.
func (e *Entity) Path() string {
	return e.ref.Path
}

// IsSaved reports whether the entity has a document identity.
func (e *Entity) IsSaved() bool {
	return !e.ref.IsZero()
}

func (e *Entity) bind(db *DB, desc *Descriptor, self reflect.Value, collection string, ref DocRef) {
	e.db = db
	e.desc = desc
	e.self = self
	e.collection = collection
	e.ref = ref
}

func (e *Entity) bound() bool {
	return e.desc != nil && e.self.IsValid()
}

// owned reports whether the bound struct is the one embedding e. A struct
// copied by value carries its source's binding and fails this check.
func (e *Entity) owned() bool {
	if !e.bound() {
		return false
	}
	return e.self.Elem().FieldByIndex(e.desc.entityIndex).Addr().Interface().(*Entity) == e
}

// Save writes the entity. Entities with an identity are merged into the
// stored document; others are inserted and keep the generated identity, so
// saving again updates the same document. A struct copied by value must be
// saved through Collection.Save, which rebinds it.
func (e *Entity) Save(ctx context.Context) error {
	if !e.owned() {
		return ErrUnregisteredSchema
	}
	db, err := resolve(e.db)
	if err != nil {
		return err
	}

	data, err := flatten(e.desc, e.self.Elem())
	if err != nil {
		return err
	}
	e.adoptRefs(db)

	if !e.ref.IsZero() {
		if err := db.store.Set(ctx, e.ref, data, true); err != nil {
			return opError(OpSave, e.ref.Path, err)
		}
		db.logger.Debug("document updated", zap.String("path", e.ref.Path), zap.Int("fields", len(data)))
		return nil
	}

	ref, err := db.store.Add(ctx, e.collection, data)
	if err != nil {
		return opError(OpSave, e.collection, err)
	}
	e.ref = ref
	e.scopeCollections()
	db.logger.Debug("document inserted", zap.String("path", ref.Path), zap.Int("fields", len(data)))
	return nil
}

// adoptRefs gives bound references without a DB the DB the entity is
// saved through.
func (e *Entity) adoptRefs(db *DB) {
	v := e.self.Elem()
	for _, f := range e.desc.Fields {
		if f.Kind != Reference {
			continue
		}
		fv := v.FieldByIndex(f.Index)
		r := fv.Interface().(refField)
		if target, ok := r.storedRef(); ok && !r.hasDB() {
			fv.Set(r.withTarget(db, target))
		}
	}
}

// scopeCollections binds nil sub-collection fields under the entity's
// path once it has one.
func (e *Entity) scopeCollections() {
	v := e.self.Elem()
	for _, f := range e.desc.Fields {
		if f.Kind != NestedCollection {
			continue
		}
		fv := v.FieldByIndex(f.Index)
		if fv.IsNil() {
			fv.Set(fv.Interface().(subField).scoped(e.db, e.ref.Sub(f.Name)))
		}
	}
}

// flatten converts a schema value into storable data: scalars as-is, bound
// references as DocRef, sub-collections and unbound references left out.
func flatten(desc *Descriptor, v reflect.Value) (map[string]interface{}, error) {
	data := make(map[string]interface{}, len(desc.Fields))
	for _, f := range desc.Fields {
		fv := v.FieldByIndex(f.Index)
		switch f.Kind {
		case Scalar:
			if f.OmitEmpty && fv.IsZero() {
				continue
			}
			value := scalarValue(fv)
			if err := validation.ValidateValue(value, f.Name); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidSchema, err)
			}
			data[f.Name] = value
		case Reference:
			if ref, ok := fv.Interface().(refField).storedRef(); ok {
				data[f.Name] = ref
			}
		case NestedCollection:
			// addressed by path, nothing to store
		}
	}
	return data, nil
}

// scalarValue dereferences pointers so stored data never aliases the struct.
func scalarValue(fv reflect.Value) interface{} {
	for fv.Kind() == reflect.Ptr || fv.Kind() == reflect.Interface {
		if fv.IsNil() {
			return nil
		}
		fv = fv.Elem()
	}
	return fv.Interface()
}
