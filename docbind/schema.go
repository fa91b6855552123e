package docbind

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/arthur-debert/docbind/internal/validation"
)

// FieldKind classifies a schema field.
type FieldKind int

const (
	// Scalar fields are stored verbatim.
	Scalar FieldKind = iota
	// Reference fields are Ref[T] values stored as document pointers.
	Reference
	// NestedCollection fields are *Collection[T] handles scoped under the
	// owning document. They are never stored.
	NestedCollection
)

func (k FieldKind) String() string {
	switch k {
	case Scalar:
		return "scalar"
	case Reference:
		return "reference"
	case NestedCollection:
		return "collection"
	default:
		return "unknown"
	}
}

// Field describes one mapped struct field.
type Field struct {
	Name       string // stored field name
	GoName     string
	Index      []int
	Kind       FieldKind
	Target     reflect.Type // referenced or nested schema, nil for scalars
	OmitEmpty  bool
	Default    string
	HasDefault bool
}

// Descriptor is the classified shape of a schema struct. It is built once
// per type and never modified afterwards.
type Descriptor struct {
	Type        reflect.Type
	Fields      []Field
	byName      map[string]int
	entityIndex []int
}

// Field returns the descriptor entry stored under name.
func (d *Descriptor) Field(name string) (Field, bool) {
	if d == nil {
		return Field{}, false
	}
	i, ok := d.byName[name]
	if !ok {
		return Field{}, false
	}
	return d.Fields[i], true
}

// Names returns the stored field names in declaration order.
func (d *Descriptor) Names() []string {
	names := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		names[i] = f.Name
	}
	return names
}

// refField is implemented by Ref[T].
type refField interface {
	refTarget() reflect.Type
	withTarget(db *DB, target DocRef) reflect.Value
	storedRef() (DocRef, bool)
	hasDB() bool
}

// subField is implemented by *Collection[T].
type subField interface {
	subTarget() reflect.Type
	scoped(db *DB, path string) reflect.Value
}

// Defaulter lets a schema set default values on fresh instances before
// stored values are applied.
type Defaulter interface {
	SetDefaults()
}

var (
	entityType    = reflect.TypeOf(Entity{})
	refFieldType  = reflect.TypeOf((*refField)(nil)).Elem()
	subFieldType  = reflect.TypeOf((*subField)(nil)).Elem()
	defaulterType = reflect.TypeOf((*Defaulter)(nil)).Elem()
)

type descriptorEntry struct {
	desc *Descriptor
	err  error
}

var descriptors sync.Map // reflect.Type -> descriptorEntry

// DescriptorOf classifies the fields of schema type t. Results, including
// failures, are cached per type.
func DescriptorOf(t reflect.Type) (*Descriptor, error) {
	if cached, ok := descriptors.Load(t); ok {
		e := cached.(descriptorEntry)
		return e.desc, e.err
	}
	desc, err := classify(t)
	actual, _ := descriptors.LoadOrStore(t, descriptorEntry{desc: desc, err: err})
	e := actual.(descriptorEntry)
	return e.desc, e.err
}

func descriptorFor[T any]() (*Descriptor, error) {
	return DescriptorOf(reflect.TypeOf((*T)(nil)).Elem())
}

func classify(t reflect.Type) (*Descriptor, error) {
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: schema %s must be a struct", ErrInvalidSchema, t)
	}

	desc := &Descriptor{Type: t, byName: make(map[string]int)}
	if err := walkFields(t, nil, desc); err != nil {
		return nil, err
	}
	if desc.entityIndex == nil {
		return nil, fmt.Errorf("%w: schema %s must embed docbind.Entity", ErrInvalidSchema, t)
	}
	return desc, nil
}

func walkFields(t reflect.Type, prefix []int, desc *Descriptor) error {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		index := append(append([]int(nil), prefix...), i)

		if sf.Anonymous {
			switch {
			case sf.Type == entityType:
				if desc.entityIndex != nil {
					return fmt.Errorf("%w: schema %s embeds docbind.Entity more than once", ErrInvalidSchema, desc.Type)
				}
				desc.entityIndex = index
				continue
			case sf.Type == reflect.PointerTo(entityType):
				return fmt.Errorf("%w: schema %s must embed docbind.Entity by value", ErrInvalidSchema, desc.Type)
			case sf.Type.Kind() == reflect.Struct && sf.IsExported():
				if err := walkFields(sf.Type, index, desc); err != nil {
					return err
				}
				continue
			}
		}

		if !sf.IsExported() {
			continue
		}

		name, opts := parseTag(sf)
		if name == "-" {
			continue
		}
		if validation.IsReservedFieldName(name) {
			return fmt.Errorf("%w: field %s.%s uses reserved name %q", ErrInvalidSchema, desc.Type, sf.Name, name)
		}
		if _, dup := desc.byName[name]; dup {
			return fmt.Errorf("%w: schema %s maps %q twice", ErrInvalidSchema, desc.Type, name)
		}

		field := Field{Name: name, GoName: sf.Name, Index: index, Kind: Scalar}
		for _, opt := range opts {
			switch {
			case opt == "omitempty":
				field.OmitEmpty = true
			case strings.HasPrefix(opt, "default="):
				field.Default = strings.TrimPrefix(opt, "default=")
				field.HasDefault = true
			}
		}

		switch {
		case sf.Type.Kind() == reflect.Ptr && sf.Type.Elem().Implements(refFieldType):
			return fmt.Errorf("%w: field %s.%s must be a Ref value, not a pointer", ErrInvalidSchema, desc.Type, sf.Name)
		case sf.Type.Implements(refFieldType):
			field.Kind = Reference
			field.Target = reflect.Zero(sf.Type).Interface().(refField).refTarget()
		case sf.Type.Implements(subFieldType):
			field.Kind = NestedCollection
			field.Target = reflect.Zero(sf.Type).Interface().(subField).subTarget()
		case reflect.PointerTo(sf.Type).Implements(subFieldType):
			return fmt.Errorf("%w: field %s.%s must be a *Collection", ErrInvalidSchema, desc.Type, sf.Name)
		default:
			if err := validation.ValidateType(sf.Type, name); err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidSchema, err)
			}
		}

		if field.HasDefault {
			if field.Kind != Scalar {
				return fmt.Errorf("%w: field %s.%s: defaults only apply to scalar fields", ErrInvalidSchema, desc.Type, sf.Name)
			}
			scratch := reflect.New(sf.Type).Elem()
			if err := setFieldValue(scratch, field.Default); err != nil {
				return fmt.Errorf("%w: field %s.%s: bad default %q: %v", ErrInvalidSchema, desc.Type, sf.Name, field.Default, err)
			}
		}

		desc.byName[name] = len(desc.Fields)
		desc.Fields = append(desc.Fields, field)
	}
	return nil
}

// parseTag reads `doc:"name,opt,..."`. Untagged fields keep their Go name.
func parseTag(sf reflect.StructField) (string, []string) {
	tag, ok := sf.Tag.Lookup("doc")
	if !ok || tag == "" {
		return sf.Name, nil
	}
	parts := strings.Split(tag, ",")
	name := parts[0]
	if name == "" {
		name = sf.Name
	}
	return name, parts[1:]
}
