package docbind

import (
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/arthur-debert/docbind/types"
	"github.com/go-viper/mapstructure/v2"
	"go.uber.org/zap"
)

// newInstance allocates a schema value with tag defaults applied and
// SetDefaults called. It returns a pointer.
func newInstance(desc *Descriptor) reflect.Value {
	ptr := reflect.New(desc.Type)
	elem := ptr.Elem()
	for _, f := range desc.Fields {
		if !f.HasDefault {
			continue
		}
		// validated during classification
		_ = setFieldValue(elem.FieldByIndex(f.Index), f.Default)
	}
	if ptr.Type().Implements(defaulterType) {
		ptr.Interface().(Defaulter).SetDefaults()
	}
	return ptr
}

// materialize builds a live entity from a stored document. The descriptor
// decides the shape: stored fields it does not declare are dropped, and
// declared fields missing from the document keep their defaults.
func materialize(db *DB, desc *Descriptor, snap types.Snapshot) (reflect.Value, error) {
	ptr := newInstance(desc)
	elem := ptr.Elem()

	for _, f := range desc.Fields {
		fv := elem.FieldByIndex(f.Index)
		raw, present := snap.Data[f.Name]

		switch f.Kind {
		case Scalar:
			if !present {
				continue
			}
			if err := assignScalar(fv, raw); err != nil {
				return reflect.Value{}, fmt.Errorf("%s: field %q: %w", snap.Ref.Path, f.Name, err)
			}
		case Reference:
			target, ok := raw.(types.DocRef)
			if !ok {
				if present && raw != nil {
					db.logger.Debug("stored value is not a reference, leaving unbound",
						zap.String("path", snap.Ref.Path),
						zap.String("field", f.Name),
						zap.String("type", fmt.Sprintf("%T", raw)))
				}
				continue
			}
			fv.Set(fv.Interface().(refField).withTarget(db, target))
		case NestedCollection:
			fv.Set(reflect.Zero(fv.Type()).Interface().(subField).scoped(db, snap.Ref.Sub(f.Name)))
		}
	}

	if dropped := len(snap.Data) - countDeclared(desc, snap.Data); dropped > 0 {
		db.logger.Debug("dropped undeclared fields",
			zap.String("path", snap.Ref.Path),
			zap.Int("count", dropped))
	}

	ent := elem.FieldByIndex(desc.entityIndex).Addr().Interface().(*Entity)
	ent.bind(db, desc, ptr, snap.Ref.Collection(), snap.Ref)
	return ptr, nil
}

func countDeclared(desc *Descriptor, data map[string]interface{}) int {
	n := 0
	for name := range data {
		if _, ok := desc.byName[name]; ok {
			n++
		}
	}
	return n
}

// assignScalar stores raw into field, converting between the store's value
// types and the field's Go type where needed.
func assignScalar(field reflect.Value, raw interface{}) error {
	if raw == nil {
		field.Set(reflect.Zero(field.Type()))
		return nil
	}

	rv := reflect.ValueOf(copyValue(raw))
	if rv.Type().AssignableTo(field.Type()) {
		field.Set(rv)
		return nil
	}
	if field.Kind() == reflect.Ptr {
		elem := reflect.New(field.Type().Elem())
		if err := assignScalar(elem.Elem(), raw); err != nil {
			return err
		}
		field.Set(elem)
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result: field.Addr().Interface(),
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeHookFunc(time.RFC3339Nano),
			mapstructure.StringToTimeDurationHookFunc(),
		),
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(raw); err != nil {
		return fmt.Errorf("cannot convert %T to %s: %w", raw, field.Type(), err)
	}
	return nil
}

// copyValue deep-copies the slices and maps a snapshot holds so entities
// never share containers with cached snapshots.
func copyValue(raw interface{}) interface{} {
	switch v := raw.(type) {
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = copyValue(item)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, item := range v {
			out[k] = copyValue(item)
		}
		return out
	case []string:
		return append([]string(nil), v...)
	default:
		return raw
	}
}

// setFieldValue sets a field value from a string
func setFieldValue(field reflect.Value, value string) error {
	if field.Kind() == reflect.Ptr {
		elem := reflect.New(field.Type().Elem())
		if err := setFieldValue(elem.Elem(), value); err != nil {
			return err
		}
		field.Set(elem)
		return nil
	}

	if field.Type() == reflect.TypeOf(time.Time{}) {
		t, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return err
		}
		field.Set(reflect.ValueOf(t))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := strconv.ParseInt(value, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(value, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetUint(u)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetFloat(f)
	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}
	return nil
}
