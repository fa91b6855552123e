package validation

import (
	"fmt"
	"reflect"
	"time"

	"github.com/arthur-debert/docbind/types"
)

var (
	timeType   = reflect.TypeOf(time.Time{})
	docRefType = reflect.TypeOf(types.DocRef{})
)

// ValidateType checks that values of type t can be written to a store under
// the given field name. Nested slices and string-keyed maps are allowed as
// long as their elements are storable.
func ValidateType(t reflect.Type, field string) error {
	switch t.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return nil
	case reflect.Interface:
		// checked per value at write time
		return nil
	case reflect.Ptr:
		return ValidateType(t.Elem(), field)
	case reflect.Slice, reflect.Array:
		if err := ValidateType(t.Elem(), field); err != nil {
			return fmt.Errorf("field '%s' has unstorable element type %s", field, t.Elem())
		}
		return nil
	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return fmt.Errorf("field '%s' must use string map keys, got %s", field, t.Key())
		}
		if err := ValidateType(t.Elem(), field); err != nil {
			return fmt.Errorf("field '%s' has unstorable map value type %s", field, t.Elem())
		}
		return nil
	case reflect.Struct:
		if t == timeType || t == docRefType {
			return nil
		}
		return fmt.Errorf("field '%s' cannot be a struct type, got %s", field, t)
	default:
		return fmt.Errorf("field '%s' must be a storable type (string, number, bool, time, reference, list or map), got %s", field, t)
	}
}

// ValidateValue checks a single value about to be written under field.
func ValidateValue(value interface{}, field string) error {
	if value == nil {
		return nil
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface:
		if v.IsNil() {
			return nil
		}
		return ValidateValue(v.Elem().Interface(), field)
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if err := ValidateValue(v.Index(i).Interface(), field); err != nil {
				return err
			}
		}
		return nil
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return fmt.Errorf("field '%s' must use string map keys, got %T", field, value)
		}
		iter := v.MapRange()
		for iter.Next() {
			if err := ValidateValue(iter.Value().Interface(), field); err != nil {
				return err
			}
		}
		return nil
	}
	return ValidateType(v.Type(), field)
}

// IsReservedFieldName reports names the stores use for their own bookkeeping.
func IsReservedFieldName(name string) bool {
	switch name {
	case "_id", "_parent", "__name__":
		return true
	}
	return false
}
