package store

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/arthur-debert/docbind/types"
)

// Stored values are kept in canonical form: nil, bool, int64, float64,
// string, time.Time, types.DocRef, []interface{} and map[string]interface{}.

var (
	timeType   = reflect.TypeOf(time.Time{})
	docRefType = reflect.TypeOf(types.DocRef{})
)

// canonical converts a Go value into its canonical stored form. Named types
// collapse to their underlying kind and containers are copied.
func canonical(v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	switch x := v.(type) {
	case types.DocRef:
		return x, nil
	case time.Time:
		return x, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return nil, nil
		}
		return canonical(rv.Elem().Interface())
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.String:
		return rv.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return float64(u), nil
		}
		return int64(u), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return nil, nil
		}
		out := make([]interface{}, rv.Len())
		for i := range out {
			c, err := canonical(rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			out[i] = c
		}
		return out, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("map keys must be strings, got %s", rv.Type().Key())
		}
		if rv.IsNil() {
			return nil, nil
		}
		out := make(map[string]interface{}, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			c, err := canonical(iter.Value().Interface())
			if err != nil {
				return nil, err
			}
			out[iter.Key().String()] = c
		}
		return out, nil
	case reflect.Struct:
		switch rv.Type() {
		case timeType:
			return rv.Interface().(time.Time), nil
		case docRefType:
			return rv.Interface().(types.DocRef), nil
		}
	}
	return nil, fmt.Errorf("unsupported value type %T", v)
}

func canonicalDoc(data map[string]interface{}) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		c, err := canonical(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		out[k] = c
	}
	return out, nil
}

// copyValue deep-copies a canonical value.
func copyValue(v interface{}) interface{} {
	switch x := v.(type) {
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, e := range x {
			out[i] = copyValue(e)
		}
		return out
	case map[string]interface{}:
		return copyDoc(x)
	default:
		return v
	}
}

func copyDoc(doc map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(doc))
	for k, v := range doc {
		out[k] = copyValue(v)
	}
	return out
}

// JSON tags for values plain JSON cannot tell apart from strings or maps.
const (
	refKey  = "$ref"
	timeKey = "$time"
)

// encodeValue turns a canonical value into a JSON-ready one.
func encodeValue(v interface{}) interface{} {
	switch x := v.(type) {
	case types.DocRef:
		return map[string]interface{}{refKey: x.Path}
	case time.Time:
		return map[string]interface{}{timeKey: x.Format(time.RFC3339Nano)}
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, e := range x {
			out[i] = encodeValue(e)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(x))
		for k, e := range x {
			out[k] = encodeValue(e)
		}
		return out
	default:
		return v
	}
}

// decodeValue reverses encodeValue on data read with json.Decoder.UseNumber.
func decodeValue(v interface{}) (interface{}, error) {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i, nil
		}
		return x.Float64()
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, e := range x {
			d, err := decodeValue(e)
			if err != nil {
				return nil, err
			}
			out[i] = d
		}
		return out, nil
	case map[string]interface{}:
		if len(x) == 1 {
			if path, ok := x[refKey].(string); ok {
				return types.DocRef{Path: path}, nil
			}
			if s, ok := x[timeKey].(string); ok {
				t, err := time.Parse(time.RFC3339Nano, s)
				if err != nil {
					return nil, fmt.Errorf("bad time %q: %w", s, err)
				}
				return t, nil
			}
		}
		out := make(map[string]interface{}, len(x))
		for k, e := range x {
			d, err := decodeValue(e)
			if err != nil {
				return nil, err
			}
			out[k] = d
		}
		return out, nil
	default:
		return v, nil
	}
}
