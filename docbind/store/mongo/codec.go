package mongo

import (
	"fmt"
	"reflect"
	"time"

	"github.com/arthur-debert/docbind/internal/validation"
	"github.com/arthur-debert/docbind/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DocRef values are stored as {$ref: <collection path>, $id: <id>}.
const (
	refKey = "$ref"
	refID  = "$id"
)

// storedDocument builds the mongo document for ref with its path keys.
func storedDocument(ref types.DocRef, data map[string]interface{}) (bson.M, error) {
	doc := bson.M{
		idField:     ref.Path,
		parentField: parentOf(ref.Collection()),
	}
	for name, value := range data {
		if validation.IsReservedFieldName(name) {
			return nil, fmt.Errorf("field name %q is reserved", name)
		}
		if err := validation.ValidateValue(value, name); err != nil {
			return nil, err
		}
		doc[name] = encodeValue(value)
	}
	return doc, nil
}

// encodeValue rewrites references, and containers holding them, into their
// stored form. Other values are left to the bson encoder.
func encodeValue(v interface{}) interface{} {
	switch x := v.(type) {
	case nil:
		return nil
	case types.DocRef:
		return bson.D{{Key: refKey, Value: x.Collection()}, {Key: refID, Value: x.ID()}}
	case *types.DocRef:
		if x == nil {
			return nil
		}
		return encodeValue(*x)
	case time.Time:
		return x
	case []interface{}:
		out := make(bson.A, len(x))
		for i, e := range x {
			out[i] = encodeValue(e)
		}
		return out
	case map[string]interface{}:
		out := make(bson.M, len(x))
		for k, e := range x {
			out[k] = encodeValue(e)
		}
		return out
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return nil
		}
		out := make(bson.A, rv.Len())
		for i := range out {
			out[i] = encodeValue(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		if rv.IsNil() {
			return nil
		}
		out := make(bson.M, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = encodeValue(iter.Value().Interface())
		}
		return out
	case reflect.Ptr:
		if rv.IsNil() {
			return nil
		}
		return encodeValue(rv.Elem().Interface())
	}
	return v
}

// decodeValue turns a value read from mongo into the forms the rest of the
// module expects: int64 integers, time.Time, DocRef, []interface{} and
// map[string]interface{}.
func decodeValue(v interface{}) interface{} {
	switch x := v.(type) {
	case int32:
		return int64(x)
	case primitive.DateTime:
		return x.Time().UTC()
	case primitive.A:
		return decodeList(x)
	case []interface{}:
		return decodeList(x)
	case primitive.D:
		return decodeMap(x.Map())
	case primitive.M:
		return decodeMap(x)
	case map[string]interface{}:
		return decodeMap(x)
	}
	return v
}

func decodeList(list []interface{}) []interface{} {
	out := make([]interface{}, len(list))
	for i, e := range list {
		out[i] = decodeValue(e)
	}
	return out
}

func decodeMap(m map[string]interface{}) interface{} {
	if len(m) == 2 {
		coll, okColl := m[refKey].(string)
		id, okID := m[refID].(string)
		if okColl && okID {
			return types.NewDocRef(coll, id)
		}
	}
	out := make(map[string]interface{}, len(m))
	for k, e := range m {
		out[k] = decodeValue(e)
	}
	return out
}

// snapshotOf strips the path keys from a raw document.
func snapshotOf(raw bson.M) (types.Snapshot, error) {
	path, ok := raw[idField].(string)
	if !ok {
		return types.Snapshot{}, fmt.Errorf("mongo store: document without a string _id: %v", raw[idField])
	}
	data := make(map[string]interface{}, len(raw))
	for k, v := range raw {
		if k == idField || k == parentField {
			continue
		}
		data[k] = decodeValue(v)
	}
	return types.Snapshot{Ref: types.DocRef{Path: path}, Data: data}, nil
}
