package mongo

import (
	"fmt"

	"github.com/arthur-debert/docbind/types"
	"go.mongodb.org/mongo-driver/bson"
)

// buildFilter translates the filters, the ordered-field existence rule and
// the start-after cursor of q into one bson filter.
func buildFilter(q types.Query) (bson.D, error) {
	filter := bson.D{{Key: parentField, Value: parentOf(q.Collection)}}

	var conds bson.A
	for _, f := range q.Filters {
		c, err := filterCondition(f)
		if err != nil {
			return nil, err
		}
		conds = append(conds, c)
	}
	// documents without an ordered field are not part of the result
	for _, o := range q.Orders {
		conds = append(conds, bson.M{o.Field: bson.M{"$exists": true}})
	}
	if q.StartAfter != nil {
		conds = append(conds, startAfterCondition(q))
	}
	if len(conds) > 0 {
		filter = append(filter, bson.E{Key: "$and", Value: conds})
	}
	return filter, nil
}

func filterCondition(f types.Filter) (bson.M, error) {
	value := encodeValue(f.Value)

	var cond interface{}
	switch f.Op {
	case types.OpEqual:
		cond = bson.M{"$eq": value}
	case types.OpNotEqual:
		cond = bson.M{"$ne": value, "$exists": true}
	case types.OpLess:
		cond = bson.M{"$lt": value}
	case types.OpLessOrEqual:
		cond = bson.M{"$lte": value}
	case types.OpGreater:
		cond = bson.M{"$gt": value}
	case types.OpGreaterOrEqual:
		cond = bson.M{"$gte": value}
	case types.OpArrayContains:
		cond = bson.M{"$elemMatch": bson.M{"$eq": value}}
	case types.OpArrayContainsAny:
		list, err := listValue(f, value)
		if err != nil {
			return nil, err
		}
		cond = bson.M{"$elemMatch": bson.M{"$in": list}}
	case types.OpIn:
		list, err := listValue(f, value)
		if err != nil {
			return nil, err
		}
		cond = bson.M{"$in": list}
	case types.OpNotIn:
		list, err := listValue(f, value)
		if err != nil {
			return nil, err
		}
		cond = bson.M{"$nin": list, "$exists": true}
	default:
		return nil, fmt.Errorf("%w: unsupported operator %q", types.ErrInvalidQuery, f.Op)
	}
	return bson.M{f.Field: cond}, nil
}

func listValue(f types.Filter, encoded interface{}) (bson.A, error) {
	list, ok := encoded.(bson.A)
	if !ok {
		return nil, fmt.Errorf("%w: operator %q on %q needs a list value", types.ErrInvalidQuery, f.Op, f.Field)
	}
	return list, nil
}

// sortKeys pairs each order with its mongo direction, followed by the _id
// tie-break.
func sortKeys(q types.Query) []bson.E {
	keys := make([]bson.E, 0, len(q.Orders)+1)
	for _, o := range q.Orders {
		keys = append(keys, bson.E{Key: o.Field, Value: direction(o.Direction)})
	}
	return append(keys, bson.E{Key: idField, Value: direction(q.TieBreak())})
}

func direction(d types.Direction) int {
	if d == types.Desc {
		return -1
	}
	return 1
}

// buildSort returns the sort document of q, inverted when reversed is set.
func buildSort(q types.Query, reversed bool) bson.D {
	sortDoc := bson.D{}
	for _, k := range sortKeys(q) {
		dir := k.Value.(int)
		if reversed {
			dir = -dir
		}
		sortDoc = append(sortDoc, bson.E{Key: k.Key, Value: dir})
	}
	return sortDoc
}

// startAfterCondition matches documents strictly after the cursor in the
// query's sort order: equal on the first i keys and past the cursor on key i.
func startAfterCondition(q types.Query) bson.M {
	cursor := q.StartAfter
	keys := sortKeys(q)
	values := make([]interface{}, len(keys))
	for i, k := range keys {
		if k.Key == idField {
			values[i] = cursor.Ref.Path
		} else {
			values[i] = encodeValue(cursor.Data[k.Key])
		}
	}

	branches := make(bson.A, 0, len(keys))
	for i, k := range keys {
		branch := bson.M{}
		for j := 0; j < i; j++ {
			branch[keys[j].Key] = bson.M{"$eq": values[j]}
		}
		op := "$gt"
		if k.Value.(int) < 0 {
			op = "$lt"
		}
		branch[k.Key] = bson.M{op: values[i]}
		branches = append(branches, branch)
	}
	return bson.M{"$or": branches}
}
