package store

import (
	"sort"
	"strings"
	"time"

	"github.com/arthur-debert/docbind/types"
)

// Type classes, in the order mixed values sort in.
const (
	rankNull = iota
	rankBool
	rankNumber
	rankTime
	rankString
	rankRef
	rankArray
	rankMap
)

func rank(v interface{}) int {
	switch v.(type) {
	case nil:
		return rankNull
	case bool:
		return rankBool
	case int64, float64:
		return rankNumber
	case time.Time:
		return rankTime
	case string:
		return rankString
	case types.DocRef:
		return rankRef
	case []interface{}:
		return rankArray
	default:
		return rankMap
	}
}

// compareValues orders two canonical values. Values of different classes
// order by class.
func compareValues(a, b interface{}) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return cmpInt(ra, rb)
	}

	switch x := a.(type) {
	case nil:
		return 0
	case bool:
		y := b.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		default:
			return 1
		}
	case int64:
		if y, ok := b.(int64); ok {
			return cmpInt64(x, y)
		}
		return cmpFloat(float64(x), b.(float64))
	case float64:
		if y, ok := b.(int64); ok {
			return cmpFloat(x, float64(y))
		}
		return cmpFloat(x, b.(float64))
	case time.Time:
		y := b.(time.Time)
		switch {
		case x.Before(y):
			return -1
		case x.After(y):
			return 1
		}
		return 0
	case string:
		return strings.Compare(x, b.(string))
	case types.DocRef:
		return strings.Compare(x.Path, b.(types.DocRef).Path)
	case []interface{}:
		y := b.([]interface{})
		for i := 0; i < len(x) && i < len(y); i++ {
			if c := compareValues(x[i], y[i]); c != 0 {
				return c
			}
		}
		return cmpInt(len(x), len(y))
	case map[string]interface{}:
		y := b.(map[string]interface{})
		kx, ky := sortedKeys(x), sortedKeys(y)
		for i := 0; i < len(kx) && i < len(ky); i++ {
			if c := strings.Compare(kx[i], ky[i]); c != 0 {
				return c
			}
			if c := compareValues(x[kx[i]], y[ky[i]]); c != 0 {
				return c
			}
		}
		return cmpInt(len(kx), len(ky))
	}
	return 0
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func equalValues(a, b interface{}) bool {
	return rank(a) == rank(b) && compareValues(a, b) == 0
}

func containsValue(list []interface{}, v interface{}) bool {
	for _, e := range list {
		if equalValues(e, v) {
			return true
		}
	}
	return false
}

// matchFilter reports whether doc satisfies f. Documents without the field
// never match, and range comparisons only match values of the same class.
func matchFilter(doc map[string]interface{}, f types.Filter) bool {
	v, ok := doc[f.Field]
	if !ok {
		return false
	}

	switch f.Op {
	case types.OpEqual:
		return equalValues(v, f.Value)
	case types.OpNotEqual:
		return !equalValues(v, f.Value)
	case types.OpLess, types.OpLessOrEqual, types.OpGreater, types.OpGreaterOrEqual:
		if rank(v) != rank(f.Value) {
			return false
		}
		c := compareValues(v, f.Value)
		switch f.Op {
		case types.OpLess:
			return c < 0
		case types.OpLessOrEqual:
			return c <= 0
		case types.OpGreater:
			return c > 0
		default:
			return c >= 0
		}
	case types.OpArrayContains:
		arr, ok := v.([]interface{})
		return ok && containsValue(arr, f.Value)
	case types.OpArrayContainsAny:
		arr, ok := v.([]interface{})
		if !ok {
			return false
		}
		for _, want := range listOf(f.Value) {
			if containsValue(arr, want) {
				return true
			}
		}
		return false
	case types.OpIn:
		return containsValue(listOf(f.Value), v)
	case types.OpNotIn:
		return !containsValue(listOf(f.Value), v)
	}
	return false
}

func listOf(v interface{}) []interface{} {
	list, _ := v.([]interface{})
	return list
}

// entry is a stored document during query evaluation.
type entry struct {
	id   string
	data map[string]interface{}
}

// orderKey compares two entries in the query's total order: the order
// fields, then the document ID in the tie-break direction.
func orderKey(q types.Query, aID string, a map[string]interface{}, bID string, b map[string]interface{}) int {
	for _, o := range q.Orders {
		c := compareValues(a[o.Field], b[o.Field])
		if o.Direction == types.Desc {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	c := strings.Compare(aID, bID)
	if q.TieBreak() == types.Desc {
		c = -c
	}
	return c
}

// evaluate applies q to the documents of one collection.
func evaluate(q types.Query, docs map[string]map[string]interface{}) []entry {
	matched := make([]entry, 0, len(docs))
next:
	for id, data := range docs {
		for _, f := range q.Filters {
			if !matchFilter(data, f) {
				continue next
			}
		}
		for _, o := range q.Orders {
			if _, ok := data[o.Field]; !ok {
				continue next
			}
		}
		matched = append(matched, entry{id: id, data: data})
	}

	sort.Slice(matched, func(i, j int) bool {
		return orderKey(q, matched[i].id, matched[i].data, matched[j].id, matched[j].data) < 0
	})

	if q.StartAfter != nil {
		cursorID := q.StartAfter.Ref.ID()
		start := sort.Search(len(matched), func(i int) bool {
			return orderKey(q, matched[i].id, matched[i].data, cursorID, q.StartAfter.Data) > 0
		})
		matched = matched[start:]
	}

	if q.Limit != nil && len(matched) > q.Limit.N {
		if q.Limit.FromEnd {
			matched = matched[len(matched)-q.Limit.N:]
		} else {
			matched = matched[:q.Limit.N]
		}
	}
	return matched
}
