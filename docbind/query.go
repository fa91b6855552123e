package docbind

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/arthur-debert/docbind/types"
)

// Cmp maps operators to the value a field is compared against.
type Cmp map[types.Operator]interface{}

// Where is a declarative filter: field name -> operator -> value.
//
//	docbind.Where{
//	    "title":   {"==": "A"},
//	    "created": {">=": since, "<": until},
//	}
//
// All entries are AND-ed. Fields and operators are applied in sorted order
// so the same map always yields the same constraints.
type Where map[string]Cmp

// filters expands w into Filter constraints.
func (w Where) filters() []types.Filter {
	fields := make([]string, 0, len(w))
	for field := range w {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var out []types.Filter
	for _, field := range fields {
		cmp := w[field]
		ops := make([]string, 0, len(cmp))
		for op := range cmp {
			ops = append(ops, string(op))
		}
		sort.Strings(ops)
		for _, op := range ops {
			out = append(out, types.Filter{
				Field: field,
				Op:    types.Operator(op),
				Value: cmp[types.Operator(op)],
			})
		}
	}
	return out
}

// checkFilter validates a filter against the schema and converts reference
// values (Ref[T], saved entities) into DocRef.
func checkFilter(desc *Descriptor, f types.Filter) (types.Filter, error) {
	if f.Field == "" {
		return f, fmt.Errorf("%w: filter without field", ErrInvalidQuery)
	}
	if !f.Op.Valid() {
		return f, fmt.Errorf("%w: unsupported operator %q on %q", ErrInvalidQuery, f.Op, f.Field)
	}
	if field, ok := desc.Field(f.Field); ok && field.Kind == NestedCollection {
		return f, fmt.Errorf("%w: cannot filter on sub-collection %q", ErrInvalidQuery, f.Field)
	}

	if f.Op.TakesList() {
		rv := reflect.ValueOf(f.Value)
		if f.Value == nil || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
			return f, fmt.Errorf("%w: operator %q on %q needs a list, got %T", ErrInvalidQuery, f.Op, f.Field, f.Value)
		}
		list := make([]interface{}, rv.Len())
		for i := range list {
			v, err := filterValue(rv.Index(i).Interface())
			if err != nil {
				return f, fmt.Errorf("%w: %q: %w", ErrInvalidQuery, f.Field, err)
			}
			list[i] = v
		}
		f.Value = list
		return f, nil
	}

	v, err := filterValue(f.Value)
	if err != nil {
		return f, fmt.Errorf("%w: %q: %w", ErrInvalidQuery, f.Field, err)
	}
	f.Value = v
	return f, nil
}

func filterValue(v interface{}) (interface{}, error) {
	switch x := v.(type) {
	case refField:
		ref, ok := x.storedRef()
		if !ok {
			return nil, ErrUnboundReference
		}
		return ref, nil
	case entityHolder:
		ref, ok := x.entity().DocRef()
		if !ok {
			return nil, ErrUnsavedEntity
		}
		return ref, nil
	}
	return v, nil
}

func checkOrder(desc *Descriptor, o types.Order) error {
	if o.Field == "" {
		return fmt.Errorf("%w: order without field", ErrInvalidQuery)
	}
	if o.Direction != types.Asc && o.Direction != types.Desc {
		return fmt.Errorf("%w: unknown direction %d", ErrInvalidQuery, o.Direction)
	}
	if field, ok := desc.Field(o.Field); ok && field.Kind != Scalar {
		return fmt.Errorf("%w: cannot order on %s field %q", ErrInvalidQuery, field.Kind, o.Field)
	}
	return nil
}

// translate turns accumulated constraints into a store query. The last
// Limit wins.
func translate(path string, constraints []types.Constraint, startAfter *types.Snapshot) (types.Query, error) {
	q := types.Query{Collection: path, StartAfter: startAfter}
	for _, c := range constraints {
		switch v := c.(type) {
		case types.Filter:
			q.Filters = append(q.Filters, v)
		case types.Order:
			q.Orders = append(q.Orders, v)
		case types.Limit:
			limit := v
			q.Limit = &limit
		default:
			return q, fmt.Errorf("%w: unknown constraint %T", ErrInvalidQuery, c)
		}
	}
	if err := q.Validate(); err != nil {
		return q, err
	}
	return q, nil
}
