package types

import "fmt"

// Operator is a filter comparison understood by every Store.
type Operator string

const (
	OpEqual            Operator = "=="
	OpNotEqual         Operator = "!="
	OpLess             Operator = "<"
	OpLessOrEqual      Operator = "<="
	OpGreater          Operator = ">"
	OpGreaterOrEqual   Operator = ">="
	OpArrayContains    Operator = "array-contains"
	OpArrayContainsAny Operator = "array-contains-any"
	OpIn               Operator = "in"
	OpNotIn            Operator = "not-in"
)

// Operators lists the accepted filter operators.
var Operators = []Operator{
	OpEqual, OpNotEqual,
	OpLess, OpLessOrEqual, OpGreater, OpGreaterOrEqual,
	OpArrayContains, OpArrayContainsAny, OpIn, OpNotIn,
}

// Valid reports whether op is one of Operators.
func (op Operator) Valid() bool {
	for _, o := range Operators {
		if o == op {
			return true
		}
	}
	return false
}

// TakesList reports whether the operator expects a slice value.
func (op Operator) TakesList() bool {
	return op == OpIn || op == OpNotIn || op == OpArrayContainsAny
}

// Direction of an order clause.
type Direction int

const (
	Asc Direction = iota
	Desc
)

func (d Direction) String() string {
	if d == Desc {
		return "desc"
	}
	return "asc"
}

// ParseDirection accepts "asc" and "desc".
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "", "asc", "ASC":
		return Asc, nil
	case "desc", "DESC":
		return Desc, nil
	}
	return Asc, fmt.Errorf("unknown direction %q", s)
}

// Constraint is one of Filter, Order or Limit.
type Constraint interface {
	isConstraint()
}

// Filter keeps documents whose Field compares to Value with Op.
type Filter struct {
	Field string
	Op    Operator
	Value interface{}
}

// Order sorts results by Field.
type Order struct {
	Field     string
	Direction Direction
}

// Limit caps the number of results, taken from the end of the ordered
// results when FromEnd is set.
type Limit struct {
	N       int
	FromEnd bool
}

func (Filter) isConstraint() {}
func (Order) isConstraint()  {}
func (Limit) isConstraint()  {}

func (f Filter) String() string {
	return fmt.Sprintf("%s %s %v", f.Field, f.Op, f.Value)
}

func (o Order) String() string {
	return fmt.Sprintf("order by %s %s", o.Field, o.Direction)
}

func (l Limit) String() string {
	if l.FromEnd {
		return fmt.Sprintf("limit to last %d", l.N)
	}
	return fmt.Sprintf("limit %d", l.N)
}

// Query is the store-level form of a collection query.
//
// Filters are AND-ed. Results are ordered by Orders and then by document ID
// in the direction of the last order (ascending without orders). StartAfter,
// when set, keeps only documents strictly after that snapshot in this order.
type Query struct {
	Collection string
	Filters    []Filter
	Orders     []Order
	Limit      *Limit
	StartAfter *Snapshot
}

// Validate checks the parts of a query every store rejects.
func (q Query) Validate() error {
	if err := ValidateCollectionPath(q.Collection); err != nil {
		return err
	}
	for _, f := range q.Filters {
		if f.Field == "" {
			return fmt.Errorf("%w: filter without field", ErrInvalidQuery)
		}
		if !f.Op.Valid() {
			return fmt.Errorf("%w: unsupported operator %q", ErrInvalidQuery, f.Op)
		}
	}
	for _, o := range q.Orders {
		if o.Field == "" {
			return fmt.Errorf("%w: order without field", ErrInvalidQuery)
		}
	}
	if q.Limit != nil {
		if q.Limit.N <= 0 {
			return fmt.Errorf("%w: limit must be positive, got %d", ErrInvalidQuery, q.Limit.N)
		}
		if q.Limit.FromEnd && len(q.Orders) == 0 {
			return fmt.Errorf("%w: limit to last requires an order", ErrInvalidQuery)
		}
	}
	return nil
}

// TieBreak returns the direction applied to the implicit document ID order.
func (q Query) TieBreak() Direction {
	if len(q.Orders) == 0 {
		return Asc
	}
	return q.Orders[len(q.Orders)-1].Direction
}
