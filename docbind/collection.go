package docbind

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/arthur-debert/docbind/types"
	"go.uber.org/zap"
)

// Collection is a query over one collection path for schema T.
//
// Builder methods return a new Collection with a copy of the accumulated
// constraints, so handles derived from the same base never see each
// other's constraints. Each Collection value owns its pagination cursor.
// Next is not safe to call concurrently on the same value: the calls race
// on the cursor and may return the same page twice.
type Collection[T any] struct {
	db          *DB
	path        string
	desc        *Descriptor
	constraints []types.Constraint
	err         error

	mu     sync.Mutex
	cursor *types.Snapshot
}

// Bind creates a Collection for schema T at path. A nil db uses the
// process-wide DB set up by Init, resolved when the first store operation
// runs.
func Bind[T any](db *DB, path string) (*Collection[T], error) {
	desc, err := descriptorFor[T]()
	if err != nil {
		return nil, err
	}
	if err := types.ValidateCollectionPath(path); err != nil {
		return nil, err
	}
	return &Collection[T]{db: db, path: path, desc: desc}, nil
}

// NewCollection is like Bind but panics on an invalid schema or path. It is
// meant for package-level declarations.
func NewCollection[T any](db *DB, path string) *Collection[T] {
	c, err := Bind[T](db, path)
	if err != nil {
		panic(fmt.Sprintf("docbind: %v", err))
	}
	return c
}

// Path returns the collection path.
func (c *Collection[T]) Path() string {
	return c.path
}

// Descriptor returns the schema descriptor of T.
func (c *Collection[T]) Descriptor() *Descriptor {
	return c.desc
}

// Constraints returns a copy of the accumulated constraints.
func (c *Collection[T]) Constraints() []types.Constraint {
	return append([]types.Constraint(nil), c.constraints...)
}

// Err returns the first error recorded by a builder call. Terminal methods
// return it before contacting the store.
func (c *Collection[T]) Err() error {
	return c.err
}

// Reset clears the pagination cursor.
func (c *Collection[T]) Reset() {
	c.mu.Lock()
	c.cursor = nil
	c.mu.Unlock()
}

// derive copies c with extra constraints. The cursor is not carried over.
func (c *Collection[T]) derive(err error, add ...types.Constraint) *Collection[T] {
	next := &Collection[T]{
		db:          c.db,
		path:        c.path,
		desc:        c.desc,
		constraints: make([]types.Constraint, 0, len(c.constraints)+len(add)),
		err:         c.err,
	}
	next.constraints = append(next.constraints, c.constraints...)
	next.constraints = append(next.constraints, add...)
	if next.err == nil {
		next.err = err
	}
	return next
}

// Where returns a query with the filters of w added.
func (c *Collection[T]) Where(w Where) *Collection[T] {
	var add []types.Constraint
	for _, f := range w.filters() {
		checked, err := checkFilter(c.desc, f)
		if err != nil {
			return c.derive(err)
		}
		add = append(add, checked)
	}
	return c.derive(nil, add...)
}

// WhereField returns a query with one filter added.
func (c *Collection[T]) WhereField(field string, op types.Operator, value interface{}) *Collection[T] {
	checked, err := checkFilter(c.desc, types.Filter{Field: field, Op: op, Value: value})
	if err != nil {
		return c.derive(err)
	}
	return c.derive(nil, checked)
}

// OrderBy returns a query ordered by field. Only scalar fields can be ordered on.
func (c *Collection[T]) OrderBy(field string, dir types.Direction) *Collection[T] {
	o := types.Order{Field: field, Direction: dir}
	if err := checkOrder(c.desc, o); err != nil {
		return c.derive(err)
	}
	return c.derive(nil, o)
}

// Limit returns a query capped at the first n results, replacing any
// earlier limit.
func (c *Collection[T]) Limit(n int) *Collection[T] {
	return c.withLimit(types.Limit{N: n})
}

// LimitToLast returns a query capped at the last n results, replacing any
// earlier limit. The query must be ordered.
func (c *Collection[T]) LimitToLast(n int) *Collection[T] {
	return c.withLimit(types.Limit{N: n, FromEnd: true})
}

func (c *Collection[T]) withLimit(l types.Limit) *Collection[T] {
	var err error
	if l.N <= 0 {
		err = fmt.Errorf("%w: limit must be positive, got %d", ErrInvalidQuery, l.N)
	}
	next := c.derive(err)
	kept := next.constraints[:0]
	for _, existing := range next.constraints {
		if _, isLimit := existing.(types.Limit); !isLimit {
			kept = append(kept, existing)
		}
	}
	next.constraints = append(kept, l)
	return next
}

// FindMany runs the query and returns all matching entities. The cursor is
// moved to the last result, or cleared when there are none.
func (c *Collection[T]) FindMany(ctx context.Context) ([]*T, error) {
	results, last, err := c.run(ctx, nil)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.cursor = last
	c.mu.Unlock()
	return results, nil
}

// FindOne returns the first result, or nil when nothing matches.
func (c *Collection[T]) FindOne(ctx context.Context) (*T, error) {
	results, err := c.FindMany(ctx)
	if err != nil || len(results) == 0 {
		return nil, err
	}
	return results[0], nil
}

// Next returns the page after the cursor and advances it. Without a cursor
// it returns the first page. An empty page leaves the cursor in place.
func (c *Collection[T]) Next(ctx context.Context) ([]*T, error) {
	if c.hasLastLimit() {
		return nil, fmt.Errorf("%w: cannot page a limit-to-last query", ErrInvalidQuery)
	}

	c.mu.Lock()
	cursor := c.cursor
	c.mu.Unlock()

	results, last, err := c.run(ctx, cursor)
	if err != nil {
		return nil, err
	}
	if last != nil {
		c.mu.Lock()
		c.cursor = last
		c.mu.Unlock()
	}
	return results, nil
}

func (c *Collection[T]) hasLastLimit() bool {
	var last *types.Limit
	for _, con := range c.constraints {
		if l, ok := con.(types.Limit); ok {
			last = &l
		}
	}
	return last != nil && last.FromEnd
}

// FindByID fetches one document by identifier, ignoring all constraints.
// A missing document returns an error matching ErrNotFound.
func (c *Collection[T]) FindByID(ctx context.Context, id string) (*T, error) {
	if c.desc == nil {
		return nil, c.err
	}
	db, err := resolve(c.db)
	if err != nil {
		return nil, err
	}
	ref := types.NewDocRef(c.path, id)
	if err := types.ValidateDocumentPath(ref.Path); err != nil {
		return nil, err
	}

	snap, err := db.store.Get(ctx, ref)
	if err != nil {
		return nil, opError(OpFetch, ref.Path, err)
	}
	v, err := materialize(db, c.desc, snap)
	if err != nil {
		return nil, err
	}
	return v.Interface().(*T), nil
}

// New returns a fresh entity with defaults applied, bound to this
// collection so Save inserts it here.
func (c *Collection[T]) New() *T {
	ptr := newInstance(c.desc)
	c.attach(ptr)
	return ptr.Interface().(*T)
}

// Save binds e to this collection if it is not bound, or is a by-value
// copy of another entity, and saves it.
func (c *Collection[T]) Save(ctx context.Context, e *T) error {
	ent := any(e).(entityHolder).entity()
	if !ent.owned() {
		c.attach(reflect.ValueOf(e))
	}
	return ent.Save(ctx)
}

func (c *Collection[T]) attach(ptr reflect.Value) {
	ent := ptr.Elem().FieldByIndex(c.desc.entityIndex).Addr().Interface().(*Entity)
	ent.bind(c.db, c.desc, ptr, c.path, ent.ref)
}

// Doc returns a reference to document id in this collection.
func (c *Collection[T]) Doc(id string) Ref[T] {
	return Ref[T]{db: c.db, target: types.NewDocRef(c.path, id)}
}

func (c *Collection[T]) run(ctx context.Context, startAfter *types.Snapshot) ([]*T, *types.Snapshot, error) {
	if c.err != nil {
		return nil, nil, c.err
	}
	q, err := translate(c.path, c.constraints, startAfter)
	if err != nil {
		return nil, nil, err
	}
	db, err := resolve(c.db)
	if err != nil {
		return nil, nil, err
	}

	snaps, err := db.store.Query(ctx, q)
	if err != nil {
		return nil, nil, opError(OpQuery, c.path, err)
	}
	db.logger.Debug("query executed",
		zap.String("path", c.path),
		zap.Int("constraints", len(c.constraints)),
		zap.Bool("paged", startAfter != nil),
		zap.Int("results", len(snaps)))

	results := make([]*T, 0, len(snaps))
	for _, snap := range snaps {
		v, err := materialize(db, c.desc, snap)
		if err != nil {
			return nil, nil, err
		}
		results = append(results, v.Interface().(*T))
	}
	if len(snaps) == 0 {
		return results, nil, nil
	}
	last := snaps[len(snaps)-1]
	return results, &last, nil
}

// subTarget and scoped make *Collection[T] a sub-collection field type.
// Both are called on nil receivers.

func (*Collection[T]) subTarget() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func (*Collection[T]) scoped(db *DB, path string) reflect.Value {
	desc, err := descriptorFor[T]()
	c := &Collection[T]{db: db, path: path, desc: desc, err: err}
	return reflect.ValueOf(c)
}
