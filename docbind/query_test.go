package docbind

import (
	"errors"
	"testing"

	"github.com/arthur-debert/docbind/types"
	"github.com/google/go-cmp/cmp"
)

func TestWhereFiltersAreSorted(t *testing.T) {
	w := Where{
		"title":   {"==": "A"},
		"created": {"<": 10, ">=": 1},
	}
	want := []types.Filter{
		{Field: "created", Op: types.OpLess, Value: 10},
		{Field: "created", Op: types.OpGreaterOrEqual, Value: 1},
		{Field: "title", Op: types.OpEqual, Value: "A"},
	}
	if diff := cmp.Diff(want, w.filters()); diff != "" {
		t.Errorf("filters mismatch (-want +got):\n%s", diff)
	}
}

func TestTranslate(t *testing.T) {
	cursor := &types.Snapshot{Ref: types.NewDocRef("books", "b1")}
	constraints := []types.Constraint{
		types.Filter{Field: "genre", Op: types.OpEqual, Value: "scifi"},
		types.Order{Field: "created", Direction: types.Desc},
		types.Limit{N: 5},
		types.Order{Field: "title", Direction: types.Asc},
		types.Limit{N: 2, FromEnd: true},
	}
	q, err := translate("books", constraints, cursor)
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	want := types.Query{
		Collection: "books",
		Filters:    []types.Filter{{Field: "genre", Op: types.OpEqual, Value: "scifi"}},
		Orders: []types.Order{
			{Field: "created", Direction: types.Desc},
			{Field: "title", Direction: types.Asc},
		},
		Limit:      &types.Limit{N: 2, FromEnd: true},
		StartAfter: cursor,
	}
	if diff := cmp.Diff(want, q); diff != "" {
		t.Errorf("query mismatch (-want +got):\n%s", diff)
	}
}

func TestTranslateValidates(t *testing.T) {
	_, err := translate("books/b1", nil, nil)
	if !errors.Is(err, types.ErrInvalidPath) {
		t.Errorf("document path: got %v", err)
	}
}

func TestCheckFilterConvertsLists(t *testing.T) {
	f, err := checkFilter(nil, types.Filter{Field: "n", Op: types.OpIn, Value: []int{1, 2}})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]interface{}{1, 2}, f.Value); diff != "" {
		t.Errorf("list mismatch (-want +got):\n%s", diff)
	}

	ref := RefTo[struct{ Entity }](nil, types.NewDocRef("authors", "a1"))
	f, err = checkFilter(nil, types.Filter{Field: "author", Op: types.OpIn, Value: []interface{}{ref}})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]interface{}{types.NewDocRef("authors", "a1")}, f.Value); diff != "" {
		t.Errorf("reference list mismatch (-want +got):\n%s", diff)
	}
}

func TestCheckOrderDirection(t *testing.T) {
	if err := checkOrder(nil, types.Order{Field: "x", Direction: types.Direction(7)}); !errors.Is(err, ErrInvalidQuery) {
		t.Errorf("bad direction: got %v", err)
	}
	if err := checkOrder(nil, types.Order{Field: "x", Direction: types.Asc}); err != nil {
		t.Errorf("undeclared scalar order: %v", err)
	}
}
