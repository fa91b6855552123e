package docbind_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/arthur-debert/docbind/docbind"
	"github.com/google/go-cmp/cmp"
)

func TestDescriptorClassifiesFields(t *testing.T) {
	desc, err := docbind.DescriptorOf(reflect.TypeOf(Book{}))
	if err != nil {
		t.Fatalf("DescriptorOf: %v", err)
	}

	want := []string{"title", "genre", "pages", "rating", "created", "tags", "author"}
	if diff := cmp.Diff(want, desc.Names()); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}

	tests := []struct {
		name   string
		kind   docbind.FieldKind
		target reflect.Type
	}{
		{"title", docbind.Scalar, nil},
		{"tags", docbind.Scalar, nil},
		{"author", docbind.Reference, reflect.TypeOf(Author{})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, ok := desc.Field(tt.name)
			if !ok {
				t.Fatalf("field %q not found", tt.name)
			}
			if f.Kind != tt.kind {
				t.Errorf("kind = %s, want %s", f.Kind, tt.kind)
			}
			if f.Target != tt.target {
				t.Errorf("target = %v, want %v", f.Target, tt.target)
			}
		})
	}

	genre, _ := desc.Field("genre")
	if !genre.HasDefault || genre.Default != "unsorted" {
		t.Errorf("genre default not parsed: %+v", genre)
	}
	rating, _ := desc.Field("rating")
	if !rating.OmitEmpty {
		t.Error("rating should be omitempty")
	}
}

func TestDescriptorNestedCollection(t *testing.T) {
	desc, err := docbind.DescriptorOf(reflect.TypeOf(Author{}))
	if err != nil {
		t.Fatal(err)
	}
	f, ok := desc.Field("awards")
	if !ok || f.Kind != docbind.NestedCollection || f.Target != reflect.TypeOf(Award{}) {
		t.Errorf("awards = %+v", f)
	}
}

func TestDescriptorIsCached(t *testing.T) {
	a, err := docbind.DescriptorOf(reflect.TypeOf(Author{}))
	if err != nil {
		t.Fatal(err)
	}
	b, _ := docbind.DescriptorOf(reflect.TypeOf(Author{}))
	if a != b {
		t.Error("descriptor rebuilt for the same type")
	}
}

type Timestamps struct {
	CreatedBy string `doc:"created_by"`
}

type withEmbedded struct {
	docbind.Entity
	Timestamps
	Name     string `doc:"name"`
	Untagged int
	Skipped  string `doc:"-"`
	private  string
}

func TestDescriptorEmbeddedAndTags(t *testing.T) {
	desc, err := docbind.DescriptorOf(reflect.TypeOf(withEmbedded{}))
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"created_by", "name", "Untagged"}
	if diff := cmp.Diff(want, desc.Names()); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
	f, _ := desc.Field("created_by")
	if diff := cmp.Diff([]int{1, 0}, f.Index); diff != "" {
		t.Errorf("embedded index mismatch (-want +got):\n%s", diff)
	}
}

type (
	noEntity struct {
		Name string
	}
	entityPointer struct {
		*docbind.Entity
	}
	refPointer struct {
		docbind.Entity
		Author *docbind.Ref[Author]
	}
	collectionValue struct {
		docbind.Entity
		Awards docbind.Collection[Award]
	}
	reservedName struct {
		docbind.Entity
		ID string `doc:"_id"`
	}
	duplicateName struct {
		docbind.Entity
		A string `doc:"x"`
		B string `doc:"x"`
	}
	defaultOnRef struct {
		docbind.Entity
		Author docbind.Ref[Author] `doc:"author,default=x"`
	}
	badDefault struct {
		docbind.Entity
		Pages int `doc:"pages,default=many"`
	}
	overflowDefault struct {
		docbind.Entity
		Level int8 `doc:"level,default=300"`
	}
	structField struct {
		docbind.Entity
		Meta struct{ A int } `doc:"meta"`
	}
	chanField struct {
		docbind.Entity
		C chan int
	}
)

func TestDescriptorRejectsInvalidSchemas(t *testing.T) {
	tests := []struct {
		name string
		typ  reflect.Type
	}{
		{"not a struct", reflect.TypeOf(0)},
		{"no entity", reflect.TypeOf(noEntity{})},
		{"entity pointer", reflect.TypeOf(entityPointer{})},
		{"ref pointer", reflect.TypeOf(refPointer{})},
		{"collection value", reflect.TypeOf(collectionValue{})},
		{"reserved name", reflect.TypeOf(reservedName{})},
		{"duplicate name", reflect.TypeOf(duplicateName{})},
		{"default on reference", reflect.TypeOf(defaultOnRef{})},
		{"bad default", reflect.TypeOf(badDefault{})},
		{"default overflows field", reflect.TypeOf(overflowDefault{})},
		{"struct field", reflect.TypeOf(structField{})},
		{"chan field", reflect.TypeOf(chanField{})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := docbind.DescriptorOf(tt.typ)
			if !errors.Is(err, docbind.ErrInvalidSchema) {
				t.Errorf("expected ErrInvalidSchema, got %v", err)
			}
		})
	}
}

func TestBindRejectsInvalidInput(t *testing.T) {
	db := emptyDB(t)
	if _, err := docbind.Bind[noEntity](db, "things"); !errors.Is(err, docbind.ErrInvalidSchema) {
		t.Errorf("invalid schema: got %v", err)
	}
	if _, err := docbind.Bind[Book](db, "books/b1"); err == nil {
		t.Error("expected error for document path")
	}

	defer func() {
		if recover() == nil {
			t.Error("NewCollection should panic on an invalid schema")
		}
	}()
	docbind.NewCollection[noEntity](db, "things")
}
