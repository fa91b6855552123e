package docbind_test

import (
	"testing"
	"time"

	"github.com/arthur-debert/docbind/docbind"
	"github.com/arthur-debert/docbind/docbind/store"
	"github.com/arthur-debert/docbind/docbind/testutil"
)

type Author struct {
	docbind.Entity
	Name   string                     `doc:"name"`
	Born   int                        `doc:"born"`
	Awards *docbind.Collection[Award] `doc:"awards"`
}

type Award struct {
	docbind.Entity
	Name string `doc:"name"`
	Year int    `doc:"year"`
}

type Book struct {
	docbind.Entity
	Title   string              `doc:"title"`
	Genre   string              `doc:"genre,default=unsorted"`
	Pages   int                 `doc:"pages"`
	Rating  *float64            `doc:"rating,omitempty"`
	Created time.Time           `doc:"created"`
	Tags    []string            `doc:"tags"`
	Author  docbind.Ref[Author] `doc:"author"`
}

// library opens a DB over the seeded library fixture.
func library(t *testing.T) (*docbind.DB, *testutil.LibraryData) {
	t.Helper()
	s, lib := testutil.NewLibrary(t)
	db := docbind.Open(s)
	t.Cleanup(func() { _ = db.Close() })
	return db, lib
}

// emptyDB opens a DB over an empty memory store.
func emptyDB(t *testing.T) *docbind.DB {
	t.Helper()
	db := docbind.Open(store.New())
	t.Cleanup(func() { _ = db.Close() })
	return db
}
