// Package testutil seeds stores with a small library of authors and books
// and provides assertions for tests that query them.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/arthur-debert/docbind/docbind/store"
	"github.com/arthur-debert/docbind/types"
)

// Collection paths of the library fixture.
const (
	Authors = "authors"
	Books   = "books"
)

// LibraryData gives typed access to the seeded documents.
type LibraryData struct {
	// Authors
	Herbert types.DocRef // "authors/herbert"
	Austen  types.DocRef // "authors/austen"

	// Books, created in this order (created = 1..4)
	Dune       types.DocRef // herbert, scifi
	Emma       types.DocRef // austen, classic
	Messiah    types.DocRef // herbert, scifi
	Persuasion types.DocRef // austen, classic, no rating

	// Sub-collection authors/herbert/awards
	Hugo types.DocRef
}

// Base is the time of the first book's creation.
var Base = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

type seed struct {
	ref  types.DocRef
	data map[string]interface{}
}

// NewLibrary returns a memory store seeded with the library fixture.
func NewLibrary(t *testing.T) (*store.Store, *LibraryData) {
	t.Helper()

	s := store.New()
	lib := &LibraryData{
		Herbert:    types.NewDocRef(Authors, "herbert"),
		Austen:     types.NewDocRef(Authors, "austen"),
		Dune:       types.NewDocRef(Books, "dune"),
		Emma:       types.NewDocRef(Books, "emma"),
		Messiah:    types.NewDocRef(Books, "messiah"),
		Persuasion: types.NewDocRef(Books, "persuasion"),
	}
	lib.Hugo = types.NewDocRef(lib.Herbert.Sub("awards"), "hugo")

	seeds := []seed{
		{lib.Herbert, map[string]interface{}{"name": "Frank Herbert", "born": 1920}},
		{lib.Austen, map[string]interface{}{"name": "Jane Austen", "born": 1775}},
		{lib.Dune, map[string]interface{}{
			"title": "Dune", "genre": "scifi", "pages": 412, "rating": 4.5,
			"created": Base, "author": lib.Herbert, "tags": []string{"desert", "politics"},
		}},
		{lib.Emma, map[string]interface{}{
			"title": "Emma", "genre": "classic", "pages": 474, "rating": 4.0,
			"created": Base.Add(time.Hour), "author": lib.Austen, "tags": []string{"romance"},
		}},
		{lib.Messiah, map[string]interface{}{
			"title": "Dune Messiah", "genre": "scifi", "pages": 256, "rating": 3.9,
			"created": Base.Add(2 * time.Hour), "author": lib.Herbert, "tags": []string{"politics"},
		}},
		{lib.Persuasion, map[string]interface{}{
			"title": "Persuasion", "genre": "classic", "pages": 249,
			"created": Base.Add(3 * time.Hour), "author": lib.Austen, "tags": []string{},
		}},
		{lib.Hugo, map[string]interface{}{"name": "Hugo Award", "year": 1966}},
	}

	ctx := context.Background()
	for _, sd := range seeds {
		if err := s.Set(ctx, sd.ref, sd.data, false); err != nil {
			t.Fatalf("seeding %s: %v", sd.ref, err)
		}
	}
	return s, lib
}

// Seed writes documents with generated IDs into collection and returns
// their references in order.
func Seed(t *testing.T, s types.Store, collection string, docs ...map[string]interface{}) []types.DocRef {
	t.Helper()
	refs := make([]types.DocRef, 0, len(docs))
	for _, doc := range docs {
		ref, err := s.Add(context.Background(), collection, doc)
		if err != nil {
			t.Fatalf("seeding %s: %v", collection, err)
		}
		refs = append(refs, ref)
	}
	return refs
}
