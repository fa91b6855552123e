package testutil

import (
	"errors"
	"testing"

	"github.com/arthur-debert/docbind/types"
	"github.com/google/go-cmp/cmp"
)

// Identified is anything with a document ID, such as a loaded entity.
type Identified interface {
	ID() string
}

// IDs returns the identifiers of items in order.
func IDs[E Identified](items []E) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID()
	}
	return out
}

// AssertIDs fails the test unless items carry exactly the wanted IDs, in order.
func AssertIDs[E Identified](t *testing.T, items []E, want ...string) {
	t.Helper()
	got := IDs(items)
	if want == nil {
		want = []string{}
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}
}

// AssertRefIDs is AssertIDs for document references.
func AssertRefIDs(t *testing.T, refs []types.DocRef, want ...string) {
	t.Helper()
	got := make([]string, len(refs))
	for i, r := range refs {
		got[i] = r.ID()
	}
	if want == nil {
		want = []string{}
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ref ids mismatch (-want +got):\n%s", diff)
	}
}

// AssertErrorIs fails the test unless errors.Is(err, target).
func AssertErrorIs(t *testing.T, err, target error, context string) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Errorf("%s: expected error matching %v, got %v", context, target, err)
	}
}

// AssertNoError fails the test immediately on err.
func AssertNoError(t *testing.T, err error, context string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", context, err)
	}
}
