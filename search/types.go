// Package search ranks the documents of a collection by how well their
// text fields match a search term.
package search

import (
	"context"

	"github.com/arthur-debert/docbind/types"
)

// Options configures search behavior
type Options struct {
	// Query is the search term to look for
	Query string

	// Fields specifies which fields to search in.
	// Empty slice searches every field of each document
	Fields []string

	// CaseSensitive controls whether search is case-sensitive
	CaseSensitive bool

	// ExactMatch requires the entire field to match the query
	// When false, performs partial/substring matching
	ExactMatch bool

	// Highlight includes highlighted match text in results
	Highlight bool

	// HighlightStart and HighlightEnd wrap matches, "**" when empty
	HighlightStart string
	HighlightEnd   string

	// MaxResults limits the number of search results, 0 means no limit
	MaxResults int
}

// Result represents a search match with metadata
type Result struct {
	// Snapshot is the matched document
	Snapshot types.Snapshot

	// Score represents match relevance (0.0 to 1.0, higher is better)
	Score float64

	// MatchType describes the best match found
	MatchType MatchType

	// MatchedFields lists all fields that contained matches, sorted
	MatchedFields []string

	// Highlights maps field name to text with match markers
	Highlights map[string]string
}

// MatchType indicates the type of match found
type MatchType string

const (
	MatchExact   MatchType = "exact"
	MatchPrefix  MatchType = "prefix"
	MatchPartial MatchType = "partial"
)

// DocumentProvider supplies the documents to search
type DocumentProvider interface {
	Documents(ctx context.Context) ([]types.Snapshot, error)
}
