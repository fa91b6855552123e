package search

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/arthur-debert/docbind/types"
)

const defaultMarker = "**"

// Engine searches the documents of a DocumentProvider
type Engine struct {
	provider DocumentProvider
}

// NewEngine creates a new search engine with the given document provider
func NewEngine(provider DocumentProvider) *Engine {
	return &Engine{
		provider: provider,
	}
}

// Search returns matching documents ranked by score, highest first. Equal
// scores keep document path order.
func (e *Engine) Search(ctx context.Context, options Options) ([]Result, error) {
	if options.Query == "" {
		return []Result{}, nil
	}

	documents, err := e.provider.Documents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get documents: %w", err)
	}

	results := []Result{}
	for _, doc := range documents {
		if result := e.searchDocument(doc, options); result != nil {
			results = append(results, *result)
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Snapshot.Ref.Path < results[j].Snapshot.Ref.Path
	})

	if options.MaxResults > 0 && len(results) > options.MaxResults {
		results = results[:options.MaxResults]
	}
	return results, nil
}

// searchDocument searches a single document and returns a result if it matches
func (e *Engine) searchDocument(doc types.Snapshot, options Options) *Result {
	fields := append([]string(nil), options.Fields...)
	if len(fields) == 0 {
		for name := range doc.Data {
			fields = append(fields, name)
		}
	}
	sort.Strings(fields)

	var result *Result
	for _, field := range fields {
		value, ok := doc.Data[field]
		if !ok {
			continue
		}
		text, ok := searchableText(value)
		if !ok {
			continue
		}
		score, matchType, found := e.scoreField(text, options)
		if !found {
			continue
		}

		if result == nil {
			result = &Result{Snapshot: doc}
			if options.Highlight {
				result.Highlights = make(map[string]string)
			}
		}
		result.MatchedFields = append(result.MatchedFields, field)
		if score > result.Score {
			result.Score = score
			result.MatchType = matchType
		}
		if options.Highlight {
			result.Highlights[field] = highlight(text, options)
		}
	}
	return result
}

// searchableText returns the text of string fields. Lists contribute
// their string elements joined by ", ". Other values are not searched.
func searchableText(value interface{}) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case []interface{}:
		var parts []string
		for _, e := range v {
			if s, ok := e.(string); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", "), len(parts) > 0
	}
	return "", false
}

// scoreField computes a relevance score for one field's text
func (e *Engine) scoreField(text string, options Options) (float64, MatchType, bool) {
	searchText, query := normalize(text, options), normalize(options.Query, options)

	if searchText == query {
		return 1.0, MatchExact, true
	}
	if options.ExactMatch || !strings.Contains(searchText, query) {
		return 0, "", false
	}

	score := 0.5
	matchType := MatchPartial

	// Boost if match is at the beginning
	if strings.HasPrefix(searchText, query) {
		score += 0.2
		matchType = MatchPrefix
	}

	// Boost if query takes up a large portion of the field
	if float64(len(query))/float64(len(searchText)) > 0.5 {
		score += 0.1
	}

	// Boost repeated occurrences
	if strings.Count(searchText, query) > 1 {
		score += 0.1
	}

	if score > 1.0 {
		score = 1.0
	}
	return score, matchType, true
}

func normalize(s string, options Options) string {
	if options.CaseSensitive {
		return s
	}
	return strings.ToLower(s)
}

// highlight wraps each non-overlapping match in markers. Text whose byte
// length changes when lowercased is returned unmarked.
func highlight(text string, options Options) string {
	start, end := options.HighlightStart, options.HighlightEnd
	if start == "" {
		start = defaultMarker
	}
	if end == "" {
		end = defaultMarker
	}

	searchText, query := normalize(text, options), normalize(options.Query, options)
	if query == "" || len(searchText) != len(text) {
		return text
	}

	var builder strings.Builder
	lastEnd := 0
	for i := 0; i <= len(searchText)-len(query); {
		if searchText[i:i+len(query)] != query {
			i++
			continue
		}
		builder.WriteString(text[lastEnd:i])
		builder.WriteString(start)
		builder.WriteString(text[i : i+len(query)])
		builder.WriteString(end)
		i += len(query)
		lastEnd = i
	}
	builder.WriteString(text[lastEnd:])
	return builder.String()
}
