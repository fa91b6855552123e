package search

import (
	"context"

	"github.com/arthur-debert/docbind/types"
)

// MockDocumentProvider implements DocumentProvider for testing
type MockDocumentProvider struct {
	documents []types.Snapshot
	err       error
	calls     int
}

// NewMockDocumentProvider creates a new mock with the given documents
func NewMockDocumentProvider(documents []types.Snapshot) *MockDocumentProvider {
	return &MockDocumentProvider{
		documents: documents,
	}
}

// SetError configures the mock to return an error
func (m *MockDocumentProvider) SetError(err error) {
	m.err = err
}

// Documents returns the mock documents or error
func (m *MockDocumentProvider) Documents(ctx context.Context) ([]types.Snapshot, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.documents, nil
}

func note(id string, data map[string]interface{}) types.Snapshot {
	return types.Snapshot{Ref: types.NewDocRef("notes", id), Data: data}
}

// SampleDocuments provides sample documents for testing
func SampleDocuments() []types.Snapshot {
	return []types.Snapshot{
		note("1", map[string]interface{}{
			"title":  "Important Meeting",
			"body":   "Discuss quarterly budget and planning",
			"status": "pending",
		}),
		note("2", map[string]interface{}{
			"title":  "Budget Review",
			"body":   "Review the meeting notes from last quarter",
			"status": "active",
		}),
		note("3", map[string]interface{}{
			"title": "Team Standup",
			"body":  "Daily standup meeting for development team",
			"tags":  []interface{}{"daily", "team"},
		}),
		note("4", map[string]interface{}{
			"title":    "MEETING",
			"body":     "All caps meeting title for testing",
			"priority": int64(1),
		}),
	}
}
