package search

import (
	"context"

	"github.com/arthur-debert/docbind/types"
)

// StoreProvider supplies the results of a store query as search input
type StoreProvider struct {
	store types.Store
	query types.Query
}

// NewStoreProvider creates a provider running q against store
func NewStoreProvider(store types.Store, q types.Query) *StoreProvider {
	return &StoreProvider{
		store: store,
		query: q,
	}
}

// Documents implements DocumentProvider
func (p *StoreProvider) Documents(ctx context.Context) ([]types.Snapshot, error) {
	return p.store.Query(ctx, p.query)
}

// SearchStore is a convenience function to search the documents q selects
func SearchStore(ctx context.Context, store types.Store, q types.Query, options Options) ([]Result, error) {
	return NewEngine(NewStoreProvider(store, q)).Search(ctx, options)
}
