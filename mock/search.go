package mock

import (
	"context"

	"github.com/fwojciec/frmr"
)

var (
	_ frmr.SearchIndexer = (*SearchIndexer)(nil)
	_ frmr.SearchIndex   = (*SearchIndex)(nil)
)

// SearchIndexer is a mock implementation of frmr.SearchIndexer.
type SearchIndexer struct {
	IndexFn func(ctx context.Context, content map[string]string) (frmr.SearchIndex, error)
}

func (s *SearchIndexer) Index(ctx context.Context, content map[string]string) (frmr.SearchIndex, error) {
	return s.IndexFn(ctx, content)
}

// SearchIndex is a mock implementation of frmr.SearchIndex.
type SearchIndex struct {
	SearchFn func(ctx context.Context, query string) ([]frmr.SearchHit, error)
	CloseFn  func() error
}

func (s *SearchIndex) Search(ctx context.Context, query string) ([]frmr.SearchHit, error) {
	return s.SearchFn(ctx, query)
}

func (s *SearchIndex) Close() error {
	return s.CloseFn()
}
