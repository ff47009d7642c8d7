package mock

import (
	"context"

	"github.com/fwojciec/frmr"
)

var _ frmr.IndexService = (*IndexService)(nil)

// IndexService is a mock implementation of frmr.IndexService.
type IndexService struct {
	BuildFn   func(ctx context.Context, force bool) (*frmr.BuildSummary, error)
	RefreshFn func(ctx context.Context) (*frmr.UpdateResult, error)
}

func (s *IndexService) Build(ctx context.Context, force bool) (*frmr.BuildSummary, error) {
	return s.BuildFn(ctx, force)
}

func (s *IndexService) Refresh(ctx context.Context) (*frmr.UpdateResult, error) {
	return s.RefreshFn(ctx)
}
