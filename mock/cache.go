package mock

import (
	"context"

	"github.com/fwojciec/frmr"
)

var _ frmr.IndexCache = (*IndexCache)(nil)

// IndexCache is a mock implementation of frmr.IndexCache.
type IndexCache struct {
	LoadFn func(ctx context.Context, revision string) (*frmr.Snapshot, error)
	SaveFn func(ctx context.Context, snapshot *frmr.Snapshot, revision string) error
}

func (c *IndexCache) Load(ctx context.Context, revision string) (*frmr.Snapshot, error) {
	return c.LoadFn(ctx, revision)
}

func (c *IndexCache) Save(ctx context.Context, snapshot *frmr.Snapshot, revision string) error {
	return c.SaveFn(ctx, snapshot, revision)
}
