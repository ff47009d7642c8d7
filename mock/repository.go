package mock

import (
	"context"

	"github.com/fwojciec/frmr"
)

var _ frmr.Repository = (*Repository)(nil)

// Repository is a mock implementation of frmr.Repository.
type Repository struct {
	EnsureReadyFn  func(ctx context.Context) (string, error)
	HeadRevisionFn func(ctx context.Context) (string, error)
	InfoFn         func(ctx context.Context) (*frmr.RepoInfo, error)
	UpdateFn       func(ctx context.Context) (*frmr.UpdateResult, error)
}

func (r *Repository) EnsureReady(ctx context.Context) (string, error) {
	return r.EnsureReadyFn(ctx)
}

func (r *Repository) HeadRevision(ctx context.Context) (string, error) {
	return r.HeadRevisionFn(ctx)
}

func (r *Repository) Info(ctx context.Context) (*frmr.RepoInfo, error) {
	return r.InfoFn(ctx)
}

func (r *Repository) Update(ctx context.Context) (*frmr.UpdateResult, error) {
	return r.UpdateFn(ctx)
}
