// Package slog provides logging decorators for frmr services.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/frmr"
)

// Ensure LoggingRepository implements frmr.Repository.
var _ frmr.Repository = (*LoggingRepository)(nil)

// LoggingRepository wraps a Repository with logging of acquisition and
// update operations.
type LoggingRepository struct {
	next   frmr.Repository
	logger *slog.Logger
}

// NewLoggingRepository creates a new LoggingRepository.
func NewLoggingRepository(next frmr.Repository, logger *slog.Logger) *LoggingRepository {
	return &LoggingRepository{next: next, logger: logger}
}

// EnsureReady delegates to the wrapped repository and logs the operation.
func (r *LoggingRepository) EnsureReady(ctx context.Context) (root string, err error) {
	defer func(begin time.Time) {
		r.logger.Info("repository ready",
			"path", root,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return r.next.EnsureReady(ctx)
}

// HeadRevision delegates to the wrapped repository and logs the revision.
func (r *LoggingRepository) HeadRevision(ctx context.Context) (rev string, err error) {
	defer func(begin time.Time) {
		r.logger.Debug("head revision",
			"revision", rev,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return r.next.HeadRevision(ctx)
}

// Info delegates to the wrapped repository.
func (r *LoggingRepository) Info(ctx context.Context) (*frmr.RepoInfo, error) {
	return r.next.Info(ctx)
}

// Update delegates to the wrapped repository and logs the outcome.
func (r *LoggingRepository) Update(ctx context.Context) (res *frmr.UpdateResult, err error) {
	defer func(begin time.Time) {
		attrs := []any{"duration", time.Since(begin)}
		if res != nil {
			attrs = append(attrs, "success", res.Success, "previous", res.Previous, "current", res.Current)
		}
		attrs = append(attrs, "err", err)
		if err != nil || (res != nil && !res.Success) {
			r.logger.Warn("repository update", attrs...)
			return
		}
		r.logger.Info("repository update", attrs...)
	}(time.Now())
	return r.next.Update(ctx)
}
