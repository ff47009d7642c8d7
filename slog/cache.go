package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/frmr"
)

// Ensure LoggingCache implements frmr.IndexCache.
var _ frmr.IndexCache = (*LoggingCache)(nil)

// LoggingCache wraps an IndexCache with debug logging of hits and misses.
type LoggingCache struct {
	next   frmr.IndexCache
	logger *slog.Logger
}

// NewLoggingCache creates a new LoggingCache.
func NewLoggingCache(next frmr.IndexCache, logger *slog.Logger) *LoggingCache {
	return &LoggingCache{next: next, logger: logger}
}

// Load delegates to the wrapped cache and logs whether it hit.
func (c *LoggingCache) Load(ctx context.Context, revision string) (snap *frmr.Snapshot, err error) {
	defer func(begin time.Time) {
		c.logger.Debug("cache load",
			"revision", revision,
			"hit", snap != nil,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return c.next.Load(ctx, revision)
}

// Save delegates to the wrapped cache and logs the operation.
func (c *LoggingCache) Save(ctx context.Context, snapshot *frmr.Snapshot, revision string) (err error) {
	defer func(begin time.Time) {
		c.logger.Debug("cache save",
			"revision", revision,
			"documents", len(snapshot.State.Documents),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return c.next.Save(ctx, snapshot, revision)
}
