package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fwojciec/frmr"
	"github.com/fwojciec/frmr/mcp"
	frmrprom "github.com/fwojciec/frmr/prometheus"
	"github.com/fwojciec/frmr/watch"
	"golang.org/x/sync/errgroup"
)

// shutdownTimeout bounds the metrics server shutdown.
const shutdownTimeout = 5 * time.Second

// Run executes the serve command. It returns when stdin is exhausted or the
// context is cancelled.
func (c *ServeCmd) Run(deps *Dependencies) error {
	ctx, cancel := context.WithCancel(deps.Ctx)
	defer cancel()

	begin := time.Now()
	summary, err := deps.Index.Build(ctx, false)
	if err != nil {
		printError(deps, err)
		return err
	}
	deps.Logger.Info("index ready",
		"documents", summary.Documents,
		"markdown", summary.MarkdownFiles,
		"cached", summary.Cached,
		"duration", time.Since(begin),
	)

	g, ctx := errgroup.WithContext(ctx)

	if deps.AutoUpdate && deps.UpdateInterval > 0 {
		g.Go(func() error {
			refreshLoop(ctx, deps, deps.UpdateInterval)
			return nil
		})
	}

	if c.Watch {
		root, err := deps.Repository.EnsureReady(ctx)
		if err != nil {
			printError(deps, err)
			return err
		}
		w := watch.NewWatcher(root)
		w.Debounce = c.Debounce
		w.Logger = deps.Logger
		g.Go(func() error {
			return w.Run(ctx, func(ctx context.Context, paths []string) {
				deps.Logger.Info("corpus changed", "files", len(paths))
				if _, err := deps.Index.Build(ctx, true); err != nil {
					deps.Logger.Warn("rebuild failed", "code", frmr.ErrorCode(err), "error", frmr.ErrorMessage(err))
				}
			})
		})
	}

	if c.MetricsAddr != "" && deps.Gatherer != nil {
		mux := http.NewServeMux()
		mux.Handle("/metrics", frmrprom.Handler(deps.Gatherer))
		srv := &http.Server{Addr: c.MetricsAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
		g.Go(func() error {
			deps.Logger.Info("metrics listening", "addr", c.MetricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
			defer done()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		defer cancel()
		server := mcp.NewServer(deps.Tools, "frmr", version)
		server.Logger = deps.Logger
		return server.Serve(ctx, deps.Stdin, deps.Stdout)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// refreshLoop refreshes the index every interval until ctx is done.
func refreshLoop(ctx context.Context, deps *Dependencies, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			res, err := deps.Index.Refresh(ctx)
			if err != nil {
				deps.Logger.Warn("refresh failed", "code", frmr.ErrorCode(err), "error", frmr.ErrorMessage(err))
				continue
			}
			if res.Previous != res.Current {
				deps.Logger.Info("index refreshed", "previous", res.Previous, "current", res.Current)
			}
		}
	}
}
