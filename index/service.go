// Package index owns the live corpus index. It builds snapshots through a
// Scanner, keeps them coherent with an IndexCache, and answers read-only
// queries over the current snapshot.
package index

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/fwojciec/frmr"
)

// Ensure Service implements frmr.IndexService at compile time.
var _ frmr.IndexService = (*Service)(nil)

// Service holds one live index. Queries run against a consistent snapshot:
// a build publishes its state and search index together, and readers hold
// a read lock for the duration of one query.
type Service struct {
	Repository frmr.Repository
	Scanner    frmr.Scanner
	Searcher   frmr.SearchIndexer

	// Cache persists snapshots between runs. Nil disables persistence.
	Cache frmr.IndexCache

	// Evidence is the optional community evidence catalog.
	Evidence *frmr.EvidenceCatalog

	Logger *slog.Logger

	buildMu sync.Mutex

	mu     sync.RWMutex
	state  *frmr.IndexState
	search frmr.SearchIndex
	cached bool
}

// NewService creates a Service. The cache may be nil.
func NewService(repo frmr.Repository, scanner frmr.Scanner, searcher frmr.SearchIndexer, cache frmr.IndexCache) *Service {
	return &Service{
		Repository: repo,
		Scanner:    scanner,
		Searcher:   searcher,
		Cache:      cache,
	}
}

// Build makes the index ready. Without force an existing index is kept and
// a cache entry for the current revision is used when available. With
// force the corpus is always rescanned.
func (s *Service) Build(ctx context.Context, force bool) (*frmr.BuildSummary, error) {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	if !force {
		if summary := s.summary(); summary != nil {
			return summary, nil
		}
	}

	begin := time.Now()

	root, err := s.Repository.EnsureReady(ctx)
	if err != nil {
		return nil, err
	}
	revision, err := s.Repository.HeadRevision(ctx)
	if err != nil {
		s.logger().Warn("head revision unavailable", "err", err)
		revision = ""
	}

	if !force {
		if snap := s.loadCache(ctx, revision); snap != nil {
			if err := s.publish(ctx, snap, true); err != nil {
				return nil, err
			}
			s.logger().Info("index loaded from cache", "revision", revision, "documents", len(snap.State.Documents), "duration", time.Since(begin))
			return s.summary(), nil
		}
	}

	snap, err := s.Scanner.Scan(ctx, root)
	if err != nil {
		return nil, err
	}
	snap.State.Revision = revision

	if err := s.publish(ctx, snap, false); err != nil {
		return nil, err
	}

	s.saveCache(ctx, snap, revision)

	s.logger().Info("index built",
		"root", root,
		"revision", revision,
		"documents", len(snap.State.Documents),
		"markdown", len(snap.State.MarkdownDocs),
		"errors", len(snap.State.Errors),
		"duration", time.Since(begin),
	)
	return s.summary(), nil
}

// Refresh updates the repository and rebuilds the index when the head
// revision moved.
func (s *Service) Refresh(ctx context.Context) (*frmr.UpdateResult, error) {
	res, err := s.Repository.Update(ctx)
	if err != nil {
		return nil, err
	}
	if !res.Success {
		return res, nil
	}

	s.mu.RLock()
	stale := s.state == nil || s.state.Revision == "" || s.state.Revision != res.Current
	s.mu.RUnlock()

	if stale {
		if _, err := s.Build(ctx, true); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// Close releases the search index.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.search == nil {
		return nil
	}
	err := s.search.Close()
	s.search = nil
	s.state = nil
	return err
}

func (s *Service) loadCache(ctx context.Context, revision string) *frmr.Snapshot {
	if s.Cache == nil {
		return nil
	}
	snap, err := s.Cache.Load(ctx, revision)
	if err != nil {
		s.logger().Warn("index cache unreadable", "err", err)
		return nil
	}
	if snap == nil {
		s.logger().Debug("index cache miss", "revision", revision)
	}
	return snap
}

func (s *Service) saveCache(ctx context.Context, snap *frmr.Snapshot, revision string) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Save(ctx, snap, revision); err != nil {
		s.logger().Warn("index cache save failed", "err", err)
	}
}

// publish indexes the snapshot's markdown and swaps it in. The previous
// search index is closed after the swap.
func (s *Service) publish(ctx context.Context, snap *frmr.Snapshot, cached bool) error {
	idx, err := s.Searcher.Index(ctx, snap.IndexContent)
	if err != nil {
		return err
	}

	s.mu.Lock()
	old := s.search
	s.state, s.search, s.cached = snap.State, idx, cached
	s.mu.Unlock()

	if old != nil {
		if err := old.Close(); err != nil {
			s.logger().Warn("failed to close search index", "err", err)
		}
	}
	return nil
}

func (s *Service) summary() *frmr.BuildSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state == nil {
		return nil
	}
	return &frmr.BuildSummary{
		BuildID:       s.state.BuildID,
		Revision:      s.state.Revision,
		IndexedAt:     s.state.IndexedAt,
		Documents:     len(s.state.Documents),
		KsiItems:      len(s.state.KsiItems),
		Mappings:      len(s.state.ControlMappings),
		MarkdownFiles: len(s.state.MarkdownDocs),
		Errors:        len(s.state.Errors),
		Cached:        s.cached,
	}
}

func (s *Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.New(slog.DiscardHandler)
}

// view is the snapshot a query runs against.
type view struct {
	state  *frmr.IndexState
	search frmr.SearchIndex
}

// query runs fn against the live snapshot under the read lock. It fails
// with ENOTREADY before the first build.
func query[T any](s *Service, fn func(v *view) (T, error)) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state == nil {
		var zero T
		return zero, frmr.Errorf(frmr.ENOTREADY, "Index not ready. Build the index first.")
	}
	return fn(&view{state: s.state, search: s.search})
}
