// Package watch reports changes to corpus files.
package watch

import (
	"context"
	"fmt"
	iofs "io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/fwojciec/frmr/fs"
)

// DefaultDebounce is how long the watcher waits for changes to settle.
const DefaultDebounce = 2 * time.Second

// Watcher watches a corpus checkout and reports batches of changed JSON
// and markdown files.
type Watcher struct {
	Root     string
	Debounce time.Duration

	// Ignore holds doublestar patterns of paths that are not watched.
	Ignore []string

	Logger *slog.Logger
}

// NewWatcher creates a Watcher for root with the scanner's ignore list.
func NewWatcher(root string) *Watcher {
	return &Watcher{
		Root:     root,
		Debounce: DefaultDebounce,
		Ignore:   fs.DefaultIgnore,
		Logger:   slog.New(slog.DiscardHandler),
	}
}

// Run watches until ctx is cancelled. After changes stop for the debounce
// interval, onChange is called with the sorted slash-separated paths,
// relative to the root, that changed. Calls to onChange never overlap.
func (w *Watcher) Run(ctx context.Context, onChange func(ctx context.Context, paths []string)) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fsw.Close()

	if err := w.addTree(fsw, w.Root); err != nil {
		return err
	}

	timer := time.NewTimer(w.Debounce)
	timer.Stop()
	defer timer.Stop()
	pending := make(map[string]bool)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			rel, ok := w.relevant(fsw, event)
			if !ok {
				continue
			}
			pending[rel] = true
			timer.Reset(w.Debounce)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.Logger.Warn("watch error", "err", err)

		case <-timer.C:
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			clear(pending)

			w.Logger.Info("corpus changed", "files", len(paths))
			onChange(ctx, paths)
		}
	}
}

// relevant returns the relative path of a JSON or markdown file touched by
// event. New directories are added to the watch.
func (w *Watcher) relevant(fsw *fsnotify.Watcher, event fsnotify.Event) (string, bool) {
	rel, err := filepath.Rel(w.Root, event.Name)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(fsw, event.Name); err != nil {
				w.Logger.Warn("failed to watch directory", "path", rel, "err", err)
			}
			return "", false
		}
	}
	if event.Op == fsnotify.Chmod || w.ignored(rel) {
		return "", false
	}

	switch strings.ToLower(path.Ext(rel)) {
	case ".json", ".md":
		return rel, true
	}
	return "", false
}

// addTree watches dir and every directory below it that is not ignored.
func (w *Watcher) addTree(fsw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(p string, d iofs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(w.Root, p)
		if err != nil {
			return err
		}
		if rel != "." && w.ignored(path.Join(filepath.ToSlash(rel), "_")) {
			return filepath.SkipDir
		}
		if err := fsw.Add(p); err != nil {
			return fmt.Errorf("failed to watch %s: %w", p, err)
		}
		return nil
	})
}

func (w *Watcher) ignored(rel string) bool {
	for _, pattern := range w.Ignore {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}
