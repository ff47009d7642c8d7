// Package fs reads the document corpus from the local file system and
// persists built indexes as JSON files.
package fs

import (
	"context"
	"fmt"
	iofs "io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fwojciec/frmr"
	"github.com/fwojciec/frmr/extract"
	"github.com/fwojciec/frmr/markdown"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Ensure Scanner implements frmr.Scanner at compile time.
var _ frmr.Scanner = (*Scanner)(nil)

// DefaultIgnore lists build, VCS and cache directories excluded from scans.
var DefaultIgnore = []string{
	"**/node_modules/**",
	"**/.git/**",
	"**/.hg/**",
	"**/dist/**",
	"**/build/**",
	"**/.cache/**",
}

// DefaultConcurrency is the number of files read in parallel.
const DefaultConcurrency = 8

// Scanner walks a corpus checkout and extracts every JSON and markdown
// file in parallel.
type Scanner struct {
	Ignore      []string
	Concurrency int

	// Now returns the build timestamp. Defaults to time.Now.
	Now func() time.Time
}

// NewScanner creates a Scanner with the default ignore list.
func NewScanner() *Scanner {
	return &Scanner{Ignore: DefaultIgnore, Concurrency: DefaultConcurrency}
}

type jsonResult struct {
	result *extract.Result
	err    string
}

type markdownResult struct {
	doc          *frmr.MarkdownDoc
	indexContent string
	err          string
}

// Scan reads the corpus under root. Results are merged in sorted path
// order, so scanning an unchanged corpus twice yields equal snapshots apart
// from the build id and timestamp.
func (s *Scanner) Scan(ctx context.Context, root string) (*frmr.Snapshot, error) {
	fsys := os.DirFS(root)

	jsonPaths, err := s.glob(fsys, "**/*.json")
	if err != nil {
		return nil, err
	}
	markdownPaths, err := s.glob(fsys, "**/*.md")
	if err != nil {
		return nil, err
	}

	jsonResults := make([]jsonResult, len(jsonPaths))
	markdownResults := make([]markdownResult, len(markdownPaths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency())

	for i, p := range jsonPaths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			jsonResults[i] = scanJSON(fsys, p)
			return nil
		})
	}
	for i, p := range markdownPaths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			markdownResults[i] = scanMarkdown(fsys, p)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return s.merge(root, jsonResults, markdownResults), nil
}

func (s *Scanner) merge(root string, jsonResults []jsonResult, markdownResults []markdownResult) *frmr.Snapshot {
	state := &frmr.IndexState{
		RepoPath:     root,
		BuildID:      uuid.NewString(),
		IndexedAt:    s.now().UTC(),
		MarkdownDocs: make(map[string]*frmr.MarkdownDoc, len(markdownResults)),
	}
	indexContent := make(map[string]string, len(markdownResults))

	for _, r := range jsonResults {
		if r.err != "" {
			state.Errors = append(state.Errors, r.err)
			continue
		}
		state.Documents = append(state.Documents, r.result.Documents...)
		state.KsiItems = append(state.KsiItems, r.result.KsiItems...)
		state.ControlMappings = append(state.ControlMappings, r.result.Mappings...)
	}
	for _, r := range markdownResults {
		if r.err != "" {
			state.Errors = append(state.Errors, r.err)
			continue
		}
		state.MarkdownDocs[r.doc.Path] = r.doc
		indexContent[r.doc.Path] = r.indexContent
	}

	return &frmr.Snapshot{State: state, IndexContent: indexContent}
}

func scanJSON(fsys iofs.FS, p string) jsonResult {
	content, err := iofs.ReadFile(fsys, p)
	if err != nil {
		return jsonResult{err: fmt.Sprintf("Failed to read JSON file %s: %s", p, err)}
	}
	res, err := extract.File(p, content)
	if err != nil {
		return jsonResult{err: frmr.ErrorMessage(err)}
	}
	return jsonResult{result: res}
}

func scanMarkdown(fsys iofs.FS, p string) markdownResult {
	content, err := iofs.ReadFile(fsys, p)
	if err != nil {
		return markdownResult{err: fmt.Sprintf("Failed to read markdown file %s: %s", p, err)}
	}
	doc := markdown.Parse(p, string(content))
	return markdownResult{doc: doc, indexContent: markdown.StripCodeBlocks(doc.Content)}
}

// glob returns the sorted files matching pattern that no ignore pattern
// excludes.
func (s *Scanner) glob(fsys iofs.FS, pattern string) ([]string, error) {
	matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("failed to glob %s: %w", pattern, err)
	}

	paths := make([]string, 0, len(matches))
	for _, m := range matches {
		if !s.ignored(m) {
			paths = append(paths, filepath.ToSlash(m))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

func (s *Scanner) ignored(p string) bool {
	for _, pattern := range s.Ignore {
		if ok, _ := doublestar.Match(pattern, p); ok {
			return true
		}
	}
	return false
}

func (s *Scanner) concurrency() int {
	if s.Concurrency > 0 {
		return s.Concurrency
	}
	return DefaultConcurrency
}

func (s *Scanner) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
