package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fwojciec/frmr"
	"github.com/fwojciec/frmr/markdown"
)

// Ensure IndexCache implements frmr.IndexCache at compile time.
var _ frmr.IndexCache = (*IndexCache)(nil)

// IndexCache persists a snapshot as a single JSON file keyed by logic
// version and repository revision. Writes go to a temporary file that is
// renamed over the cache file, so readers never see a partial write.
type IndexCache struct {
	path    string
	version int
}

// NewIndexCache creates an IndexCache writing to path. version is the
// extraction logic version; entries written by another version are misses.
func NewIndexCache(path string, version int) *IndexCache {
	return &IndexCache{path: path, version: version}
}

// DefaultCachePath returns ~/.cache/fedramp-docs/index-v1.json.
func DefaultCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".cache", "fedramp-docs", "index-v1.json")
	}
	return filepath.Join(home, ".cache", "fedramp-docs", "index-v1.json")
}

// Path returns the cache file path.
func (c *IndexCache) Path() string {
	return c.path
}

type persistedIndex struct {
	CacheVersion    int                    `json:"cacheVersion"`
	RepoHead        *string                `json:"repoHead"`
	IndexedAt       time.Time              `json:"indexedAt"`
	RepoPath        string                 `json:"repoPath"`
	BuildID         string                 `json:"buildId"`
	FrmrDocuments   []*frmr.Document       `json:"frmrDocuments"`
	KsiItems        []*frmr.KsiItem        `json:"ksiItems"`
	ControlMappings []*frmr.ControlMapping `json:"controlMappings"`
	MarkdownDocs    []*persistedMarkdown   `json:"markdownDocs"`
	Errors          []string               `json:"errors"`
}

type persistedMarkdown struct {
	*frmr.MarkdownDoc
	IndexContent string `json:"indexContent"`
}

// Load returns the cached snapshot for revision, or nil on a miss. The
// entry misses when it was written by another logic version, or when both
// its revision and revision are known and differ.
func (c *IndexCache) Load(ctx context.Context, revision string) (*frmr.Snapshot, error) {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read index cache: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var p persistedIndex
	if err := dec.Decode(&p); err != nil {
		return nil, frmr.Errorf(frmr.EPARSE, "corrupt index cache %s: %s", c.path, err)
	}

	if p.CacheVersion != c.version {
		return nil, nil
	}
	if p.RepoHead != nil && *p.RepoHead != "" && revision != "" && *p.RepoHead != revision {
		return nil, nil
	}

	state := &frmr.IndexState{
		RepoPath:        p.RepoPath,
		BuildID:         p.BuildID,
		IndexedAt:       p.IndexedAt,
		Documents:       p.FrmrDocuments,
		KsiItems:        p.KsiItems,
		ControlMappings: p.ControlMappings,
		MarkdownDocs:    make(map[string]*frmr.MarkdownDoc, len(p.MarkdownDocs)),
		Errors:          p.Errors,
	}
	if p.RepoHead != nil {
		state.Revision = *p.RepoHead
	}

	indexContent := make(map[string]string, len(p.MarkdownDocs))
	for _, md := range p.MarkdownDocs {
		if md == nil || md.MarkdownDoc == nil {
			continue
		}
		doc := md.MarkdownDoc
		doc.Lines = markdown.SplitLines(doc.Content)
		state.MarkdownDocs[doc.Path] = doc
		indexContent[doc.Path] = md.IndexContent
	}

	return &frmr.Snapshot{State: state, IndexContent: indexContent}, nil
}

// Save writes snapshot for revision, replacing the previous entry.
func (c *IndexCache) Save(ctx context.Context, snapshot *frmr.Snapshot, revision string) error {
	state := snapshot.State

	p := persistedIndex{
		CacheVersion:    c.version,
		IndexedAt:       state.IndexedAt,
		RepoPath:        state.RepoPath,
		BuildID:         state.BuildID,
		FrmrDocuments:   state.Documents,
		KsiItems:        state.KsiItems,
		ControlMappings: state.ControlMappings,
		Errors:          state.Errors,
	}
	if revision != "" {
		p.RepoHead = &revision
	}

	paths := make([]string, 0, len(state.MarkdownDocs))
	for path := range state.MarkdownDocs {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		doc := state.MarkdownDocs[path]
		content, ok := snapshot.IndexContent[path]
		if !ok {
			content = doc.Content
		}
		p.MarkdownDocs = append(p.MarkdownDocs, &persistedMarkdown{MarkdownDoc: doc, IndexContent: content})
	}

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode index cache: %w", err)
	}

	return writeFileAtomic(c.path, data)
}

// writeFileAtomic writes data to a temporary file next to path, then
// renames it over path.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}
