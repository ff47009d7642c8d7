package fs_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/fwojciec/frmr"
	"github.com/fwojciec/frmr/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scanCorpus(t *testing.T) *frmr.Snapshot {
	t.Helper()
	snap, err := fs.NewScanner().Scan(context.Background(), corpusDir)
	require.NoError(t, err)
	return snap
}

func TestIndexCache_Load(t *testing.T) {
	t.Parallel()

	t.Run("missing file is a miss", func(t *testing.T) {
		t.Parallel()

		cache := fs.NewIndexCache(filepath.Join(t.TempDir(), "index.json"), 1)

		snap, err := cache.Load(context.Background(), "abc")

		require.NoError(t, err)
		assert.Nil(t, snap)
	})

	t.Run("round trips a snapshot", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		orig := scanCorpus(t)
		cache := fs.NewIndexCache(filepath.Join(t.TempDir(), "nested", "index.json"), 1)

		require.NoError(t, cache.Save(ctx, orig, "abc123"))
		loaded, err := cache.Load(ctx, "abc123")
		require.NoError(t, err)
		require.NotNil(t, loaded)

		assert.Equal(t, "abc123", loaded.State.Revision)
		assert.Equal(t, orig.State.BuildID, loaded.State.BuildID)
		assert.True(t, orig.State.IndexedAt.Equal(loaded.State.IndexedAt))
		assert.Equal(t, orig.State.RepoPath, loaded.State.RepoPath)
		assert.Equal(t, orig.State.Documents, loaded.State.Documents)
		assert.Equal(t, orig.State.KsiItems, loaded.State.KsiItems)
		assert.Equal(t, orig.State.ControlMappings, loaded.State.ControlMappings)
		assert.Equal(t, orig.State.MarkdownDocs, loaded.State.MarkdownDocs)
		assert.Equal(t, orig.State.Errors, loaded.State.Errors)
		assert.Equal(t, orig.IndexContent, loaded.IndexContent)
	})

	t.Run("revision mismatch is a miss", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		cache := fs.NewIndexCache(filepath.Join(t.TempDir(), "index.json"), 1)
		require.NoError(t, cache.Save(ctx, scanCorpus(t), "abc"))

		snap, err := cache.Load(ctx, "def")

		require.NoError(t, err)
		assert.Nil(t, snap)
	})

	t.Run("unknown revision on either side is a hit", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		dir := t.TempDir()

		known := fs.NewIndexCache(filepath.Join(dir, "known.json"), 1)
		require.NoError(t, known.Save(ctx, scanCorpus(t), "abc"))
		snap, err := known.Load(ctx, "")
		require.NoError(t, err)
		assert.NotNil(t, snap)

		unknown := fs.NewIndexCache(filepath.Join(dir, "unknown.json"), 1)
		require.NoError(t, unknown.Save(ctx, scanCorpus(t), ""))
		snap, err = unknown.Load(ctx, "def")
		require.NoError(t, err)
		require.NotNil(t, snap)
		assert.Empty(t, snap.State.Revision)
	})

	t.Run("logic version mismatch is a miss", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "index.json")
		require.NoError(t, fs.NewIndexCache(path, 1).Save(ctx, scanCorpus(t), "abc"))

		snap, err := fs.NewIndexCache(path, 2).Load(ctx, "abc")

		require.NoError(t, err)
		assert.Nil(t, snap)
	})

	t.Run("corrupt file returns PARSE_ERROR", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "index.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

		_, err := fs.NewIndexCache(path, 1).Load(context.Background(), "abc")

		assert.Equal(t, frmr.EPARSE, frmr.ErrorCode(err))
	})
}

func TestIndexCache_Save(t *testing.T) {
	t.Parallel()

	t.Run("writes the persisted layout", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "index.json")
		require.NoError(t, fs.NewIndexCache(path, 7).Save(context.Background(), scanCorpus(t), ""))

		data, err := os.ReadFile(path)
		require.NoError(t, err)

		var raw map[string]any
		require.NoError(t, json.Unmarshal(data, &raw))
		assert.Equal(t, 7.0, raw["cacheVersion"])
		assert.Nil(t, raw["repoHead"])
		for _, key := range []string{"indexedAt", "repoPath", "frmrDocuments", "ksiItems", "controlMappings", "markdownDocs", "errors"} {
			assert.Contains(t, raw, key)
		}

		docs := raw["markdownDocs"].([]any)
		require.Len(t, docs, 2)
		first := docs[0].(map[string]any)
		assert.Equal(t, "docs/continuous-monitoring.md", first["path"])
		assert.Contains(t, first, "content")
		assert.Contains(t, first, "indexContent")
	})

	t.Run("leaves no temporary files behind", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		require.NoError(t, fs.NewIndexCache(filepath.Join(dir, "index.json"), 1).Save(context.Background(), scanCorpus(t), "abc"))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "index.json", entries[0].Name())
	})

	t.Run("replaces a previous entry", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		cache := fs.NewIndexCache(filepath.Join(t.TempDir(), "index.json"), 1)
		require.NoError(t, cache.Save(ctx, scanCorpus(t), "old"))
		require.NoError(t, cache.Save(ctx, scanCorpus(t), "new"))

		snap, err := cache.Load(ctx, "new")
		require.NoError(t, err)
		require.NotNil(t, snap)

		snap, err = cache.Load(ctx, "old")
		require.NoError(t, err)
		assert.Nil(t, snap)
	})
}
