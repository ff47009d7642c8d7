package fs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fwojciec/frmr"
	"github.com/fwojciec/frmr/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const corpusDir = "testdata/corpus"

func TestScanner_Scan(t *testing.T) {
	t.Parallel()

	t.Run("records a malformed file and keeps the well-formed ones", func(t *testing.T) {
		t.Parallel()

		snap, err := fs.NewScanner().Scan(context.Background(), corpusDir)
		require.NoError(t, err)

		state := snap.State
		require.Len(t, state.Documents, 3)
		assert.Equal(t, "data/FRMR.FRD.definitions.json", state.Documents[0].Path)
		assert.Equal(t, "data/FRMR.KSI.key-security-indicators.json", state.Documents[1].Path)
		assert.Equal(t, "data/FRMR.MAS.minimum-assessment-scope.json", state.Documents[2].Path)

		require.Len(t, state.Errors, 1)
		assert.Contains(t, state.Errors[0], "Failed to parse JSON file broken/FRMR.VDR.broken.json")
	})

	t.Run("skips ignored directories", func(t *testing.T) {
		t.Parallel()

		snap, err := fs.NewScanner().Scan(context.Background(), corpusDir)
		require.NoError(t, err)

		for _, doc := range snap.State.Documents {
			assert.NotContains(t, doc.Path, "node_modules")
			assert.NotContains(t, doc.Path, "build/")
		}
	})

	t.Run("extracts KSI items and control mappings", func(t *testing.T) {
		t.Parallel()

		snap, err := fs.NewScanner().Scan(context.Background(), corpusDir)
		require.NoError(t, err)

		var ids []string
		for _, item := range snap.State.KsiItems {
			ids = append(ids, item.ID)
		}
		assert.Equal(t, []string{"KSI-IAM-MFA", "KSI-IAM-AAM", "KSI-SVC-VRI"}, ids)

		var controls []string
		for _, m := range snap.State.ControlMappings {
			controls = append(controls, m.Control)
		}
		assert.Equal(t, []string{"IA-2", "IA-2", "AC-2", "SC-13", "SI-7", "AC-2"}, controls)
	})

	t.Run("indexes markdown with code blocks stripped", func(t *testing.T) {
		t.Parallel()

		snap, err := fs.NewScanner().Scan(context.Background(), corpusDir)
		require.NoError(t, err)

		require.Len(t, snap.State.MarkdownDocs, 2)
		doc := snap.State.MarkdownDocs["docs/significant-change.md"]
		require.NotNil(t, doc)
		assert.Contains(t, doc.Content, "control: SC-7(5)")
		assert.Equal(t, "Significant Change Notifications", doc.Headings[0].Title)

		stripped := snap.IndexContent["docs/significant-change.md"]
		assert.NotContains(t, stripped, "control: SC-7(5)")
		assert.Contains(t, stripped, "Boundary changes")
	})

	t.Run("is deterministic across runs", func(t *testing.T) {
		t.Parallel()

		now := func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }
		scanner := &fs.Scanner{Ignore: fs.DefaultIgnore, Concurrency: 3, Now: now}

		a, err := scanner.Scan(context.Background(), corpusDir)
		require.NoError(t, err)
		b, err := scanner.Scan(context.Background(), corpusDir)
		require.NoError(t, err)

		a.State.BuildID, b.State.BuildID = "", ""
		assert.Equal(t, a, b)
	})

	t.Run("empty corpus yields an empty state", func(t *testing.T) {
		t.Parallel()

		snap, err := fs.NewScanner().Scan(context.Background(), t.TempDir())
		require.NoError(t, err)

		assert.Empty(t, snap.State.Documents)
		assert.Empty(t, snap.State.MarkdownDocs)
		assert.Empty(t, snap.State.Errors)
		assert.NotEmpty(t, snap.State.BuildID)
	})

	t.Run("honors cancellation", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "a.json"), []byte(`{}`), 0644))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := fs.NewScanner().Scan(ctx, dir)

		assert.ErrorIs(t, err, context.Canceled)
	})
}

// Ensure the default scanner satisfies the domain interface.
var _ frmr.Scanner = fs.NewScanner()
