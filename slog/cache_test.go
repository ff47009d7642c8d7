package slog_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/fwojciec/frmr"
	"github.com/fwojciec/frmr/mock"
	frmrslog "github.com/fwojciec/frmr/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func debugLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestLoggingCache_Load(t *testing.T) {
	t.Parallel()

	t.Run("logs hit", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.IndexCache{
			LoadFn: func(ctx context.Context, revision string) (*frmr.Snapshot, error) {
				return &frmr.Snapshot{State: &frmr.IndexState{}}, nil
			},
		}

		snap, err := frmrslog.NewLoggingCache(inner, debugLogger(&buf)).Load(context.Background(), "rev1")

		require.NoError(t, err)
		assert.NotNil(t, snap)
		output := buf.String()
		assert.Contains(t, output, "cache load")
		assert.Contains(t, output, "revision=rev1")
		assert.Contains(t, output, "hit=true")
	})

	t.Run("logs miss", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.IndexCache{
			LoadFn: func(ctx context.Context, revision string) (*frmr.Snapshot, error) {
				return nil, nil
			},
		}

		snap, err := frmrslog.NewLoggingCache(inner, debugLogger(&buf)).Load(context.Background(), "rev1")

		require.NoError(t, err)
		assert.Nil(t, snap)
		assert.Contains(t, buf.String(), "hit=false")
	})
}

func TestLoggingCache_Save(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	inner := &mock.IndexCache{
		SaveFn: func(ctx context.Context, snapshot *frmr.Snapshot, revision string) error {
			return errors.New("disk full")
		},
	}
	snap := &frmr.Snapshot{State: &frmr.IndexState{Documents: []*frmr.Document{{Path: "a.json"}}}}

	err := frmrslog.NewLoggingCache(inner, debugLogger(&buf)).Save(context.Background(), snap, "rev1")

	require.Error(t, err)
	output := buf.String()
	assert.Contains(t, output, "cache save")
	assert.Contains(t, output, "documents=1")
	assert.Contains(t, output, "err=\"disk full\"")
}
