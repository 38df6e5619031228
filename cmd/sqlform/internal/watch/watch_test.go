// Copyright 2026 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package watch_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canonical/sqlform/cmd/sqlform/internal/watch"
)

func TestRunCallsOnWrite(t *testing.T) {
	watch.Debounce = 10 * time.Millisecond
	dir := t.TempDir()
	file := filepath.Join(dir, "query.yaml")
	require.NoError(t, os.WriteFile(file, []byte("template: SELECT 1\n"), 0644))

	calls := make(chan struct{}, 10)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() {
		done <- watch.Run(ctx, slog.New(slog.NewTextHandler(io.Discard, nil)), file, func() error {
			calls <- struct{}{}
			return nil
		})
	}()

	select {
	case <-calls:
	case <-time.After(5 * time.Second):
		t.Fatal("no initial call")
	}

	// Writes to other files in the directory are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x"), 0644))
	select {
	case <-calls:
		t.Fatal("called for another file")
	case <-time.After(100 * time.Millisecond):
	}

	require.NoError(t, os.WriteFile(file, []byte("template: SELECT 2\n"), 0644))
	select {
	case <-calls:
	case <-time.After(5 * time.Second):
		t.Fatal("no call after write")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestRunMissingDirectory(t *testing.T) {
	err := watch.Run(context.Background(), slog.Default(), filepath.Join(t.TempDir(), "nope", "query.yaml"), func() error {
		return nil
	})
	assert.ErrorContains(t, err, "cannot watch")
}
