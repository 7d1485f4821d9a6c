package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startTestWatcher(t *testing.T, root string, opts Options) *FSWatcher {
	t.Helper()
	opts.Debounce = 20 * time.Millisecond
	opts.StabilityWindow = 20 * time.Millisecond
	w := NewFSWatcher(opts)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx, root))
	t.Cleanup(func() {
		cancel()
		_ = w.Stop()
	})
	return w
}

func awaitBatch(t *testing.T, w *FSWatcher) []FileEvent {
	t.Helper()
	select {
	case batch := <-w.Events():
		return batch
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for watcher batch")
		return nil
	}
}

func TestFSWatcher_EmitsAddForNewFile(t *testing.T) {
	root := t.TempDir()
	w := startTestWatcher(t, root, Options{})

	require.NoError(t, os.WriteFile(filepath.Join(root, "MEMORY.md"), []byte("# hi\n"), 0o644))

	batch := awaitBatch(t, w)
	require.NotEmpty(t, batch)
	assert.Equal(t, "MEMORY.md", batch[0].Path)
	assert.Equal(t, OpAdd, batch[0].Operation)
}

func TestFSWatcher_EmitsUnlinkForRemovedFile(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "MEMORY.md")
	require.NoError(t, os.WriteFile(path, []byte("# hi\n"), 0o644))

	w := startTestWatcher(t, root, Options{})

	require.NoError(t, os.Remove(path))

	batch := awaitBatch(t, w)
	require.NotEmpty(t, batch)
	assert.Equal(t, OpUnlink, batch[0].Operation)
}

func TestFSWatcher_IgnoresMinimemDir(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".minimem"), 0o755))
	w := startTestWatcher(t, root, Options{})

	require.NoError(t, os.WriteFile(filepath.Join(root, ".minimem", "index.db"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "MEMORY.md"), []byte("# hi\n"), 0o644))

	batch := awaitBatch(t, w)
	for _, e := range batch {
		assert.NotContains(t, e.Path, ".minimem")
	}
}

func TestFSWatcher_ExcludeGlobFiltersPath(t *testing.T) {
	root := t.TempDir()
	w := startTestWatcher(t, root, Options{Exclude: []string{"*.tmp"}})

	require.NoError(t, os.WriteFile(filepath.Join(root, "scratch.tmp"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "MEMORY.md"), []byte("# hi\n"), 0o644))

	batch := awaitBatch(t, w)
	for _, e := range batch {
		assert.NotEqual(t, "scratch.tmp", e.Path)
	}
}
