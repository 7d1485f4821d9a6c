package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsStale_FalseImmediatelyAfterIndexing(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "MEMORY.md", "# Notes\n\nStable content.\n")

	ix, _ := newTestIndexer(t, root)
	ctx := context.Background()
	_, err := ix.Run(ctx, root, false)
	require.NoError(t, err)

	stale, err := ix.IsStale(ctx, root)
	require.NoError(t, err)
	assert.False(t, stale)
}

func TestIsStale_TrueAfterFileCountChanges(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "MEMORY.md", "# Notes\n\nStable content.\n")

	ix, _ := newTestIndexer(t, root)
	ctx := context.Background()
	_, err := ix.Run(ctx, root, false)
	require.NoError(t, err)

	writeFile(t, root, "memory/new.md", "# New\n\nAnother file.\n")

	stale, err := ix.IsStale(ctx, root)
	require.NoError(t, err)
	assert.True(t, stale)
}

func TestIsStale_TrueAfterMTimeChangesWithoutContentWrite(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "MEMORY.md", "# Notes\n\nStable content.\n")

	ix, _ := newTestIndexer(t, root)
	ctx := context.Background()
	_, err := ix.Run(ctx, root, false)
	require.NoError(t, err)

	future := time.Now().Add(2 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(root, "MEMORY.md"), future, future))

	stale, err := ix.IsStale(ctx, root)
	require.NoError(t, err)
	assert.True(t, stale)
}

func TestEnsureFresh_ReindexesWhenStale(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "MEMORY.md", "# Notes\n\nStable content.\n")

	ix, s := newTestIndexer(t, root)
	ctx := context.Background()
	_, err := ix.Run(ctx, root, false)
	require.NoError(t, err)

	writeFile(t, root, "memory/extra.md", "# Extra\n\nMore content.\n")
	require.NoError(t, ix.EnsureFresh(ctx, root))

	files, err := s.ListFiles(ctx)
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestEnsureFresh_NoopWhenFresh(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "MEMORY.md", "# Notes\n\nStable content.\n")

	ix, _ := newTestIndexer(t, root)
	ctx := context.Background()
	result, err := ix.Run(ctx, root, false)
	require.NoError(t, err)

	stale, err := ix.IsStale(ctx, root)
	require.NoError(t, err)
	assert.False(t, stale)

	require.NoError(t, ix.EnsureFresh(ctx, root))
	assert.Equal(t, 1, result.FilesProcessed)
}
