package index

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestEnumerateFiles_FindsMemoryMDAndMemoryDir(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "MEMORY.md", "# notes")
	writeFile(t, root, "memory/2026-08-01.md", "# daily")
	writeFile(t, root, "memory/nested/topic.md", "# nested")
	writeFile(t, root, "README.md", "not memory")
	writeFile(t, root, ".hidden.md", "dotfile")
	writeFile(t, root, ".minimem/index.db", "ignored")

	candidates, err := EnumerateFiles(root)
	require.NoError(t, err)

	var paths []string
	for _, c := range candidates {
		paths = append(paths, c.Path)
	}
	assert.ElementsMatch(t, []string{
		"MEMORY.md",
		"memory/2026-08-01.md",
		"memory/nested/topic.md",
	}, paths)
}

func TestEnumerateFiles_ExcludesMinimemAndDotfiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "MEMORY.md", "# notes")
	writeFile(t, root, ".minimem/engine.json", "{}")
	writeFile(t, root, ".git/config", "ignored")

	candidates, err := EnumerateFiles(root)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "MEMORY.md", candidates[0].Path)
}

func TestEnumerateFiles_StampsDefaultSource(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "MEMORY.md", "# notes")

	candidates, err := EnumerateFiles(root)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, DefaultSource, candidates[0].Source)
	assert.Len(t, candidates[0].Hash, 64)
}

func TestEnumerateFiles_EmptyRootYieldsNoCandidates(t *testing.T) {
	root := t.TempDir()
	candidates, err := EnumerateFiles(root)
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestBelongsToMemorySource(t *testing.T) {
	assert.True(t, BelongsToMemorySource("MEMORY.md"))
	assert.True(t, BelongsToMemorySource("memory.md"))
	assert.True(t, BelongsToMemorySource("memory/foo.md"))
	assert.True(t, BelongsToMemorySource("memory/nested/foo.md"))
	assert.False(t, BelongsToMemorySource("README.md"))
	assert.False(t, BelongsToMemorySource("memoryfoo.md"))
	assert.False(t, BelongsToMemorySource("memory/foo.txt"))
}
