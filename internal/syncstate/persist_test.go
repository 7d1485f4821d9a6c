package syncstate

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsFreshState(t *testing.T) {
	root := t.TempDir()
	state, err := Load(root, "proj/")
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, state.Version)
	assert.Equal(t, "proj/", state.CentralPath)
	assert.Empty(t, state.Files)
}

func TestSaveThenLoad_RoundTrips(t *testing.T) {
	root := t.TempDir()
	state := New("proj/")
	state.Files["MEMORY.md"] = FileEntry{
		LocalHash:    "aaa",
		RemoteHash:   "aaa",
		LastModified: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, Save(root, state))

	loaded, err := Load(root, "proj/")
	require.NoError(t, err)
	assert.Equal(t, "aaa", loaded.Files["MEMORY.md"].LocalHash)
}

func TestSave_WritesViaTempAndRename(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, Save(root, New("proj/")))

	entries, err := os.ReadDir(filepath.Join(root, ".minimem"))
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp")
	}
}

func TestLoad_MigratesV1DiscardingLastSyncedHash(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".minimem"), 0o755))
	v1 := `{
		"version": 1,
		"centralPath": "proj/",
		"lastSync": "2024-01-15T10:30:00Z",
		"files": {
			"MEMORY.md": {
				"localHash": "aaa",
				"remoteHash": "bbb",
				"lastSyncedHash": "ccc",
				"lastModified": "2024-01-15T10:30:00Z"
			}
		}
	}`
	require.NoError(t, os.WriteFile(Path(root), []byte(v1), 0o644))

	state, err := Load(root, "proj/")
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, state.Version)
	assert.Equal(t, "aaa", state.Files["MEMORY.md"].LocalHash)
	assert.Equal(t, "bbb", state.Files["MEMORY.md"].RemoteHash)
	require.NotNil(t, state.LastSync)
}
