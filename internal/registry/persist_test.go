package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsEmptyRegistry(t *testing.T) {
	reg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, reg.Version)
	assert.Empty(t, reg.Mappings)
}

func TestLoad_MalformedFileReturnsEmptyRegistry(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(Path(root), []byte("not json"), 0o644))

	reg, err := Load(root)
	require.NoError(t, err)
	assert.Empty(t, reg.Mappings)
}

func TestLoadStrict_MalformedFileReturnsError(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(Path(root), []byte("not json"), 0o644))

	_, err := LoadStrict(root)
	assert.Error(t, err)
}

func TestSaveThenLoad_RoundTrips(t *testing.T) {
	root := t.TempDir()
	reg := &Registry{Version: SchemaVersion}
	reg.AddMapping(Mapping{CentralPath: "proj/", LocalPath: "~/code/proj", MachineID: "laptop-a"})

	require.NoError(t, Save(root, reg))

	loaded, err := Load(root)
	require.NoError(t, err)
	require.Len(t, loaded.Mappings, 1)
	assert.Equal(t, "proj/", loaded.Mappings[0].CentralPath)
}

func TestSave_NoStrayTempFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, Save(root, &Registry{Version: SchemaVersion}))

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, filepath.Ext(e.Name()) == ".tmp")
	}
}
