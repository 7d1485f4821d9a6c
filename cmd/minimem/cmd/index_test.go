package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexCmd_IndexesMemoryRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "MEMORY.md"), []byte("We use PostgreSQL.\n"), 0o644))

	cmd := newIndexCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--root", root})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "1 files")
}

func TestIndexCmd_ReportsZeroFilesForEmptyRoot(t *testing.T) {
	root := t.TempDir()

	cmd := newIndexCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--root", root})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "0 files")
}
