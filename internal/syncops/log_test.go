package syncops

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendLog_WritesOneLinePerCall(t *testing.T) {
	root := t.TempDir()
	appendLog(root, &Result{Operation: "push", Result: Success, Pushed: 1, Timestamp: time.Now()})
	appendLog(root, &Result{Operation: "pull", Result: Success, Pulled: 2, Timestamp: time.Now()})

	data, err := os.ReadFile(filepath.Join(root, ".minimem", "sync.log"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	assert.Len(t, lines, 2)
}

func TestAppendLog_CapsAtMaxEntries(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < maxLogEntries+10; i++ {
		appendLog(root, &Result{Operation: "push", Result: Success, Timestamp: time.Now()})
	}

	data, err := os.ReadFile(filepath.Join(root, ".minimem", "sync.log"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	assert.Len(t, lines, maxLogEntries)
}
