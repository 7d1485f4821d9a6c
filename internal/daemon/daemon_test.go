package daemon

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/minimem/minimem/internal/config"
	"github.com/minimem/minimem/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSyncConfig(t *testing.T, root string, cfg map[string]any) {
	t.Helper()
	dir := filepath.Join(root, ".minimem")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), data, 0o644))
}

func TestDaemon_ReconcileWatchersStartsAndStopsOnMappingChange(t *testing.T) {
	central := t.TempDir()
	local := t.TempDir()

	reg := &registry.Registry{}
	reg.AddMapping(registry.Mapping{CentralPath: "proj/", LocalPath: local, MachineID: "machine-1"})
	require.NoError(t, registry.Save(central, reg))

	writeSyncConfig(t, local, map[string]any{
		"syncEnabled":    true,
		"autosync":       true,
		"centralSubPath": "proj",
	})

	d := New(Options{CentralRepoRoot: central, MachineID: "machine-1", HomeDir: t.TempDir()})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d.reconcileWatchers(ctx)
	d.mu.Lock()
	_, watched := d.watched[local]
	d.mu.Unlock()
	assert.True(t, watched)

	// Remove the mapping; reconcile should stop the watcher.
	reg2, err := registry.Load(central)
	require.NoError(t, err)
	reg2.RemoveMapping("proj/", "machine-1")
	require.NoError(t, registry.Save(central, reg2))

	d.reconcileWatchers(ctx)
	// Stop happens asynchronously; give it a moment.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		d.mu.Lock()
		_, stillWatched := d.watched[local]
		d.mu.Unlock()
		if !stillWatched {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	d.mu.Lock()
	_, stillWatched := d.watched[local]
	d.mu.Unlock()
	assert.False(t, stillWatched)
}

func TestDaemon_ReconcileSkipsMappingsWithoutAutosync(t *testing.T) {
	central := t.TempDir()
	local := t.TempDir()

	reg := &registry.Registry{}
	reg.AddMapping(registry.Mapping{CentralPath: "proj/", LocalPath: local, MachineID: "machine-1"})
	require.NoError(t, registry.Save(central, reg))

	writeSyncConfig(t, local, map[string]any{
		"syncEnabled": true,
		"autosync":    false,
	})

	d := New(Options{CentralRepoRoot: central, MachineID: "machine-1", HomeDir: t.TempDir()})
	d.reconcileWatchers(context.Background())

	d.mu.Lock()
	defer d.mu.Unlock()
	assert.Empty(t, d.watched)
}

func TestDaemon_RemoteRootForJoinsCentralAndSubPath(t *testing.T) {
	d := New(Options{CentralRepoRoot: "/central", MachineID: "machine-1", HomeDir: t.TempDir()})
	got := d.remoteRootFor(config.SyncConfig{CentralSubPath: "proj"})
	assert.Equal(t, filepath.Join("/central", "proj"), got)
}

func TestDaemon_RemoteRootForEmptyWhenCentralUnconfigured(t *testing.T) {
	d := New(Options{MachineID: "machine-1", HomeDir: t.TempDir()})
	got := d.remoteRootFor(config.SyncConfig{CentralSubPath: "proj"})
	assert.Equal(t, "", got)
}

func TestDaemon_RunAcquiresAndReleasesPIDFile(t *testing.T) {
	home := t.TempDir()
	d := New(Options{HomeDir: home, PollInterval: 50 * time.Millisecond, ValidationInterval: 50 * time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()

	err := d.Run(ctx)
	require.NoError(t, err)

	_, statErr := os.Stat(filepath.Join(home, ".minimem", "daemon.pid"))
	assert.True(t, os.IsNotExist(statErr))
}
