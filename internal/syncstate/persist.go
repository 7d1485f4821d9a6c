package syncstate

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/minimem/minimem/internal/atomicfile"
	minierrors "github.com/minimem/minimem/internal/errors"
)

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

// Path returns the sync-state file path for a memory root.
func Path(root string) string {
	return filepath.Join(root, ".minimem", "sync-state.json")
}

// Load reads and, if necessary, migrates the sync-state file at
// <root>/.minimem/sync-state.json. A missing file returns a fresh
// empty v2 state rather than an error.
func Load(root, centralPath string) (*State, error) {
	path := Path(root)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(centralPath), nil
		}
		return nil, minierrors.IOError("read sync state "+path, err)
	}

	var probe struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, minierrors.ValidationError("parse sync state "+path, err)
	}

	if probe.Version == 1 {
		return migrateV1(data)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, minierrors.ValidationError("parse sync state "+path, err)
	}
	if state.Files == nil {
		state.Files = make(map[string]FileEntry)
	}
	return &state, nil
}

// v1FileEntry additionally carried a lastSyncedHash field that v2
// drops — the field was never read by anything but the now-removed
// conflict-detection heuristic it originally served.
type v1FileEntry struct {
	LocalHash      string `json:"localHash"`
	RemoteHash     string `json:"remoteHash"`
	LastSyncedHash string `json:"lastSyncedHash"`
	LastModified   string `json:"lastModified"`
}

type v1Document struct {
	Version     int                    `json:"version"`
	CentralPath string                 `json:"centralPath"`
	LastSync    *string                `json:"lastSync"`
	Files       map[string]v1FileEntry `json:"files"`
}

// migrateV1 discards the v1-only lastSyncedHash field per §4.8.
func migrateV1(data []byte) (*State, error) {
	var doc v1Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, minierrors.ValidationError("parse v1 sync state", err)
	}

	state := New(doc.CentralPath)
	state.Version = SchemaVersion
	if doc.LastSync != nil {
		if t, err := parseTime(*doc.LastSync); err == nil {
			state.LastSync = &t
		}
	}
	for path, v1 := range doc.Files {
		entry := FileEntry{LocalHash: v1.LocalHash, RemoteHash: v1.RemoteHash}
		if t, err := parseTime(v1.LastModified); err == nil {
			entry.LastModified = t
		}
		state.Files[path] = entry
	}
	return state, nil
}

// Save writes the state atomically via copy-then-rename (§4.10.1).
func Save(root string, state *State) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return minierrors.InternalError("marshal sync state", err)
	}
	return atomicfile.WriteFile(Path(root), data, 0o644)
}
