package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// SyncConfig is the subset of <R>/.minimem/config.json the sync
// subsystem reads. The file itself is owned and written by the
// external CLI collaborator (§6.1); the engine only consumes it.
type SyncConfig struct {
	Enabled        bool     `json:"syncEnabled"`
	AutoSync       bool     `json:"autosync"`
	CentralRepo    string   `json:"centralRepo"`
	CentralSubPath string   `json:"centralSubPath"`
	IncludeGlobs   []string `json:"includeGlobs"`
	ExcludeGlobs   []string `json:"excludeGlobs"`
}

// LoadSyncConfig reads <root>/.minimem/config.json. A missing file
// yields a SyncConfig with sync disabled and the default globs rather
// than an error, matching §7's "non-initialized root" being a
// caller-surfaced ConfigError only at the point sync is actually
// attempted.
func LoadSyncConfig(root string) (SyncConfig, error) {
	path := filepath.Join(root, ".minimem", "config.json")
	var cfg SyncConfig
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return SyncConfig{}, err
		}
	} else if err := json.Unmarshal(data, &cfg); err != nil {
		return SyncConfig{}, err
	}
	if len(cfg.IncludeGlobs) == 0 {
		cfg.IncludeGlobs = []string{"**/*.md"}
	}
	if len(cfg.ExcludeGlobs) == 0 {
		cfg.ExcludeGlobs = []string{"**/.minimem/**"}
	}
	return cfg, nil
}

// MachineID returns this machine's stable identifier for registry
// mappings (§4.9), sourced from the global config alongside the
// central-repo path so both live in one place.
func MachineID() (string, error) {
	g, err := LoadGlobalConfig()
	if err != nil {
		return "", err
	}
	return g.MachineID, nil
}
