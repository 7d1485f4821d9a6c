package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// GlobalConfig holds the process-wide, machine-scoped state: this
// machine's stable identity and the central repo used for sync. Per
// the Design Note on global state, it is read-through: loaded lazily,
// cached for the process lifetime, and invalidated only by explicit
// reconfiguration (SetCentralRepo).
type GlobalConfig struct {
	MachineID   string `yaml:"machineId"`
	CentralRepo string `yaml:"centralRepo,omitempty"`
}

var (
	globalMu    sync.Mutex
	globalCache *GlobalConfig
)

var hostnameSanitizer = regexp.MustCompile(`[^a-z0-9-]+`)

// GetGlobalConfigPath returns the path to the global config file,
// following the XDG Base Directory convention:
//   - $XDG_CONFIG_HOME/minimem/global.yaml
//   - ~/.config/minimem/global.yaml (default)
func GetGlobalConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "minimem", "global.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "minimem", "global.yaml")
	}
	return filepath.Join(home, ".config", "minimem", "global.yaml")
}

// LoadGlobalConfig reads the global config, generating and persisting
// a fresh machine-id on first run. Subsequent calls within the same
// process return the cached value.
func LoadGlobalConfig() (*GlobalConfig, error) {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalCache != nil {
		return globalCache, nil
	}

	path := GetGlobalConfigPath()
	cfg := &GlobalConfig{}

	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse global config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read global config %s: %w", path, err)
	}

	if cfg.MachineID == "" {
		id, err := generateMachineID()
		if err != nil {
			return nil, fmt.Errorf("generate machine id: %w", err)
		}
		cfg.MachineID = id
		if err := writeGlobalConfig(path, cfg); err != nil {
			return nil, err
		}
	}

	globalCache = cfg
	return cfg, nil
}

// SetCentralRepo updates and persists the central repo path, and
// invalidates the in-process cache so the next LoadGlobalConfig call
// reflects it.
func SetCentralRepo(path string) error {
	globalMu.Lock()
	defer globalMu.Unlock()

	cfgPath := GetGlobalConfigPath()
	cfg := globalCache
	if cfg == nil {
		cfg = &GlobalConfig{}
		if data, err := os.ReadFile(cfgPath); err == nil {
			_ = yaml.Unmarshal(data, cfg)
		}
	}
	if cfg.MachineID == "" {
		id, err := generateMachineID()
		if err != nil {
			return fmt.Errorf("generate machine id: %w", err)
		}
		cfg.MachineID = id
	}
	cfg.CentralRepo = path

	if err := writeGlobalConfig(cfgPath, cfg); err != nil {
		return err
	}
	globalCache = cfg
	return nil
}

// writeGlobalConfig writes cfg to path via a temp-file-then-rename, so
// a crash mid-write never leaves a truncated global config.
func writeGlobalConfig(path string, cfg *GlobalConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create global config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal global config: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write global config temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename global config into place: %w", err)
	}
	return nil
}

// generateMachineID builds a stable-looking identity from the
// sanitized hostname plus 4 random hex characters, e.g. "laptop-a1b2".
func generateMachineID() (string, error) {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "host"
	}
	host = strings.ToLower(host)
	if idx := strings.Index(host, "."); idx > 0 {
		host = host[:idx]
	}
	host = hostnameSanitizer.ReplaceAllString(host, "-")
	host = strings.Trim(host, "-")
	if host == "" {
		host = "host"
	}

	suffix := make([]byte, 2)
	if _, err := rand.Read(suffix); err != nil {
		return "", err
	}

	return fmt.Sprintf("%s-%s", host, hex.EncodeToString(suffix)), nil
}
