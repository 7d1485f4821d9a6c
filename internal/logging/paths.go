package logging

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultLogDir returns the default global log directory (~/.minimem/).
// Falls back to a temp directory if the home directory is unavailable.
func DefaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".minimem")
	}
	return filepath.Join(home, ".minimem")
}

// DefaultLogPath returns the default daemon log path (~/.minimem/daemon.log).
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), "daemon.log")
}

// RootLogPath returns the per-root log path for a memory root, i.e.
// <root>/.minimem/minimem.log.
func RootLogPath(root string) string {
	return filepath.Join(root, ".minimem", "minimem.log")
}

// FindLogFile locates a log file for viewing: an explicit path if given and
// present, otherwise the default daemon log path.
func FindLogFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit, nil
		}
		return "", fmt.Errorf("log file not found: %s", explicit)
	}

	global := DefaultLogPath()
	if _, err := os.Stat(global); err == nil {
		return global, nil
	}
	return "", fmt.Errorf("no log file found; expected at %s", global)
}

// EnsureLogDir creates the global log directory if it doesn't exist.
func EnsureLogDir() error {
	return os.MkdirAll(DefaultLogDir(), 0o755)
}
