package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gofrs/flock"
)

// PIDFile backs §4.12 step 1's single-instance guard with an advisory
// flock on the PID file itself rather than a liveness probe against
// the stored PID: a flock releases automatically when the holding
// process exits (including a crash), so there's no window where a
// reused PID is mistaken for the original daemon.
type PIDFile struct {
	path string
	lock *flock.Flock
}

// NewPIDFile creates a new PIDFile manager for the given path.
func NewPIDFile(path string) *PIDFile {
	return &PIDFile{path: path, lock: flock.New(path)}
}

// Path returns the PID file path.
func (p *PIDFile) Path() string {
	return p.path
}

// TryAcquire attempts to take the advisory lock on the PID file
// without blocking and, on success, writes the current process's PID.
// Returns false if another live process already holds the lock.
func (p *PIDFile) TryAcquire() (bool, error) {
	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return false, fmt.Errorf("create PID directory: %w", err)
	}

	acquired, err := p.lock.TryLock()
	if err != nil {
		return false, fmt.Errorf("acquire PID lock: %w", err)
	}
	if !acquired {
		return false, nil
	}

	if err := os.WriteFile(p.path, []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
		_ = p.lock.Unlock()
		return false, fmt.Errorf("write PID file: %w", err)
	}
	return true, nil
}

// Release unlocks and removes the PID file. Safe to call even if
// TryAcquire was never called or never succeeded.
func (p *PIDFile) Release() error {
	if err := p.lock.Unlock(); err != nil {
		return fmt.Errorf("release PID lock: %w", err)
	}
	if err := os.Remove(p.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove PID file: %w", err)
	}
	return nil
}

// Read reads the PID recorded in the file, for diagnostics.
func (p *PIDFile) Read() (int, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(string(data))
	if err != nil {
		return 0, fmt.Errorf("invalid PID in %s: %w", p.path, err)
	}
	return pid, nil
}
