package registry

import (
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

// lockFileName is the advisory lock guarding the registry file itself.
// The atomic rename in Save prevents torn reads but not a lost update
// when two processes race a read-modify-write against the same
// registry (§4.9's check-collision/add-mapping path).
const lockFileName = ".minimem-registry.lock"

// WithLock runs fn while holding an exclusive, cross-process lock on
// the registry at centralRoot. Callers that read, mutate, and save the
// registry should do so inside fn to avoid losing a concurrent
// writer's update.
func WithLock(centralRoot string, fn func() error) error {
	fl := flock.New(filepath.Join(centralRoot, lockFileName))
	if err := fl.Lock(); err != nil {
		return fmt.Errorf("lock registry: %w", err)
	}
	defer fl.Unlock()

	return fn()
}
