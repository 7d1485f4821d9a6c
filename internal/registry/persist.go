package registry

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/minimem/minimem/internal/atomicfile"
	minierrors "github.com/minimem/minimem/internal/errors"
)

// FileName is the registry's file name under the central repo root.
const FileName = ".minimem-registry.json"

// Path returns the registry file path under a central repo root.
func Path(centralRoot string) string {
	return filepath.Join(centralRoot, FileName)
}

// Load reads the registry. A missing or malformed file returns an
// empty registry rather than an error, per §4.9 — a validator run
// separately reports the malformed case.
func Load(centralRoot string) (*Registry, error) {
	data, err := os.ReadFile(Path(centralRoot))
	if err != nil {
		return &Registry{Version: SchemaVersion}, nil
	}
	var reg Registry
	if err := json.Unmarshal(data, &reg); err != nil {
		return &Registry{Version: SchemaVersion}, nil
	}
	if reg.Version == 0 {
		reg.Version = SchemaVersion
	}
	return &reg, nil
}

// LoadStrict is like Load but surfaces the malformed-file case as a
// ValidationError, for callers (the validator) that need to report it
// rather than silently recover.
func LoadStrict(centralRoot string) (*Registry, error) {
	data, err := os.ReadFile(Path(centralRoot))
	if err != nil {
		if os.IsNotExist(err) {
			return &Registry{Version: SchemaVersion}, nil
		}
		return nil, minierrors.IOError("read registry", err)
	}
	var reg Registry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, minierrors.ValidationError("malformed registry file", err)
	}
	if reg.Version == 0 {
		reg.Version = SchemaVersion
	}
	return &reg, nil
}

// Save writes the registry atomically via copy-then-rename (§4.9).
func Save(centralRoot string, reg *Registry) error {
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return minierrors.InternalError("marshal registry", err)
	}
	return atomicfile.WriteFile(Path(centralRoot), data, 0o644)
}
