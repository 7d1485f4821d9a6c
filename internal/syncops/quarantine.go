package syncops

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/minimem/minimem/internal/atomicfile"
	minierrors "github.com/minimem/minimem/internal/errors"
)

const quarantineDirName = "conflicts"

// QuarantineSet is one conflict snapshot: a timestamp directory and
// the relative paths quarantined under it.
type QuarantineSet struct {
	Timestamp string
	Files     []string
}

// Quarantine writes a non-blocking manual-review snapshot of both
// sides of a conflicting file under
// <root>/.minimem/conflicts/<timestamp>/<path-with-slashes-as-underscores>.{local,remote}
// It never fails the calling sync operation; callers should log and
// continue on error.
func Quarantine(root, relPath string, localContent, remoteContent []byte, now time.Time) error {
	stamp := now.UTC().Format("20060102T150405Z")
	dir := filepath.Join(root, ".minimem", quarantineDirName, stamp)
	base := strings.ReplaceAll(relPath, "/", "_")

	if err := atomicfile.WriteFile(filepath.Join(dir, base+".local"), localContent, 0o644); err != nil {
		return err
	}
	if err := atomicfile.WriteFile(filepath.Join(dir, base+".remote"), remoteContent, 0o644); err != nil {
		return err
	}
	return nil
}

// ListQuarantined lists conflict snapshots newest-first.
func ListQuarantined(root string) ([]QuarantineSet, error) {
	dir := filepath.Join(root, ".minimem", quarantineDirName)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, minierrors.IOError("list quarantine directory", err)
	}

	var sets []QuarantineSet
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		files, err := os.ReadDir(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		set := QuarantineSet{Timestamp: e.Name()}
		for _, f := range files {
			set.Files = append(set.Files, f.Name())
		}
		sort.Strings(set.Files)
		sets = append(sets, set)
	}

	sort.Slice(sets, func(i, j int) bool { return sets[i].Timestamp > sets[j].Timestamp })
	return sets, nil
}
