package syncstate

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ListSyncable implements §4.8's utility: sorted relative paths under
// root matching at least one include glob, no exclude glob, and not
// under .minimem/. A missing root yields an empty list rather than an
// error, per §7's filesystem-error rule for enumeration.
func ListSyncable(root string, include, exclude []string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel == ".minimem" || strings.HasPrefix(rel, ".minimem/") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(rel, ".minimem/") {
			return nil
		}
		if matchesAny(rel, exclude) {
			return nil
		}
		if matchesAny(rel, include) {
			out = append(out, rel)
		}
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

func matchesAny(rel string, patterns []string) bool {
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, rel); err == nil && ok {
			return true
		}
	}
	return false
}
