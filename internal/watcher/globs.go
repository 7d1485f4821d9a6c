package watcher

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// minimemDir is always excluded regardless of the configured patterns.
const minimemDir = ".minimem/"

// matches reports whether rel (the "/"-separated path relative to the
// watched root) passes the include/exclude filter, per §4.7: paths
// under .minimem/ never match; an exclude glob always wins; an empty
// include list matches everything else.
func matches(rel string, include, exclude []string) bool {
	if strings.HasPrefix(rel, minimemDir) {
		return false
	}
	for _, pattern := range exclude {
		if globMatch(pattern, rel) {
			return false
		}
	}
	if len(include) == 0 {
		return true
	}
	for _, pattern := range include {
		if globMatch(pattern, rel) {
			return true
		}
	}
	return false
}

func globMatch(pattern, rel string) bool {
	ok, err := doublestar.Match(pattern, rel)
	return err == nil && ok
}
