package registry

import (
	"os"
	"path"
	"strings"
)

// NormalizeCentralPath canonicalizes a central sub-path to end in "/",
// with "/" itself treated as the special root, per §4.9.
func NormalizeCentralPath(p string) string {
	p = path.Clean("/" + strings.TrimSpace(p))
	p = strings.TrimPrefix(p, "/")
	if p == "" || p == "." {
		return "/"
	}
	if !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return p
}

// NormalizeLocalPathForComparison expands a leading "~" to the user's
// home directory, so two differently-spelled local paths that point
// to the same checkout compare equal.
func NormalizeLocalPathForComparison(p string) string {
	p = strings.TrimSpace(p)
	if p == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			return home
		}
		return p
	}
	if strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return path.Join(home, strings.TrimPrefix(p, "~/"))
		}
	}
	return p
}

// NormalizeLocalPathForStorage compresses a leading $HOME back to "~"
// before a local path is written to the registry, so the file stays
// portable across machines with different home directories.
func NormalizeLocalPathForStorage(p string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return p
	}
	if p == home {
		return "~"
	}
	if strings.HasPrefix(p, home+"/") {
		return "~" + strings.TrimPrefix(p, home)
	}
	return p
}
