package index

import (
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	minierrors "github.com/minimem/minimem/internal/errors"
)

// DefaultSource is the source tag stamped on every file enumerated by
// EnumerateFiles. Other source tags (e.g. "skill") reuse the same
// pipeline per §6.9's glossary note but are not discovered here.
const DefaultSource = "memory"

// Candidate is one file belonging to the memory source, discovered by
// EnumerateFiles, per §4.4.1.
type Candidate struct {
	Path    string // relative to root, "/"-separated
	AbsPath string
	Source  string
	Hash    string // sha256 hex of file content
	MTime   int64  // unix millis
	Size    int64
}

// EnumerateFiles walks root and returns every file belonging to the
// memory source: exactly MEMORY.md (case-insensitively, per the case
// rule below) or matching memory/*.md. Dotfiles and .minimem/ are
// excluded. Only regular files are accepted.
func EnumerateFiles(root string) ([]*Candidate, error) {
	if err := checkCaseCollision(root); err != nil {
		return nil, err
	}

	var out []*Candidate
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
		name := d.Name()

		if d.IsDir() {
			if strings.HasPrefix(name, ".") || rel == ".minimem" {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(name, ".") {
			return nil
		}
		if !BelongsToMemorySource(rel) {
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return minierrors.IOError("read candidate file "+rel, err)
		}

		out = append(out, &Candidate{
			Path:    rel,
			AbsPath: path,
			Source:  DefaultSource,
			Hash:    hashBytes(content),
			MTime:   info.ModTime().UnixMilli(),
			Size:    info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, minierrors.IOError("enumerate memory root "+root, err)
	}
	return out, nil
}

// BelongsToMemorySource implements §4.4.1's membership rule: exactly
// MEMORY.md (case-insensitive, see checkCaseCollision) or starting
// with memory/ and ending in .md.
func BelongsToMemorySource(rel string) bool {
	if strings.EqualFold(rel, "MEMORY.md") {
		return true
	}
	return strings.HasPrefix(rel, "memory/") && strings.HasSuffix(rel, ".md")
}

// checkCaseCollision fails if MEMORY.md and memory.md both exist as
// distinct files at the root (§4.4.1's case rule). On a case-sensitive
// filesystem they can coexist as separate inodes; that is ambiguous
// and rejected rather than silently preferring one.
func checkCaseCollision(root string) error {
	upper := filepath.Join(root, "MEMORY.md")
	lower := filepath.Join(root, "memory.md")

	infoUpper, errUpper := os.Lstat(upper)
	infoLower, errLower := os.Lstat(lower)
	if errUpper != nil || errLower != nil {
		return nil
	}
	if os.SameFile(infoUpper, infoLower) {
		return nil
	}
	return minierrors.New(minierrors.ErrCodeCaseCollision,
		"both MEMORY.md and memory.md exist as distinct files at the memory root", nil)
}

func hashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
