package engine

import (
	"bufio"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/minimem/minimem/internal/atomicfile"
	minierrors "github.com/minimem/minimem/internal/errors"
	"github.com/minimem/minimem/internal/index"
)

// validatePath implements §6.6's "validate the path belongs to the
// memory source (§4.4.1) and reject path traversal" rule for every
// path-accepting call.
func (e *Engine) validatePath(relPath string) (string, error) {
	cleaned := filepath.ToSlash(filepath.Clean(relPath))
	if strings.HasPrefix(cleaned, "../") || cleaned == ".." || filepath.IsAbs(cleaned) {
		return "", minierrors.ValidationError("path escapes memory root: "+relPath, nil)
	}
	if !index.BelongsToMemorySource(cleaned) {
		return "", minierrors.ValidationError("path is not part of the memory source: "+relPath, nil)
	}
	return filepath.Join(e.Root, filepath.FromSlash(cleaned)), nil
}

// ListFiles implements §6.6's list-files().
func (e *Engine) ListFiles() ([]string, error) {
	candidates, err := index.EnumerateFiles(e.Root)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(candidates))
	for _, c := range candidates {
		paths = append(paths, c.Path)
	}
	sort.Strings(paths)
	return paths, nil
}

// ReadFile implements §6.6's read-file(path).
func (e *Engine) ReadFile(relPath string) (string, error) {
	absPath, err := e.validatePath(relPath)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(absPath)
	if err != nil {
		return "", minierrors.IOError("read "+relPath, err)
	}
	return string(data), nil
}

// ReadLinesOptions configures ReadLines, per §6.6's
// read-lines(path, {from?, lines?}).
type ReadLinesOptions struct {
	From  int // 1-indexed; 0 means start at line 1
	Lines int // 0 means to end of file
}

// ReadLines implements §6.6's read-lines(path, {from?, lines?}).
func (e *Engine) ReadLines(relPath string, opts ReadLinesOptions) ([]string, error) {
	absPath, err := e.validatePath(relPath)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(absPath)
	if err != nil {
		return nil, minierrors.IOError("read "+relPath, err)
	}
	defer f.Close()

	from := opts.From
	if from < 1 {
		from = 1
	}

	var out []string
	lineNum := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	for scanner.Scan() {
		lineNum++
		if lineNum < from {
			continue
		}
		if opts.Lines > 0 && lineNum >= from+opts.Lines {
			break
		}
		out = append(out, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, minierrors.IOError("read "+relPath, err)
	}
	return out, nil
}

// WriteFile implements §6.6's write-file(path, content): the whole
// file is replaced atomically via temp-write-then-rename.
func (e *Engine) WriteFile(relPath, content string) error {
	absPath, err := e.validatePath(relPath)
	if err != nil {
		return err
	}
	return atomicfile.WriteFile(absPath, []byte(content), 0o644)
}

// AppendFile implements §6.6's append-file(path, content): read the
// current content (if any), append, and replace atomically so a
// concurrent reader never observes a partial write.
func (e *Engine) AppendFile(relPath, content string) error {
	absPath, err := e.validatePath(relPath)
	if err != nil {
		return err
	}
	existing, err := os.ReadFile(absPath)
	if err != nil && !os.IsNotExist(err) {
		return minierrors.IOError("read "+relPath, err)
	}
	return atomicfile.WriteFile(absPath, append(existing, []byte(content)...), 0o644)
}

// AppendToday implements §6.6's append-today(content), writing to
// memory/YYYY-MM-DD.md by the convention in §6.1.
func (e *Engine) AppendToday(content string, now time.Time) (string, error) {
	relPath := "memory/" + now.Format("2006-01-02") + ".md"
	if err := e.AppendFile(relPath, content); err != nil {
		return "", err
	}
	return relPath, nil
}
