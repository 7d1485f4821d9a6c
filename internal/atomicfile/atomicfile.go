// Package atomicfile implements the copy-then-rename write pattern
// used throughout the sync subsystem (§4.10.1, §4.9): write to
// "<dest>.<rand>.tmp" in the destination's own directory, then rename
// over the destination. The temp file is unlinked on any error so a
// failed write never leaves a stray partial file behind.
package atomicfile

import (
	"crypto/rand"
	"encoding/hex"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	minierrors "github.com/minimem/minimem/internal/errors"
)

func randSuffix() string {
	var b [4]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}

func tempPath(dest string) string {
	return dest + "." + randSuffix() + ".tmp"
}

// WriteFile atomically writes data to dest.
func WriteFile(dest string, data []byte, perm fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return minierrors.IOError("create directory for "+dest, err)
	}
	tmp := tempPath(dest)
	if err := os.WriteFile(tmp, data, perm); err != nil {
		_ = os.Remove(tmp)
		return minierrors.IOError("write temp file for "+dest, err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		_ = os.Remove(tmp)
		return minierrors.IOError("rename into place "+dest, err)
	}
	return nil
}

// CopyFile atomically copies src to dest, both full paths. Used by
// push/pull (§4.10.2, §4.10.3) to move tracked file content across
// the local/remote boundary without ever exposing a partially-written
// destination.
func CopyFile(src, dest string, perm fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return minierrors.IOError("open source file "+src, err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return minierrors.IOError("create directory for "+dest, err)
	}
	tmp := tempPath(dest)
	out, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return minierrors.IOError("open temp file for "+dest, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		_ = os.Remove(tmp)
		return minierrors.IOError("copy into temp file for "+dest, err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return minierrors.IOError("close temp file for "+dest, err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		_ = os.Remove(tmp)
		return minierrors.IOError("rename into place "+dest, err)
	}
	return nil
}
