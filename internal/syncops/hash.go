package syncops

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
)

// hashFile returns the SHA-256 hex digest of path's content, or "" if
// the file does not exist (treated as "this side has no content" for
// status classification, not an error).
func hashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
