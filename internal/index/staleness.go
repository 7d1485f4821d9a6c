package index

import (
	"context"

	minierrors "github.com/minimem/minimem/internal/errors"
)

// IsStale implements §4.6's cheap pre-query check: the on-disk
// candidate set is compared against the stored file records by count,
// path membership, and mtime, without reading or hashing any file
// content. Meant to be called on every query when the embedded
// watcher isn't running.
func (ix *Indexer) IsStale(ctx context.Context, root string) (bool, error) {
	candidates, err := EnumerateFiles(root)
	if err != nil {
		return false, err
	}
	stored, err := ix.Store.ListFiles(ctx)
	if err != nil {
		return false, minierrors.New(minierrors.ErrCodeStoreFailed, "list stored files for staleness check", err)
	}

	if len(candidates) != len(stored) {
		return true, nil
	}

	storedMTimeByPath := make(map[string]int64, len(stored))
	for _, f := range stored {
		storedMTimeByPath[f.Path] = f.MTime
	}

	for _, c := range candidates {
		mtime, ok := storedMTimeByPath[c.Path]
		if !ok || mtime != c.MTime {
			return true, nil
		}
	}

	return false, nil
}

// EnsureFresh runs IsStale and, if the on-disk state has diverged,
// reindexes before returning — the query-time hook §4.6 describes.
func (ix *Indexer) EnsureFresh(ctx context.Context, root string) error {
	stale, err := ix.IsStale(ctx, root)
	if err != nil {
		return err
	}
	if !stale {
		return nil
	}
	_, err = ix.Run(ctx, root, false)
	return err
}
