package store

import (
	"context"
	"database/sql"

	minierrors "github.com/minimem/minimem/internal/errors"
)

// GetCachedEmbedding looks up the embedding cache by its content-addressed
// key, touching updated_at on a hit to refresh LRU order (§4.3).
func (s *Store) GetCachedEmbedding(ctx context.Context, provider, model, providerKey, hash string, now int64) (embedding []float32, dims int, ok bool, err error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT embedding, dims FROM embedding_cache
		 WHERE provider = ? AND model = ? AND provider_key = ? AND hash = ?`,
		provider, model, providerKey, hash)

	var blob []byte
	if err := row.Scan(&blob, &dims); err != nil {
		if err == sql.ErrNoRows {
			return nil, 0, false, nil
		}
		return nil, 0, false, minierrors.New(minierrors.ErrCodeStoreFailed, "read embedding cache", err)
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE embedding_cache SET updated_at = ? WHERE provider = ? AND model = ? AND provider_key = ? AND hash = ?`,
		now, provider, model, providerKey, hash); err != nil {
		return nil, 0, false, minierrors.New(minierrors.ErrCodeStoreFailed, "touch embedding cache", err)
	}

	return decodeEmbedding(blob), dims, true, nil
}

// PutCachedEmbedding upserts a cache entry after a successful embedding call.
func (s *Store) PutCachedEmbedding(ctx context.Context, e *EmbeddingCacheEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO embedding_cache(provider, model, provider_key, hash, embedding, dims, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(provider, model, provider_key, hash) DO UPDATE SET
		   embedding = excluded.embedding, dims = excluded.dims, updated_at = excluded.updated_at`,
		e.Provider, e.Model, e.ProviderKey, e.Hash, encodeEmbedding(e.Embedding), e.Dims, e.UpdatedAt)
	if err != nil {
		return minierrors.New(minierrors.ErrCodeStoreFailed, "write embedding cache", err)
	}
	return nil
}

// PruneEmbeddingCache deletes the oldest rows (by updated_at) beyond
// maxEntries, per §4.3's eviction rule.
func (s *Store) PruneEmbeddingCache(ctx context.Context, maxEntries int) (pruned int, err error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM embedding_cache`).Scan(&count); err != nil {
		return 0, minierrors.New(minierrors.ErrCodeStoreFailed, "count embedding cache", err)
	}
	over := count - maxEntries
	if over <= 0 {
		return 0, nil
	}

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM embedding_cache WHERE rowid IN (
			SELECT rowid FROM embedding_cache ORDER BY updated_at ASC LIMIT ?
		)`, over)
	if err != nil {
		return 0, minierrors.New(minierrors.ErrCodeStoreFailed, "evict embedding cache", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
