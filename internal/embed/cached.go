package embed

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultQueryCacheSize caps the in-process query-embedding cache.
const DefaultQueryCacheSize = 1000

// Cached wraps a Provider with an in-process LRU cache of query
// embeddings (§3 DOMAIN STACK): the persistent, content-addressed
// cache in the store is authoritative across restarts, this just
// avoids a DB round trip for repeated queries within one process.
type Cached struct {
	inner Provider
	cache *lru.Cache[string, []float32]
}

// NewCached wraps inner with a query cache of the given size (0 = default).
func NewCached(inner Provider, size int) *Cached {
	if size <= 0 {
		size = DefaultQueryCacheSize
	}
	cache, _ := lru.New[string, []float32](size)
	return &Cached{inner: inner, cache: cache}
}

func (c *Cached) ID() string    { return c.inner.ID() }
func (c *Cached) Model() string { return c.inner.Model() }

func (c *Cached) key(text string) string {
	sum := sha256.Sum256([]byte(text + "\x00" + c.inner.Model()))
	return hex.EncodeToString(sum[:])
}

// EmbedQuery returns a cached embedding when available, otherwise
// computes and caches it.
func (c *Cached) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	key := c.key(text)
	if vec, ok := c.cache.Get(key); ok {
		return vec, nil
	}

	vec, err := c.inner.EmbedQuery(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, vec)
	return vec, nil
}

// EmbedBatch passes through to the inner provider uncached: chunk
// batches are rarely repeated, unlike queries.
func (c *Cached) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return c.inner.EmbedBatch(ctx, texts)
}

// Inner returns the wrapped provider.
func (c *Cached) Inner() Provider { return c.inner }

var _ Provider = (*Cached)(nil)
