// Package store provides the persistent index (SQLite + FTS5 + an
// in-process HNSW vector sidecar) and the embedding cache described in
// §4.2/§4.3: a single transactional database file per memory root.
package store

import (
	"context"
	"fmt"
)

// CurrentSchemaVersion is the store's schema version; see Meta.SchemaVersion
// and the migration performed by Open when an older version is found.
const CurrentSchemaVersion = 2

// FileRecord tracks one indexed file's identity and last-seen state.
type FileRecord struct {
	Path   string // relative to the memory root, "/" separated
	Source string // "memory" for now; reserved for future source kinds
	Hash   string // SHA-256 of file content
	MTime  int64  // modification time, integer milliseconds
	Size   int64
}

// ChunkRecord is a persisted chunk: the chunker's output plus its
// embedding (if any) and the model it was embedded with.
type ChunkRecord struct {
	ID        string // SHA-256 of path, source, start/end line and content-hash, NUL-separated
	Path      string
	Source    string
	StartLine int
	EndLine   int
	Hash      string // chunker's content-hash
	Model     string // embedding model, "" if unembedded
	Text      string
	Embedding []float32 // nil if unembedded (provider "none", or embedding failed)
	UpdatedAt int64     // integer milliseconds
}

// Meta is the index-wide configuration and state row, compared against
// the current configuration on each indexing run to decide whether a
// full reindex is needed (§4.4 step 1).
type Meta struct {
	SchemaVersion int
	Provider      string
	Model         string
	ProviderKey   string
	ChunkTokens   int
	ChunkOverlap  int
	VectorDims    int
}

// EmbeddingCacheEntry is one row of the content-addressed embedding
// cache (§4.3), keyed by (provider, model, provider-key, hash).
type EmbeddingCacheEntry struct {
	Provider    string
	Model       string
	ProviderKey string
	Hash        string
	Embedding   []float32
	Dims        int
	UpdatedAt   int64
}

// BM25Result is one ranked hit from a keyword search.
type BM25Result struct {
	ChunkID string
	Rank    float64 // raw FTS5 bm25() rank; more negative is a better match
}

// VectorResult is one ranked hit from a vector search.
type VectorResult struct {
	ChunkID  string
	Distance float32
}

// ErrDimensionMismatch indicates a query or stored vector's dimension
// doesn't match the index's configured dimension.
type ErrDimensionMismatch struct {
	Expected int
	Got      int
}

func (e ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d (reindex required)", e.Expected, e.Got)
}

// VectorStoreConfig configures the HNSW vector sidecar.
type VectorStoreConfig struct {
	Dimensions     int
	Metric         string // "cos" (default) or "l2"
	M              int
	EfConstruction int
	EfSearch       int
}

// DefaultVectorStoreConfig returns sensible HNSW defaults for a given
// embedding dimensionality.
func DefaultVectorStoreConfig(dimensions int) VectorStoreConfig {
	return VectorStoreConfig{
		Dimensions:     dimensions,
		Metric:         "cos",
		M:              16,
		EfConstruction: 128,
		EfSearch:       64,
	}
}

// VectorStore is the HNSW-backed "chunks_vec" substitute: pure-Go
// SQLite has no vector extension, so the in-process graph is the
// vector index, persisted to a gob sidecar file alongside index.db.
type VectorStore interface {
	Add(ctx context.Context, ids []string, vectors [][]float32) error
	Search(ctx context.Context, query []float32, k int) ([]*VectorResult, error)
	Delete(ctx context.Context, ids []string) error
	Contains(id string) bool
	Count() int
	Save(path string) error
	Load(path string) error
	Close() error
}
