// Package index implements the Indexer (§4.4): it enumerates the
// memory source, chunks and embeds changed files, replaces their
// stored chunks, prunes files and embedding-cache rows that fell out
// of scope, and stamps the index meta with the run's configuration.
package index

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/minimem/minimem/internal/chunk"
	"github.com/minimem/minimem/internal/config"
	"github.com/minimem/minimem/internal/embed"
	minierrors "github.com/minimem/minimem/internal/errors"
	"github.com/minimem/minimem/internal/store"
)

// Result is the outcome of one indexing run, per §4.4.
type Result struct {
	FilesProcessed int
	ChunksCreated  int
	StaleRemoved   int
}

// Indexer runs the algorithm in §4.4 against one memory root's store.
type Indexer struct {
	Store    *store.Store
	Chunker  chunk.Chunker
	Provider embed.Provider
	Config   config.EngineConfig
}

// New creates an Indexer. chunker defaults to chunk.NewMarkdownChunker()
// when nil.
func New(s *store.Store, chunker chunk.Chunker, provider embed.Provider, cfg config.EngineConfig) *Indexer {
	if chunker == nil {
		chunker = chunk.NewMarkdownChunker()
	}
	return &Indexer{Store: s, Chunker: chunker, Provider: provider, Config: cfg}
}

// Run executes the full indexing pipeline for root, per §4.4 steps 1-6.
func (ix *Indexer) Run(ctx context.Context, root string, force bool) (*Result, error) {
	providerKey := embed.ComputeProviderKey(ix.Provider.ID(), ix.Provider.Model(), ix.Config.BaseURL)

	needsFullReindex, priorMeta, err := ix.computeNeedsFullReindex(ctx, force, providerKey)
	if err != nil {
		return nil, err
	}

	candidates, err := EnumerateFiles(root)
	if err != nil {
		return nil, err
	}

	stored, err := ix.Store.ListFiles(ctx)
	if err != nil {
		return nil, minierrors.New(minierrors.ErrCodeIndexFailed, "list stored files", err)
	}
	storedByPath := make(map[string]*store.FileRecord, len(stored))
	for _, f := range stored {
		storedByPath[f.Path] = f
	}

	candidateByPath := make(map[string]*Candidate, len(candidates))
	result := &Result{}
	vectorDims := priorMeta.VectorDims

	for _, c := range candidates {
		candidateByPath[c.Path] = c

		existing, ok := storedByPath[c.Path]
		if ok && existing.Hash == c.Hash && !needsFullReindex {
			continue
		}

		dims, chunkCount, err := ix.processFile(ctx, c)
		if err != nil {
			return nil, err
		}
		if dims > 0 {
			vectorDims = dims
		}
		result.FilesProcessed++
		result.ChunksCreated += chunkCount
	}

	// Step 4: prune stale paths absent from the current enumeration.
	for path := range storedByPath {
		if _, ok := candidateByPath[path]; ok {
			continue
		}
		if err := ix.Store.DeleteFile(ctx, path); err != nil {
			return nil, minierrors.New(minierrors.ErrCodeIndexFailed, "delete stale file "+path, err)
		}
		result.StaleRemoved++
	}

	// Step 5: upsert meta with this run's configuration.
	newMeta := &store.Meta{
		SchemaVersion: store.CurrentSchemaVersion,
		Provider:      ix.Provider.ID(),
		Model:         ix.Provider.Model(),
		ProviderKey:   providerKey,
		ChunkTokens:   ix.Config.ChunkTokens,
		ChunkOverlap:  ix.Config.ChunkOverlap,
		VectorDims:    vectorDims,
	}
	if err := ix.Store.SetMeta(ctx, newMeta); err != nil {
		return nil, minierrors.New(minierrors.ErrCodeIndexFailed, "write index meta", err)
	}

	if vectorDims > 0 && !ix.Store.VectorAvailable() {
		if err := ix.Store.EnsureVectorStore(vectorDims); err != nil {
			slog.Warn("index_vector_store_unavailable", slog.String("error", err.Error()))
		}
	}

	// Step 6: prune the embedding cache if over limit.
	maxEntries := ix.Config.CacheMaxEntries
	if maxEntries > 0 {
		if _, err := ix.Store.PruneEmbeddingCache(ctx, maxEntries); err != nil {
			slog.Warn("index_cache_prune_failed", slog.String("error", err.Error()))
		}
	}

	slog.Info("index_run_complete",
		slog.String("root", root),
		slog.Int("files_processed", result.FilesProcessed),
		slog.Int("chunks_created", result.ChunksCreated),
		slog.Int("stale_removed", result.StaleRemoved))

	return result, nil
}

// computeNeedsFullReindex implements §4.4 step 1.
func (ix *Indexer) computeNeedsFullReindex(ctx context.Context, force bool, providerKey string) (bool, *store.Meta, error) {
	meta, ok, err := ix.Store.GetMeta(ctx)
	if err != nil {
		return false, nil, minierrors.New(minierrors.ErrCodeIndexFailed, "read index meta", err)
	}
	if !ok {
		return true, &store.Meta{}, nil
	}
	if force ||
		meta.Provider != ix.Provider.ID() ||
		meta.Model != ix.Provider.Model() ||
		meta.ProviderKey != providerKey ||
		meta.ChunkTokens != ix.Config.ChunkTokens ||
		meta.ChunkOverlap != ix.Config.ChunkOverlap {
		return true, meta, nil
	}
	if ix.Store.VectorAvailable() && meta.VectorDims == 0 {
		return true, meta, nil
	}
	return false, meta, nil
}

// processFile chunks, embeds, and replaces the stored chunks for one
// candidate file, per §4.4 step 3. It returns the embedding
// dimensionality discovered (0 if the provider produced none) and the
// number of chunks written.
func (ix *Indexer) processFile(ctx context.Context, c *Candidate) (dims int, chunkCount int, err error) {
	content, err := os.ReadFile(c.AbsPath)
	if err != nil {
		return 0, 0, minierrors.IOError("read file "+c.Path, err)
	}

	parts, err := ix.Chunker.Chunk(ctx, &chunk.FileInput{Path: c.Path, Content: content}, chunk.Options{
		Tokens:  ix.Config.ChunkTokens,
		Overlap: ix.Config.ChunkOverlap,
	})
	if err != nil {
		return 0, 0, minierrors.New(minierrors.ErrCodeChunkingFailed, "chunk "+c.Path, err)
	}

	providerID := ix.Provider.ID()
	model := ix.Provider.Model()
	providerKey := embed.ComputeProviderKey(providerID, model, ix.Config.BaseURL)
	now := time.Now()
	nowMillis := now.UnixMilli()

	embeddings := make([][]float32, len(parts))
	var missingIdx []int
	var missingTexts []string

	for i, p := range parts {
		vec, cachedDims, ok, err := ix.Store.GetCachedEmbedding(ctx, providerID, model, providerKey, p.ContentHash, nowMillis)
		if err != nil {
			return 0, 0, minierrors.New(minierrors.ErrCodeIndexFailed, "read embedding cache", err)
		}
		if ok && cachedDims > 0 {
			embeddings[i] = vec
			continue
		}
		missingIdx = append(missingIdx, i)
		missingTexts = append(missingTexts, p.Text)
	}

	if len(missingTexts) > 0 {
		fresh, err := embedTexts(ctx, ix.Provider, missingTexts)
		if err != nil {
			return 0, 0, err
		}
		for j, idx := range missingIdx {
			embeddings[idx] = fresh[j]
			if len(fresh[j]) > 0 {
				if err := ix.Store.PutCachedEmbedding(ctx, &store.EmbeddingCacheEntry{
					Provider:    providerID,
					Model:       model,
					ProviderKey: providerKey,
					Hash:        parts[idx].ContentHash,
					Embedding:   fresh[j],
					Dims:        len(fresh[j]),
					UpdatedAt:   nowMillis,
				}); err != nil {
					slog.Warn("index_cache_write_failed", slog.String("error", err.Error()))
				}
			}
		}
	}

	records := make([]*store.ChunkRecord, len(parts))
	for i, p := range parts {
		if len(embeddings[i]) > dims {
			dims = len(embeddings[i])
		}
		records[i] = &store.ChunkRecord{
			ID:        chunkID(c.Path, c.Source, p.StartLine, p.EndLine, p.ContentHash),
			Path:      c.Path,
			Source:    c.Source,
			StartLine: p.StartLine,
			EndLine:   p.EndLine,
			Hash:      p.ContentHash,
			Model:     model,
			Text:      p.Text,
			Embedding: embeddings[i],
			UpdatedAt: nowMillis,
		}
	}

	fileRec := &store.FileRecord{
		Path:   c.Path,
		Source: c.Source,
		Hash:   c.Hash,
		MTime:  c.MTime,
		Size:   c.Size,
	}
	if err := ix.Store.ReplaceFileChunks(ctx, fileRec, records); err != nil {
		return 0, 0, minierrors.New(minierrors.ErrCodeIndexFailed, "replace chunks for "+c.Path, err)
	}

	return dims, len(records), nil
}

func chunkID(path, source string, startLine, endLine int, hash string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s\x00%s\x00%d\x00%d\x00%s", path, source, startLine, endLine, hash)))
	return hex.EncodeToString(sum[:])
}
