// Package engine is the facade behind §6.6's exposed query API:
// search, sync, status, and the path-scoped file operations, all
// wired against one memory root's store, indexer, and searcher.
package engine

import (
	"context"

	"github.com/minimem/minimem/internal/chunk"
	"github.com/minimem/minimem/internal/config"
	minierrors "github.com/minimem/minimem/internal/errors"
	"github.com/minimem/minimem/internal/index"
	"github.com/minimem/minimem/internal/search"
	"github.com/minimem/minimem/internal/store"
)

// Engine is one open memory root: its store, indexer, and searcher.
// Callers should Close it when done.
type Engine struct {
	Root     string
	Config   config.EngineConfig
	Store    *store.Store
	Indexer  *index.Indexer
	Searcher *search.Searcher
}

// Open loads the root's configuration, opens its store, and wires the
// indexer and searcher against it. It does not run an initial index;
// call Sync for that.
func Open(root string) (*Engine, error) {
	cfg, err := config.Load(root)
	if err != nil {
		return nil, minierrors.ConfigError("load engine config for "+root, err)
	}
	return OpenWithConfig(root, cfg)
}

// OpenWithConfig is Open with an already-resolved configuration, used
// by callers (the daemon, tests) that build EngineConfig themselves.
func OpenWithConfig(root string, cfg config.EngineConfig) (*Engine, error) {
	st, err := store.Open(root)
	if err != nil {
		return nil, err
	}

	provider := resolveProvider(cfg)
	chunker := chunk.NewMarkdownChunker()

	return &Engine{
		Root:     root,
		Config:   cfg,
		Store:    st,
		Indexer:  index.New(st, chunker, provider, cfg),
		Searcher: search.New(st, provider, cfg),
	}, nil
}

// Close releases the underlying store.
func (e *Engine) Close() error {
	return e.Store.Close()
}

// Search implements §6.6's search(query, {max-results?, min-score?}).
func (e *Engine) Search(ctx context.Context, query string, opts search.Options) ([]*search.Result, error) {
	return e.Searcher.Search(ctx, query, opts)
}

// SyncResult is sync()'s return shape, per §6.6.
type SyncResult struct {
	FileCount  int `json:"fileCount"`
	ChunkCount int `json:"chunkCount"`
	Processed  int `json:"filesProcessed"`
	Created    int `json:"chunksCreated"`
	Removed    int `json:"staleRemoved"`
}

// Sync implements §6.6's sync({force?}): run the indexer, then report
// current totals alongside what changed in this pass.
func (e *Engine) Sync(ctx context.Context, force bool) (*SyncResult, error) {
	result, err := e.Indexer.Run(ctx, e.Root, force)
	if err != nil {
		return nil, err
	}

	files, err := e.Store.ListFiles(ctx)
	if err != nil {
		return nil, err
	}
	chunkCount, err := e.Store.CountChunks(ctx)
	if err != nil {
		return nil, err
	}

	return &SyncResult{
		FileCount:  len(files),
		ChunkCount: chunkCount,
		Processed:  result.FilesProcessed,
		Created:    result.ChunksCreated,
		Removed:    result.StaleRemoved,
	}, nil
}

// Status is status()'s return shape, per §6.6.
type Status struct {
	MemoryDir       string `json:"memoryDir"`
	Provider        string `json:"provider"`
	Model           string `json:"model"`
	BM25Only        bool   `json:"bm25Only"`
	FileCount       int    `json:"fileCount"`
	ChunkCount      int    `json:"chunkCount"`
	CacheCount      int    `json:"cacheCount"`
	VectorAvailable bool   `json:"vectorAvailable"`
	FTSAvailable    bool   `json:"ftsAvailable"`
}

// Status implements §6.6's status().
func (e *Engine) Status(ctx context.Context) (*Status, error) {
	files, err := e.Store.ListFiles(ctx)
	if err != nil {
		return nil, err
	}
	chunkCount, err := e.Store.CountChunks(ctx)
	if err != nil {
		return nil, err
	}
	cacheCount, err := e.Store.CountCacheEntries(ctx)
	if err != nil {
		return nil, err
	}

	return &Status{
		MemoryDir:       e.Root,
		Provider:        e.Config.ProviderID,
		Model:           e.Config.Model,
		BM25Only:        e.Config.ProviderID == "none" || e.Config.ProviderID == "",
		FileCount:       len(files),
		ChunkCount:      chunkCount,
		CacheCount:      cacheCount,
		VectorAvailable: e.Store.VectorAvailable(),
		FTSAvailable:    e.Store.FTSAvailable(),
	}, nil
}
