package search

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/minimem/minimem/internal/config"
	"github.com/minimem/minimem/internal/embed"
	minierrors "github.com/minimem/minimem/internal/errors"
	"github.com/minimem/minimem/internal/store"
)

// maxSnippetRunes is the vector-only snippet truncation length, per §4.5.3.
const maxSnippetRunes = 700

// Searcher runs the contract in §4.5 against one memory root's store.
type Searcher struct {
	Store    *store.Store
	Provider embed.Provider
	Config   config.EngineConfig
}

// New creates a Searcher.
func New(s *store.Store, provider embed.Provider, cfg config.EngineConfig) *Searcher {
	return &Searcher{Store: s, Provider: provider, Config: cfg}
}

// Search implements §4.5's contract: trim and validate the query,
// compute the candidate budget, run BM25 and vector search as
// available, merge, filter by min-score, and truncate to max-results.
func (se *Searcher) Search(ctx context.Context, query string, opts Options) ([]*Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = se.Config.TopK
	}
	if maxResults <= 0 {
		maxResults = 10
	}

	candidates := se.Config.Candidates
	if candidates <= 0 {
		candidates = 50
	}
	if candidates < maxResults {
		candidates = maxResults
	}
	if candidates > 200 {
		candidates = 200
	}

	model := se.Provider.Model()

	textHits := make(map[string]float64)
	if se.Store.FTSAvailable() {
		tokens := store.TokenizeQuery(query)
		if len(tokens) > 0 {
			bm25Results, err := se.Store.SearchFTS(ctx, tokens, model, candidates)
			if err != nil {
				return nil, minierrors.New(minierrors.ErrCodeSearchFailed, "keyword search", err)
			}
			for _, r := range bm25Results {
				textHits[r.ChunkID] = bm25Score(r.Rank)
			}
		}
	}

	vectorHits := make(map[string]float64)
	if se.Provider.ID() != "none" {
		queryVec, err := se.embedQuery(ctx, query)
		if err != nil {
			return nil, minierrors.New(minierrors.ErrCodeSearchFailed, "embed query", err)
		}
		if hasNonZero(queryVec) {
			vectorResults, err := se.vectorSearch(ctx, queryVec, model, candidates)
			if err != nil {
				return nil, minierrors.New(minierrors.ErrCodeSearchFailed, "vector search", err)
			}
			for _, r := range vectorResults {
				vectorHits[r.ChunkID] = 1 - float64(r.Distance)
			}
		}
	}

	vectorWeight := se.Config.VectorWeight
	textWeight := se.Config.TextWeight
	if vectorWeight == 0 && textWeight == 0 {
		vectorWeight, textWeight = 0.7, 0.3
	}

	merged := mergeScores(vectorHits, textHits, vectorWeight, textWeight)

	minScore := opts.MinScore
	out := make([]*Result, 0, maxResults)
	for _, m := range merged {
		if m.score < minScore {
			continue
		}
		path, source, text, startLine, endLine, err := se.Store.GetChunkMeta(ctx, m.chunkID)
		if err != nil {
			continue // chunk vanished between search and fetch; skip rather than fail the whole query
		}
		if opts.Source != "" && source != opts.Source {
			continue
		}
		out = append(out, &Result{
			Path:      path,
			StartLine: startLine,
			EndLine:   endLine,
			Score:     m.score,
			Snippet:   buildSnippet(text, m.hasText),
		})
		if len(out) >= maxResults {
			break
		}
	}

	return out, nil
}

// embedQuery embeds the query with the per-call timeout from §4.5
// (60s remote, 5min local, distinguished by whether BaseURL is set).
func (se *Searcher) embedQuery(ctx context.Context, query string) ([]float32, error) {
	timeout := se.Config.RemoteEmbedTimeout
	if se.Config.BaseURL == "" {
		timeout = se.Config.LocalEmbedTimeout
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return se.Provider.EmbedQuery(callCtx, query)
}

// vectorSearch prefers the HNSW sidecar when available and dimension-
// compatible, falling back to a brute-force scan, per §4.5.2.
func (se *Searcher) vectorSearch(ctx context.Context, query []float32, model string, k int) ([]*store.VectorResult, error) {
	if se.Store.VectorAvailable() {
		if vs := se.Store.Vector(); vs != nil {
			results, err := vs.Search(ctx, query, k)
			if err == nil {
				return results, nil
			}
		}
	}
	return se.Store.BruteForceVectorSearch(ctx, query, model, k)
}

// bm25Score maps a raw FTS5 bm25() rank to [0,1], per §4.5.1.
func bm25Score(rank float64) float64 {
	if math.IsNaN(rank) || math.IsInf(rank, 0) {
		return 0
	}
	return 1 / (1 + math.Abs(rank))
}

func hasNonZero(v []float32) bool {
	for _, f := range v {
		if f != 0 {
			return true
		}
	}
	return false
}

// buildSnippet prefers the keyword side's full chunk text (the
// contextual highlight); a vector-only hit is truncated to ~700
// characters at a code-point boundary, per §4.5.3.
func buildSnippet(text string, fromKeyword bool) string {
	if fromKeyword {
		return text
	}
	runes := []rune(text)
	if len(runes) <= maxSnippetRunes {
		return text
	}
	return string(runes[:maxSnippetRunes])
}
