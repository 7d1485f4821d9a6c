// Package embed defines the EmbeddingProvider capability consumed by the
// indexer and searcher (§6.5), plus an in-process query cache and a
// deterministic static provider used where no real provider is configured.
package embed

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"math"
)

// StaticDimensions is the embedding dimension produced by Static.
const StaticDimensions = 256

// Provider is the capability the core calls into for embeddings. Real
// providers (OpenAI, Gemini, a local model server) are constructed by
// the external collaborator and handed to the core; this package only
// supplies "none" and "static" (for tests and offline operation).
type Provider interface {
	// ID is a stable provider identifier, e.g. "openai", "gemini", "local", "none".
	ID() string
	// Model is a stable model identifier.
	Model() string
	// EmbedQuery embeds a single query string.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch embeds multiple chunk texts, preserving order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// BatchProvider is implemented by providers that expose a distinct
// batch endpoint the indexer should prefer over repeated single calls
// (§4.4.2). Providers without it still satisfy EmbedBatch via Provider.
type BatchProvider interface {
	Provider
	BatchEnabled() bool
}

// ComputeProviderKey derives the stable key the store uses to scope the
// embedding cache and the index meta, per §6.5: a content hash of
// [id, model, base-url].
func ComputeProviderKey(id, model, baseURL string) string {
	sum := sha256.Sum256([]byte(id + "\x00" + model + "\x00" + baseURL))
	return hex.EncodeToString(sum[:])
}

func normalizeVector(v []float32) []float32 {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	if sumSquares == 0 {
		return v
	}
	out := make([]float32, len(v))
	mag := math.Sqrt(sumSquares)
	for i, val := range v {
		out[i] = float32(float64(val) / mag)
	}
	return out
}
