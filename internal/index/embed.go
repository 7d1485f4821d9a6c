package index

import (
	"context"
	"log/slog"

	"github.com/minimem/minimem/internal/embed"
	minierrors "github.com/minimem/minimem/internal/errors"
)

// embedTexts embeds texts in order, preferring the provider's batch
// endpoint when available and enabled, falling back to one retried
// direct call per text on batch failure, per §4.4.2.
func embedTexts(ctx context.Context, provider embed.Provider, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	if bp, ok := provider.(embed.BatchProvider); ok && bp.BatchEnabled() {
		vectors, err := minierrors.RetryWithResult(ctx, minierrors.DefaultRetryConfig(), func() ([][]float32, error) {
			return provider.EmbedBatch(ctx, texts)
		})
		if err == nil {
			return vectors, nil
		}
		slog.Warn("index_batch_embed_failed_falling_back_to_direct",
			slog.String("provider", provider.ID()),
			slog.Int("texts", len(texts)),
			slog.String("error", err.Error()))
	}

	out := make([][]float32, len(texts))
	for i, t := range texts {
		vecs, err := minierrors.RetryWithResult(ctx, minierrors.DefaultRetryConfig(), func() ([][]float32, error) {
			return provider.EmbedBatch(ctx, []string{t})
		})
		if err != nil {
			return nil, minierrors.New(minierrors.ErrCodeEmbeddingFailed, "embed chunk after retries", err)
		}
		out[i] = vecs[0]
	}
	return out, nil
}
