package embed

import "context"

// None is the provider = "none" case (§4.4.2): embedding is skipped
// entirely and the pipeline continues on keyword search alone.
type None struct{}

func (None) ID() string    { return "none" }
func (None) Model() string { return "" }

func (None) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	return nil, nil
}

func (None) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	return make([][]float32, len(texts)), nil
}
