// Package search implements the Searcher (§4.5): BM25 keyword search,
// vector search, and a weighted hybrid merge of the two.
package search

// Options configures one search call.
type Options struct {
	// MaxResults truncates the final ranked list (after merge and
	// min-score filtering).
	MaxResults int

	// MinScore filters merged results below this score.
	MinScore float64

	// Source restricts results to chunks with this source tag (e.g.
	// "memory", "skill"). Empty means no filtering — the optional
	// per-source filter the spec's Open Question 1 leaves available
	// but not mandatory.
	Source string
}

// Result is one ranked hit, per §4.5's contract.
type Result struct {
	Path      string
	StartLine int
	EndLine   int
	Score     float64 // in [0, 1]
	Snippet   string
}
