package chunk

import "context"

// Chunk size defaults, approximating tokens as code points / TokensPerChar.
const (
	DefaultChunkTokens  = 300 // target tokens per chunk
	DefaultOverlapToken = 50  // overlap between consecutive chunks
	TokensPerChar       = 4   // rough approximation: 4 code points = 1 token
)

// Chunk is a contiguous, line-addressed, content-hashed unit of a
// Markdown file — the output of splitting a file per §4.1.
type Chunk struct {
	StartLine   int    // 1-indexed, inclusive
	EndLine     int    // 1-indexed, inclusive
	Text        string
	ContentHash string // 64-hex SHA-256 of Text
}

// FileInput is input to Chunk: a relative path and its raw content.
type FileInput struct {
	Path    string
	Content []byte
}

// Options bounds a chunking run: the approximate token budget per
// chunk and the approximate token overlap between consecutive chunks.
type Options struct {
	Tokens  int
	Overlap int
}

// Chunker splits Markdown files into overlapping, line-addressed,
// content-hashed chunks.
type Chunker interface {
	Chunk(ctx context.Context, file *FileInput, opts Options) ([]*Chunk, error)
}
