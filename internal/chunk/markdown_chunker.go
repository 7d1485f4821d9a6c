package chunk

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// MarkdownChunker splits a Markdown file into contiguous, overlapping,
// line-addressed chunks. Token budgets are approximate: content is
// measured in code points (not bytes) divided by TokensPerChar, so
// multi-byte UTF-8 sequences (emoji, CJK) are counted and truncated
// correctly.
type MarkdownChunker struct{}

// NewMarkdownChunker returns a stateless Markdown chunker.
func NewMarkdownChunker() *MarkdownChunker {
	return &MarkdownChunker{}
}

// Chunk implements Chunker.
func (c *MarkdownChunker) Chunk(_ context.Context, file *FileInput, opts Options) ([]*Chunk, error) {
	tokens := opts.Tokens
	if tokens <= 0 {
		tokens = DefaultChunkTokens
	}
	overlap := opts.Overlap
	if overlap < 0 || overlap >= tokens {
		overlap = DefaultOverlapToken
	}

	text := string(file.Content)
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	// Trailing newline would otherwise produce a spurious empty last line.
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")

	lineTokens := make([]int, len(lines))
	for i, l := range lines {
		lineTokens[i] = estimateTokens(l)
	}

	var chunks []*Chunk
	start := 0

	for start < len(lines) {
		// A single line whose own token count already exceeds the
		// budget can't be grown into a multi-line chunk; split it by
		// rune ranges instead, all addressed as start-line = end-line.
		if lineTokens[start] > tokens {
			chunks = append(chunks, splitLongLine(lines[start], start+1, tokens, overlap)...)
			start++
			continue
		}

		end := start
		total := lineTokens[start]
		for end+1 < len(lines) {
			next := lineTokens[end+1]
			if total+next > tokens {
				break
			}
			end++
			total += next
		}

		chunkText := strings.Join(lines[start:end+1], "\n")
		chunks = append(chunks, &Chunk{
			StartLine:   start + 1,
			EndLine:     end + 1,
			Text:        chunkText,
			ContentHash: contentHash(chunkText),
		})

		if end+1 >= len(lines) {
			break
		}

		// Step the window forward, walking back from `end` to cover
		// roughly `overlap` tokens of context in the next chunk, but
		// always advancing past `start` so the loop terminates.
		newStart := end + 1
		backTokens := 0
		for newStart > start+1 {
			backTokens += lineTokens[newStart-1]
			if backTokens > overlap {
				break
			}
			newStart--
		}
		start = newStart
	}

	return chunks, nil
}

// splitLongLine handles a single line whose estimated token count
// exceeds the chunk budget by splitting it into overlapping rune
// ranges, per §4.1(d): start-line = end-line = lineNum is acceptable.
func splitLongLine(line string, lineNum, tokens, overlap int) []*Chunk {
	runes := []rune(line)
	maxChars := tokens * TokensPerChar
	overlapChars := overlap * TokensPerChar
	if maxChars <= 0 {
		maxChars = len(runes)
	}

	var chunks []*Chunk
	pos := 0
	for pos < len(runes) {
		end := pos + maxChars
		if end > len(runes) {
			end = len(runes)
		}
		segment := string(runes[pos:end])
		chunks = append(chunks, &Chunk{
			StartLine:   lineNum,
			EndLine:     lineNum,
			Text:        segment,
			ContentHash: contentHash(segment),
		})
		if end >= len(runes) {
			break
		}
		next := end - overlapChars
		if next <= pos {
			next = pos + 1
		}
		pos = next
	}
	return chunks
}

// estimateTokens approximates a token count from code points, not bytes.
func estimateTokens(s string) int {
	n := len([]rune(s)) / TokensPerChar
	if n == 0 && s != "" {
		n = 1
	}
	return n
}

// contentHash returns the 64-hex SHA-256 digest of text, deterministic
// across runs and platforms.
func contentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
