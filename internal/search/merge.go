package search

import "sort"

// mergedEntry is one chunk's combined keyword/vector standing before
// final scoring, per §4.5.3.
type mergedEntry struct {
	chunkID     string
	vectorScore float64
	textScore   float64
	hasVector   bool
	hasText     bool
}

// mergeScores unions BM25 and vector hits by chunk id and computes the
// weighted hybrid score, per §4.5.3: when both sides produced results
// for a chunk, score = Wv*vectorScore + Wt*textScore; when only one
// side produced results, renormalize to (1,0) or (0,1) so a
// keyword-only (or vector-only) system isn't crushed by the other
// weight. Returns entries sorted by score descending.
func mergeScores(vectorHits map[string]float64, textHits map[string]float64, vectorWeight, textWeight float64) []*scoredChunk {
	entries := make(map[string]*mergedEntry)

	for id, score := range vectorHits {
		entries[id] = &mergedEntry{chunkID: id, vectorScore: score, hasVector: true}
	}
	for id, score := range textHits {
		e, ok := entries[id]
		if !ok {
			e = &mergedEntry{chunkID: id}
			entries[id] = e
		}
		e.textScore = score
		e.hasText = true
	}

	out := make([]*scoredChunk, 0, len(entries))
	for _, e := range entries {
		var score float64
		switch {
		case e.hasVector && e.hasText:
			score = vectorWeight*e.vectorScore + textWeight*e.textScore
		case e.hasVector:
			score = e.vectorScore
		default:
			score = e.textScore
		}
		out = append(out, &scoredChunk{chunkID: e.chunkID, score: score, hasText: e.hasText})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].score != out[j].score {
			return out[i].score > out[j].score
		}
		return out[i].chunkID < out[j].chunkID
	})
	return out
}

// scoredChunk is a chunk id with its final merged score. hasText
// records whether the keyword side produced this chunk, so the
// snippet builder can prefer the keyword side's contextual highlight
// per §4.5.3.
type scoredChunk struct {
	chunkID string
	score   float64
	hasText bool
}
