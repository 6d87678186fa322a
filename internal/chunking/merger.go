package chunking

import (
	"sort"
	"strings"
)

// Merge stitches per-chunk results into one transcript on the full-audio
// timeline. Results are sorted by chunk index first, so completion order
// does not matter. Because adjacent chunks see overlapping audio, the same
// boundary word can be recognized twice; each chunk contributes only the
// words whose start timestamp lies inside its owned region, with the earlier
// chunk winning at the shared boundary. The filter is purely
// timestamp-based, so it holds even when two chunks transcribed the same
// audio differently.
//
// Merge is a pure function of its input; merging the same results twice
// yields identical output.
func Merge(results []ChunkResult, cfg Config) MergedTranscript {
	sorted := make([]ChunkResult, len(results))
	copy(sorted, results)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ChunkIndex < sorted[j].ChunkIndex
	})

	mergedWords := make([]Word, 0)
	textParts := make([]string, 0, len(sorted))
	for i, result := range sorted {
		kept := make([]Word, 0, len(result.Chunks))
		for _, word := range result.Chunks {
			if i > 0 && word.Timestamp[0] < sorted[i-1].ChunkEndTime {
				continue
			}
			if i < len(sorted)-1 && word.Timestamp[0] >= result.ChunkEndTime {
				continue
			}
			kept = append(kept, word)
		}
		if len(kept) == 0 {
			continue
		}
		mergedWords = append(mergedWords, kept...)
		parts := make([]string, 0, len(kept))
		for _, word := range kept {
			parts = append(parts, word.Text)
		}
		textParts = append(textParts, strings.Join(parts, " "))
	}

	return MergedTranscript{
		Text:   strings.Join(strings.Fields(strings.Join(textParts, " ")), " "),
		Chunks: mergedWords,
	}
}

// DegenerateWordIndices returns the positions of words whose timestamp has
// start == end or end < start. The speech engine is known to emit
// zero-duration words when its internal stride is too large relative to the
// chunk length; such entries are preserved through the merge but should be
// flagged as a data-quality defect rather than treated as valid timings.
func DegenerateWordIndices(words []Word) []int {
	var indices []int
	for i, word := range words {
		if word.Timestamp[1] <= word.Timestamp[0] {
			indices = append(indices, i)
		}
	}
	return indices
}
