package rag

import (
	"math"

	"github.com/bull/report-rag/internal/storage"
)

// maximalMarginalRelevance selects up to k candidates balancing query
// relevance against inter-result diversity. lambda weights relevance;
// 1-lambda weights distance from already-selected results. Candidates
// arrive ordered by query similarity with their vectors populated, and
// selected hits keep their original query-similarity score.
func maximalMarginalRelevance(candidates []*storage.ScoredChunk, lambda float64, k int) []*storage.ScoredChunk {
	if len(candidates) == 0 || k <= 0 {
		return nil
	}

	selected := make([]*storage.ScoredChunk, 0, k)
	remaining := make([]*storage.ScoredChunk, len(candidates))
	copy(remaining, candidates)

	for len(selected) < k && len(remaining) > 0 {
		bestIdx := 0
		bestScore := math.Inf(-1)

		for i, c := range remaining {
			redundancy := 0.0
			for _, s := range selected {
				if sim := cosineSimilarity(c.Vector, s.Vector); sim > redundancy {
					redundancy = sim
				}
			}
			score := lambda*c.Score - (1.0-lambda)*redundancy
			if score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}

		selected = append(selected, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	return selected
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Mismatched or zero-length vectors score 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
