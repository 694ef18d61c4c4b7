package rag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/report-rag/internal/storage"
)

func candidate(id string, score float64, vector []float32) *storage.ScoredChunk {
	return &storage.ScoredChunk{
		Chunk:  &storage.Chunk{ID: id, Content: id},
		Score:  score,
		Vector: vector,
	}
}

func TestMMR_PrefersDiverseResults(t *testing.T) {
	// Two near-identical top candidates and one distinct lower-scored one.
	// With a diversity-heavy lambda the distinct candidate must beat the
	// redundant twin of the first pick.
	candidates := []*storage.ScoredChunk{
		candidate("best", 0.95, []float32{1, 0, 0}),
		candidate("twin", 0.94, []float32{1, 0.01, 0}),
		candidate("distinct", 0.70, []float32{0, 1, 0}),
	}

	selected := maximalMarginalRelevance(candidates, 0.1, 2)

	require.Len(t, selected, 2)
	assert.Equal(t, "best", selected[0].Chunk.ID)
	assert.Equal(t, "distinct", selected[1].Chunk.ID)
}

func TestMMR_KeepsOriginalScores(t *testing.T) {
	candidates := []*storage.ScoredChunk{
		candidate("a", 0.9, []float32{1, 0}),
		candidate("b", 0.5, []float32{0, 1}),
	}

	selected := maximalMarginalRelevance(candidates, 0.1, 2)

	require.Len(t, selected, 2)
	assert.Equal(t, 0.9, selected[0].Score)
	assert.Equal(t, 0.5, selected[1].Score)
}

func TestMMR_BoundsAndEmptyInput(t *testing.T) {
	assert.Nil(t, maximalMarginalRelevance(nil, 0.1, 5))
	assert.Nil(t, maximalMarginalRelevance([]*storage.ScoredChunk{candidate("a", 1, []float32{1})}, 0.1, 0))

	// k larger than pool returns the whole pool
	pool := []*storage.ScoredChunk{
		candidate("a", 0.9, []float32{1, 0}),
		candidate("b", 0.8, []float32{0, 1}),
	}
	assert.Len(t, maximalMarginalRelevance(pool, 0.1, 10), 2)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 0}, []float32{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 3}), 1e-9)
	assert.InDelta(t, -1.0, cosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)

	// Degenerate inputs score 0
	assert.Zero(t, cosineSimilarity(nil, nil))
	assert.Zero(t, cosineSimilarity([]float32{1}, []float32{1, 2}))
	assert.Zero(t, cosineSimilarity([]float32{0, 0}, []float32{1, 1}))
}
