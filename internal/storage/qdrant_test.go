//go:build integration

package storage

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDimension = 8

// setupTestStore creates a test store against a throwaway collection.
// Skips test if Qdrant is not running.
func setupTestStore(t *testing.T) *Store {
	collection := "test_chunks_" + uuid.New().String()[:8]
	store, err := NewStore("localhost", 6334, collection, testDimension)
	if err != nil {
		t.Skipf("Qdrant not available: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.EnsureCollection(context.Background()), "Failed to ensure collection")
	return store
}

func testVector(seed float32) []float32 {
	v := make([]float32, testDimension)
	for i := range v {
		v[i] = seed
	}
	v[0] = 1 // keep vectors non-degenerate and mutually similar
	return v
}

func testChunk(source string, page int, typ, content string, seed float32) *Chunk {
	return &Chunk{
		ID:        uuid.New().String(),
		Source:    source,
		Page:      page,
		Type:      typ,
		Content:   content,
		Embedding: testVector(seed),
	}
}

func TestChunkSearchRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	chunk := testChunk("q3.pdf", 2, "table", "Item | Amount\nTotal | 250", 0.1)
	require.NoError(t, store.UpsertChunks(ctx, []*Chunk{chunk}))

	results, err := store.Search(ctx, testVector(0.1), 5)
	require.NoError(t, err)
	require.Len(t, results, 1)

	got := results[0].Chunk
	assert.Equal(t, chunk.ID, got.ID)
	assert.Equal(t, "q3.pdf", got.Source)
	assert.Equal(t, 2, got.Page)
	assert.Equal(t, "table", got.Type)
	assert.Equal(t, chunk.Content, got.Content)
	assert.Greater(t, results[0].Score, 0.0)
}

func TestSearchByType_FiltersTables(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertChunks(ctx, []*Chunk{
		testChunk("q3.pdf", 1, "text", "Overview of the quarter.", 0.1),
		testChunk("q3.pdf", 2, "table", "Total | 250", 0.2),
		testChunk("q3.pdf", 3, "text", "Outlook.", 0.3),
	}))

	results, err := store.SearchByType(ctx, testVector(0.2), 10, []string{"table"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "table", results[0].Chunk.Type)
	assert.Equal(t, 2, results[0].Chunk.Page)
}

func TestSearchCandidates_ReturnsVectors(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertChunks(ctx, []*Chunk{
		testChunk("q3.pdf", 1, "text", "Overview.", 0.1),
	}))

	results, err := store.SearchCandidates(ctx, testVector(0.1), 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Len(t, results[0].Vector, testDimension, "candidate search must return stored vectors")

	plain, err := store.Search(ctx, testVector(0.1), 5)
	require.NoError(t, err)
	require.Len(t, plain, 1)
	assert.Empty(t, plain[0].Vector, "plain search omits vectors")
}

func TestUpsertChunks_DimensionMismatch(t *testing.T) {
	store := setupTestStore(t)

	bad := testChunk("q3.pdf", 1, "text", "x", 0.1)
	bad.Embedding = []float32{1, 2, 3}

	err := store.UpsertChunks(context.Background(), []*Chunk{bad})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestCountByType(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertChunks(ctx, []*Chunk{
		testChunk("q3.pdf", 1, "text", "a", 0.1),
		testChunk("q3.pdf", 2, "text", "b", 0.2),
		testChunk("q3.pdf", 2, "table", "c", 0.3),
	}))

	counts, err := store.CountByType(ctx, "text", "table")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), counts["text"])
	assert.Equal(t, uint64(1), counts["table"])

	total, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), total)
}

func TestClearCollection(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertChunks(ctx, []*Chunk{
		testChunk("q3.pdf", 1, "text", "a", 0.1),
	}))
	require.NoError(t, store.ClearCollection(ctx))

	total, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, total)

	// Collection is recreated and usable after clearing
	require.NoError(t, store.UpsertChunks(ctx, []*Chunk{
		testChunk("q3.pdf", 1, "text", "b", 0.2),
	}))
}
