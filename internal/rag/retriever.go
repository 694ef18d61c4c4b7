package rag

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/bull/report-rag/internal/pdf"
	"github.com/bull/report-rag/internal/storage"
)

// dedupPrefixLen is the number of leading characters of chunk text used
// in the deduplication identity key.
const dedupPrefixLen = 120

// MMR settings: the diversity weight heavily favors diverse results, and
// the candidate pool is sized well beyond the result target.
const (
	mmrLambda        = 0.1
	mmrMinCandidates = 40
	mmrPoolFactor    = 8
)

// Hit is a scored reference to a retrieved chunk. Score is normalized
// into [0,1], higher is more relevant.
type Hit struct {
	Page   int     `json:"page"`
	Text   string  `json:"text"`
	Score  float64 `json:"score"`
	Source string  `json:"source"`
	Type   string  `json:"type"`
}

// Embedder converts text batches to embedding vectors.
type Embedder interface {
	GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// SearchStore is the vector index surface the retriever depends on.
// Implemented by storage.Store.
type SearchStore interface {
	SearchByType(ctx context.Context, embedding []float32, limit int, types []string) ([]*storage.ScoredChunk, error)
	SearchCandidates(ctx context.Context, embedding []float32, limit int) ([]*storage.ScoredChunk, error)
	Search(ctx context.Context, embedding []float32, limit int) ([]*storage.ScoredChunk, error)
}

// Retriever issues table-first, diversity-filled searches against the
// vector index and returns deduplicated, ranked hits.
type Retriever struct {
	embedder Embedder
	store    SearchStore
	topK     int
	logger   *slog.Logger
}

// NewRetriever constructs a Retriever. topK is the result count target
// used when Retrieve is called with k=0.
func NewRetriever(embedder Embedder, store SearchStore, topK int, logger *slog.Logger) (*Retriever, error) {
	if embedder == nil {
		return nil, fmt.Errorf("rag: embedder must not be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("rag: store must not be nil")
	}
	if topK <= 0 {
		topK = 8
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{
		embedder: embedder,
		store:    store,
		topK:     topK,
		logger:   logger,
	}, nil
}

// Retrieve returns up to k deduplicated hits for the query, tables first.
// Search flow:
// 1. Similarity search restricted to table chunks (failure is non-fatal)
// 2. If short of k: fill strategies in order, first success accepted
// (MMR over a large candidate pool, then plain similarity)
// 3. Deduplicate by (source, page, text prefix), first-seen score wins
// 4. Normalize scores into [0,1], sort descending, cut to k
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]Hit, error) {
	if k <= 0 {
		k = r.topK
	}

	embeddings, err := r.embedder.GenerateEmbeddings(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %v", ErrInference, err)
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("%w: embedder returned no vector for query", ErrInference)
	}
	vector := embeddings[0]

	hits, err := r.store.SearchByType(ctx, vector, k, []string{pdf.TypeTable})
	if err != nil {
		// Table filter unsupported or failing: proceed without tables.
		r.logger.Debug("Table search unavailable", "error", fmt.Errorf("%w: %v", ErrBackend, err))
		hits = nil
	}

	if len(hits) < k {
		hits = append(hits, r.fill(ctx, vector, k)...)
	}

	deduped := dedup(hits)
	ranked := make([]Hit, 0, len(deduped))
	for _, sc := range deduped {
		ranked = append(ranked, Hit{
			Page:   sc.Chunk.Page,
			Text:   sc.Chunk.Content,
			Score:  normalizeScore(sc.Score),
			Source: sc.Chunk.Source,
			Type:   sc.Chunk.Type,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked, nil
}

// fill runs the general search strategies in order and returns the first
// successful result set. A failing strategy is logged and skipped.
func (r *Retriever) fill(ctx context.Context, vector []float32, k int) []*storage.ScoredChunk {
	strategies := []struct {
		name string
		run  func(context.Context, []float32, int) ([]*storage.ScoredChunk, error)
	}{
		{"mmr", r.mmrSearch},
		{"similarity", r.store.Search},
	}

	for _, strategy := range strategies {
		hits, err := strategy.run(ctx, vector, k)
		if err != nil {
			r.logger.Debug("Search strategy unavailable",
				"strategy", strategy.name,
				"error", fmt.Errorf("%w: %v", ErrBackend, err))
			continue
		}
		return hits
	}
	return nil
}

// mmrSearch fetches a candidate pool with vectors and re-ranks it with
// maximal marginal relevance. Candidates without stored vectors make the
// pool unusable for diversity scoring, which is treated as an unsupported
// mode so the caller falls back to plain similarity.
func (r *Retriever) mmrSearch(ctx context.Context, vector []float32, k int) ([]*storage.ScoredChunk, error) {
	fetchK := max(mmrMinCandidates, mmrPoolFactor*k)
	candidates, err := r.store.SearchCandidates(ctx, vector, fetchK)
	if err != nil {
		return nil, err
	}
	for _, c := range candidates {
		if len(c.Vector) == 0 {
			return nil, fmt.Errorf("candidate pool missing vectors")
		}
	}
	return maximalMarginalRelevance(candidates, mmrLambda, k), nil
}

// dedupKey identifies a chunk across result sets.
type dedupKey struct {
	source string
	page   int
	prefix string
}

// dedup discards later hits sharing an identity key with an earlier one,
// keeping the first-seen score. Table-pass hits precede fill hits in the
// input, so a table score always wins over a duplicate found later.
func dedup(hits []*storage.ScoredChunk) []*storage.ScoredChunk {
	seen := make(map[dedupKey]bool, len(hits))
	out := make([]*storage.ScoredChunk, 0, len(hits))
	for _, h := range hits {
		key := dedupKey{
			source: h.Chunk.Source,
			page:   h.Chunk.Page,
			prefix: textPrefix(h.Chunk.Content, dedupPrefixLen),
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, h)
	}
	return out
}

// normalizeScore maps a backend score into [0,1]. Negative scores are
// assumed cosine-like in [-1,1]; scores above 1 are assumed distance-like
// and inverted. The final clamp guards unexpected inputs.
func normalizeScore(s float64) float64 {
	if s < 0 {
		s = (s + 1.0) / 2.0
	} else if s > 1 {
		s = 1.0 / (1.0 + s)
	}
	return min(1.0, max(0.0, s))
}

// textPrefix returns the first n characters of s, counted in runes.
func textPrefix(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
