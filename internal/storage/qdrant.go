package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/qdrant/go-client/qdrant"
)

// Store wraps the Qdrant client with connection management and health checks.
// One Store serves one named collection with a fixed vector dimension.
type Store struct {
	client     *qdrant.Client
	collection string
	dimension  int
}

// NewStore creates a new Qdrant client with health validation.
// It performs health check with retry on startup and fails fast if Qdrant is unreachable.
func NewStore(host string, port int, collection string, dimension int) (*Store, error) {
	// Create Qdrant client using gRPC
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	store := &Store{
		client:     client,
		collection: collection,
		dimension:  dimension,
	}

	// Perform health check with exponential backoff retry
	ctx := context.Background()
	if err := store.healthCheckWithRetry(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	return store, nil
}

// healthCheckWithRetry performs health check with exponential backoff.
// Initial interval 500ms, max interval 10s, max elapsed 30s.
func (s *Store) healthCheckWithRetry(ctx context.Context) error {
	exponentialBackoff := backoff.NewExponentialBackOff()
	exponentialBackoff.InitialInterval = 500 * time.Millisecond
	exponentialBackoff.MaxInterval = 10 * time.Second
	exponentialBackoff.MaxElapsedTime = 30 * time.Second

	operation := func() error {
		return s.Health(ctx)
	}

	return backoff.Retry(operation, exponentialBackoff)
}

// Health performs a single health check against Qdrant.
// Returns nil if Qdrant is healthy, error otherwise.
func (s *Store) Health(ctx context.Context) error {
	result, err := s.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	if result == nil || result.Title == "" {
		return fmt.Errorf("health check returned invalid response")
	}

	return nil
}

// EnsureCollection ensures the chunk collection exists with proper configuration.
// Creates the collection with cosine-distance vectors and payload indexes.
// Idempotent - safe to call multiple times.
func (s *Store) EnsureCollection(ctx context.Context) error {
	collections, err := s.client.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}

	for _, name := range collections {
		if name == s.collection {
			// Collection already exists, nothing to do
			return nil
		}
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(s.dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	if err := s.createPayloadIndexes(ctx); err != nil {
		return fmt.Errorf("failed to create payload indexes: %w", err)
	}

	return nil
}

// createPayloadIndexes creates indexes for all filterable fields.
// Without these indexes, filtered searches become drastically slower.
func (s *Store) createPayloadIndexes(ctx context.Context) error {
	keywordFields := []string{
		"source", // Filter chunks by originating file
		"type",   // Distinguish "text" vs "table"
	}

	for _, field := range keywordFields {
		_, err := s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: s.collection,
			FieldName:      field,
			FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
		})
		if err != nil {
			return fmt.Errorf("failed to create index for field %s: %w", field, err)
		}
	}

	_, err := s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
		CollectionName: s.collection,
		FieldName:      "page",
		FieldType:      qdrant.FieldType_FieldTypeInteger.Enum(),
	})
	if err != nil {
		return fmt.Errorf("failed to create index for field page: %w", err)
	}

	return nil
}

// ClearCollection deletes all points in the collection.
// Used by full re-ingestion.
func (s *Store) ClearCollection(ctx context.Context) error {
	err := s.client.DeleteCollection(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}

	// Recreate with proper configuration
	return s.EnsureCollection(ctx)
}

// Close closes the Qdrant client connection.
func (s *Store) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// upsertWithRetry performs upsert operation with exponential backoff retry.
func (s *Store) upsertWithRetry(ctx context.Context, points []*qdrant.PointStruct) error {
	exponentialBackoff := backoff.NewExponentialBackOff()
	exponentialBackoff.InitialInterval = 500 * time.Millisecond
	exponentialBackoff.MaxInterval = 10 * time.Second
	exponentialBackoff.MaxElapsedTime = 30 * time.Second

	operation := func() error {
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: s.collection,
			Points:         points,
		})
		return err
	}

	return backoff.Retry(operation, exponentialBackoff)
}

// UpsertChunks stores multiple chunks with embeddings in Qdrant.
// Chunks are batched in groups of 100 for performance.
func (s *Store) UpsertChunks(ctx context.Context, chunks []*Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	// Validate embedding dimensions
	for i, chunk := range chunks {
		if len(chunk.Embedding) != s.dimension {
			return fmt.Errorf("%w: chunk %d has %d dimensions, expected %d",
				ErrDimensionMismatch, i, len(chunk.Embedding), s.dimension)
		}
	}

	// Batch upserts in groups of 100
	batchSize := 100
	for i := 0; i < len(chunks); i += batchSize {
		end := i + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		batch := chunks[i:end]
		points := make([]*qdrant.PointStruct, len(batch))

		for j, chunk := range batch {
			points[j] = &qdrant.PointStruct{
				Id:      qdrant.NewIDUUID(chunk.ID),
				Vectors: qdrant.NewVectors(chunk.Embedding...),
				Payload: qdrant.NewValueMap(map[string]any{
					"source":  chunk.Source,
					"page":    chunk.Page,
					"type":    chunk.Type,
					"content": chunk.Content,
				}),
			}
		}

		if err := s.upsertWithRetry(ctx, points); err != nil {
			return fmt.Errorf("failed to upsert batch %d-%d: %w", i, end, err)
		}
	}

	return nil
}

// SearchByType performs vector similarity search restricted to chunks of
// the given type tags. Returns up to limit chunks ordered by score descending.
func (s *Store) SearchByType(ctx context.Context, embedding []float32, limit int, types []string) ([]*ScoredChunk, error) {
	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatchKeywords("type", types...),
		},
	}
	return s.query(ctx, embedding, limit, filter, false)
}

// Search performs a plain vector similarity search over all chunk types.
func (s *Store) Search(ctx context.Context, embedding []float32, limit int) ([]*ScoredChunk, error) {
	return s.query(ctx, embedding, limit, nil, false)
}

// SearchCandidates performs an unfiltered similarity search returning the
// stored vectors along with each hit, for callers that re-rank client-side.
func (s *Store) SearchCandidates(ctx context.Context, embedding []float32, limit int) ([]*ScoredChunk, error) {
	return s.query(ctx, embedding, limit, nil, true)
}

// query runs a Qdrant vector query and converts results to ScoredChunks.
func (s *Store) query(ctx context.Context, embedding []float32, limit int, filter *qdrant.Filter, withVectors bool) ([]*ScoredChunk, error) {
	if len(embedding) != s.dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, expected %d",
			ErrDimensionMismatch, len(embedding), s.dimension)
	}

	results, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(embedding...),
		Filter:         filter,
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(withVectors),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search chunks: %w", err)
	}

	scored := make([]*ScoredChunk, 0, len(results))
	for _, result := range results {
		payload := result.Payload

		chunk := &Chunk{
			ID:      result.Id.GetUuid(),
			Source:  payload["source"].GetStringValue(),
			Page:    int(payload["page"].GetIntegerValue()),
			Type:    payload["type"].GetStringValue(),
			Content: payload["content"].GetStringValue(),
		}

		sc := &ScoredChunk{
			Chunk: chunk,
			Score: float64(result.Score), // Qdrant returns float32, convert to float64
		}
		if withVectors && result.Vectors != nil {
			if v := result.Vectors.GetVector(); v != nil {
				sc.Vector = v.GetData()
			}
		}
		scored = append(scored, sc)
	}

	return scored, nil
}

// CountByType returns the number of stored points for each given type tag.
func (s *Store) CountByType(ctx context.Context, types ...string) (map[string]uint64, error) {
	counts := make(map[string]uint64, len(types))
	for _, t := range types {
		n, err := s.client.Count(ctx, &qdrant.CountPoints{
			CollectionName: s.collection,
			Filter: &qdrant.Filter{
				Must: []*qdrant.Condition{
					qdrant.NewMatch("type", t),
				},
			},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to count %s chunks: %w", t, err)
		}
		counts[t] = n
	}
	return counts, nil
}

// Count returns the total number of stored points in the collection.
func (s *Store) Count(ctx context.Context) (uint64, error) {
	collection, err := s.client.GetCollectionInfo(ctx, s.collection)
	if err != nil {
		return 0, fmt.Errorf("failed to get collection: %w", err)
	}
	return collection.GetPointsCount(), nil
}
