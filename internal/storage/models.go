package storage

// Chunk represents one indexed unit of content: a span of page text or a
// serialized table, with its embedding vector and origin metadata.
type Chunk struct {
	ID        string    // UUID
	Source    string    // Originating file name: "Q3_report.pdf"
	Page      int       // 1-based page number
	Type      string    // "text" or "table"
	Content   string    // Chunk text content
	Embedding []float32 // Vector sized to the configured embedding model
}

// ScoredChunk is a chunk returned by a search, with its raw similarity
// score. Vector is populated only by candidate searches that request it.
type ScoredChunk struct {
	Chunk  *Chunk
	Score  float64
	Vector []float32
}
