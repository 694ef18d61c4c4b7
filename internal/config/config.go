// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Embedding models and their vector dimensions. The collection dimension
// must match the model that produced the stored vectors.
var embeddingDimensions = map[string]int{
	"text-embedding-3-large": 3072,
	"text-embedding-3-small": 1536,
	"text-embedding-ada-002": 1536,
}

// Config holds all tunable settings for ingestion and query serving.
type Config struct {
	DataDir        string // Directory scanned for *.pdf files
	QdrantHost     string
	QdrantPort     int
	CollectionName string

	ChunkSize    int // Max chunk length in characters
	ChunkOverlap int // Characters shared between consecutive chunks
	TopK         int // Result count target for retrieval
	HistoryTurns int // Conversation turns passed to the composer

	EmbeddingModel string
	ChatModel      string
	EnableTables   bool // Attempt table extraction during ingestion
}

// Load reads configuration from environment variables, applying defaults
// for anything unset. It does not validate; call Validate before use.
func Load() *Config {
	return &Config{
		DataDir:        getEnv("DATA_DIR", "data"),
		QdrantHost:     getEnv("QDRANT_HOST", "localhost"),
		QdrantPort:     getEnvInt("QDRANT_PORT", 6334),
		CollectionName: getEnv("COLLECTION_NAME", "pdf_collection"),
		ChunkSize:      getEnvInt("CHUNK_SIZE", 1000),
		ChunkOverlap:   getEnvInt("CHUNK_OVERLAP", 200),
		TopK:           getEnvInt("TOP_K", 8),
		HistoryTurns:   getEnvInt("HISTORY_TURNS", 6),
		EmbeddingModel: getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-3-large"),
		ChatModel:      getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		EnableTables:   getEnvBool("ENABLE_TABLES", true),
	}
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("CHUNK_SIZE must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 {
		return fmt.Errorf("CHUNK_OVERLAP must be non-negative, got %d", c.ChunkOverlap)
	}
	if c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("CHUNK_OVERLAP (%d) must be smaller than CHUNK_SIZE (%d)",
			c.ChunkOverlap, c.ChunkSize)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("TOP_K must be positive, got %d", c.TopK)
	}
	if c.HistoryTurns < 0 {
		return fmt.Errorf("HISTORY_TURNS must be non-negative, got %d", c.HistoryTurns)
	}
	if _, ok := embeddingDimensions[c.EmbeddingModel]; !ok {
		return fmt.Errorf("unknown embedding model %q", c.EmbeddingModel)
	}
	return nil
}

// EmbeddingDimension returns the vector dimension for the configured
// embedding model. Validate must have succeeded first.
func (c *Config) EmbeddingDimension() int {
	return embeddingDimensions[c.EmbeddingModel]
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		switch v {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return defaultValue
}
