package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, "localhost", cfg.QdrantHost)
	assert.Equal(t, 6334, cfg.QdrantPort)
	assert.Equal(t, "pdf_collection", cfg.CollectionName)
	assert.Equal(t, 1000, cfg.ChunkSize)
	assert.Equal(t, 200, cfg.ChunkOverlap)
	assert.Equal(t, 8, cfg.TopK)
	assert.Equal(t, 6, cfg.HistoryTurns)
	assert.Equal(t, "text-embedding-3-large", cfg.EmbeddingModel)
	assert.Equal(t, "gpt-4o-mini", cfg.ChatModel)
	assert.True(t, cfg.EnableTables)

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 3072, cfg.EmbeddingDimension())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CHUNK_SIZE", "500")
	t.Setenv("CHUNK_OVERLAP", "50")
	t.Setenv("TOP_K", "4")
	t.Setenv("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small")
	t.Setenv("ENABLE_TABLES", "false")

	cfg := Load()

	assert.Equal(t, 500, cfg.ChunkSize)
	assert.Equal(t, 50, cfg.ChunkOverlap)
	assert.Equal(t, 4, cfg.TopK)
	assert.False(t, cfg.EnableTables)

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1536, cfg.EmbeddingDimension())
}

func TestLoad_InvalidIntFallsBack(t *testing.T) {
	t.Setenv("CHUNK_SIZE", "not-a-number")

	cfg := Load()

	assert.Equal(t, 1000, cfg.ChunkSize)
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero chunk size", func(c *Config) { c.ChunkSize = 0 }},
		{"negative overlap", func(c *Config) { c.ChunkOverlap = -1 }},
		{"overlap not smaller than size", func(c *Config) { c.ChunkOverlap = c.ChunkSize }},
		{"zero top k", func(c *Config) { c.TopK = 0 }},
		{"negative history turns", func(c *Config) { c.HistoryTurns = -1 }},
		{"unknown embedding model", func(c *Config) { c.EmbeddingModel = "mystery-model" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Load()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
