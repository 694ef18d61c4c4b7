package ingest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/report-rag/internal/pdf"
	"github.com/bull/report-rag/internal/splitter"
)

func TestChunkDocuments_TablesPassThrough(t *testing.T) {
	p := NewPipeline(nil, splitter.NewSplitter(100, 20), nil, nil, nil)

	table := "Item | Amount\n" + "Total | 250\n" + "Costs | 40"
	docs := []pdf.Document{
		{Text: table, Source: "q3.pdf", Page: 2, Type: pdf.TypeTable},
	}

	chunks := p.chunkDocuments(docs)

	require.Len(t, chunks, 1, "table documents are never re-split")
	assert.Equal(t, table, chunks[0].Content)
	assert.Equal(t, pdf.TypeTable, chunks[0].Type)
	assert.Equal(t, 2, chunks[0].Page)
	assert.NotEmpty(t, chunks[0].ID)
}

func TestChunkDocuments_SplitsTextWithMetadata(t *testing.T) {
	p := NewPipeline(nil, splitter.NewSplitter(50, 10), nil, nil, nil)

	var long string
	for i := 0; i < 20; i++ {
		long += "the quarter closed with strong revenue growth "
	}
	docs := []pdf.Document{
		{Text: long, Source: "q3.pdf", Page: 1, Type: pdf.TypeText},
	}

	chunks := p.chunkDocuments(docs)

	require.Greater(t, len(chunks), 1)
	ids := make(map[string]bool)
	for _, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c.Content)), 50)
		assert.Equal(t, "q3.pdf", c.Source)
		assert.Equal(t, 1, c.Page)
		assert.Equal(t, pdf.TypeText, c.Type)
		assert.False(t, ids[c.ID], "chunk IDs must be unique")
		ids[c.ID] = true
	}
}

func TestIngestDir_NoPDFs(t *testing.T) {
	p := NewPipeline(pdf.NewLoader(false, nil), splitter.NewSplitter(1000, 200), nil, nil, nil)

	_, err := p.IngestDir(context.Background(), t.TempDir())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoPDFs)
}
