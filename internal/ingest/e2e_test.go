//go:build integration

package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/report-rag/internal/embedding"
	"github.com/bull/report-rag/internal/pdf"
	"github.com/bull/report-rag/internal/rag"
	"github.com/bull/report-rag/internal/splitter"
	"github.com/bull/report-rag/internal/storage"
)

// TestIngestAndAsk_Integration runs the full pipeline against live Qdrant
// and OpenAI: ingest a 3-page PDF whose page 2 holds a small numeric
// table, then ask about the table and verify citations and ranking.
func TestIngestAndAsk_Integration(t *testing.T) {
	if os.Getenv("OPENAI_API_KEY") == "" {
		t.Skip("OPENAI_API_KEY not set, skipping integration test")
	}

	collection := "test_e2e_" + uuid.New().String()[:8]
	store, err := storage.NewStore("localhost", 6334, collection, 3072)
	if err != nil {
		t.Skipf("Qdrant not available: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.EnsureCollection(ctx))

	// Build the fixture PDF
	dir := t.TempDir()
	writeFixturePDF(t, filepath.Join(dir, "q3_report.pdf"))

	// Ingest
	client, err := embedding.NewClient()
	require.NoError(t, err)
	embedder := embedding.NewEmbedder(client, "text-embedding-3-large", 0)
	pipeline := NewPipeline(
		pdf.NewLoader(true, slog.Default()),
		splitter.NewSplitter(1000, 200),
		embedder,
		store,
		slog.Default(),
	)

	result, err := pipeline.IngestDir(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalFiles)
	assert.Equal(t, 3, result.TotalPages)
	assert.Greater(t, result.TextChunks, 0)
	require.Greater(t, result.TableChunks, 0, "page 2 table must be extracted")
	assert.Empty(t, result.FailedFiles)

	// Retrieve: the table chunk must outrank plain-text chunks
	retriever, err := rag.NewRetriever(embedder, store, 8, slog.Default())
	require.NoError(t, err)

	hits, err := retriever.Retrieve(ctx, "What is the total on page 2?", 8)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "table", hits[0].Type, "table-first retrieval must rank the table on top")
	assert.Equal(t, 2, hits[0].Page)

	// Compose: cited pages must include the table page
	composer, err := rag.NewComposer(rag.NewChatClient(client.Client(), "gpt-4o-mini"), 6)
	require.NoError(t, err)

	answer, err := composer.Answer(ctx, "What is the total on page 2?", hits, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, answer.Answer)
	assert.Contains(t, answer.Pages, 2)
}

// writeFixturePDF emits a minimal uncompressed 3-page PDF. Page 2 lays
// out two numeric rows in separated columns so the loader's table pass
// picks them up.
func writeFixturePDF(t *testing.T, path string) {
	t.Helper()

	pageStreams := []string{
		pageText(72, 720, "This quarterly report covers revenue and operating costs for the third quarter."),
		// Two rows, two columns each, with a wide horizontal gap
		"BT /F1 12 Tf 72 700 Td (Widgets) Tj 250 0 Td (150) Tj ET\n" +
			"BT /F1 12 Tf 72 680 Td (Gadgets) Tj 250 0 Td (100) Tj ET\n" +
			pageText(72, 640, "The total across both lines is 250."),
		pageText(72, 720, "Outlook: management expects continued growth next quarter."),
	}

	var buf strings.Builder
	offsets := make(map[int]int)
	writeObj := func(num int, body string) {
		offsets[num] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", num, body)
	}

	buf.WriteString("%PDF-1.4\n")

	// 1: catalog, 2: pages, 3..8: page/content pairs, 9: font
	writeObj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	writeObj(2, "<< /Type /Pages /Kids [3 0 R 5 0 R 7 0 R] /Count 3 >>")
	for i, stream := range pageStreams {
		pageNum := 3 + 2*i
		writeObj(pageNum, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents %d 0 R /Resources << /Font << /F1 9 0 R >> >> >>",
			pageNum+1))
		writeObj(pageNum+1, fmt.Sprintf(
			"<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream))
	}
	writeObj(9, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")

	xrefOffset := buf.Len()
	buf.WriteString("xref\n0 10\n0000000000 65535 f \n")
	for num := 1; num <= 9; num++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[num])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size 10 /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", xrefOffset)

	require.NoError(t, os.WriteFile(path, []byte(buf.String()), 0o644))
}

func pageText(x, y int, text string) string {
	return fmt.Sprintf("BT /F1 12 Tf %d %d Td (%s) Tj ET\n", x, y, text)
}
