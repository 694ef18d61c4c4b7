// Package ingest populates the vector index from a directory of PDF files.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bull/report-rag/internal/embedding"
	"github.com/bull/report-rag/internal/pdf"
	"github.com/bull/report-rag/internal/splitter"
	"github.com/bull/report-rag/internal/storage"
)

// ErrNoPDFs indicates the data directory contains no PDF files.
var ErrNoPDFs = errors.New("no pdf files found in data directory")

// Result contains statistics about an ingestion run.
type Result struct {
	TotalFiles  int
	TotalPages  int
	TextChunks  int
	TableChunks int
	FailedFiles []FailedFile
	Duration    time.Duration
}

// FailedFile represents a PDF that could not be loaded.
type FailedFile struct {
	Path   string
	Reason string
}

// Pipeline orchestrates the full ingestion process from loading to storage.
type Pipeline struct {
	loader   *pdf.Loader
	splitter *splitter.Splitter
	embedder *embedding.Embedder
	store    *storage.Store
	logger   *slog.Logger
}

// NewPipeline creates a new ingestion pipeline with the given components.
func NewPipeline(
	loader *pdf.Loader,
	split *splitter.Splitter,
	embedder *embedding.Embedder,
	store *storage.Store,
	logger *slog.Logger,
) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		loader:   loader,
		splitter: split,
		embedder: embedder,
		store:    store,
		logger:   logger,
	}
}

// IngestDir loads every PDF in dir, chunks and embeds the content, and
// writes the chunks to the vector index. Returns ErrNoPDFs when the
// directory holds no PDFs. A file that fails to load is recorded and
// skipped; embedding and storage errors abort the run.
func (p *Pipeline) IngestDir(ctx context.Context, dir string) (*Result, error) {
	start := time.Now()
	result := &Result{}

	paths, err := pdf.ListPDFs(dir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoPDFs, dir)
	}
	result.TotalFiles = len(paths)
	p.logger.Info("Starting ingestion", "dir", dir, "files", len(paths))

	var docs []pdf.Document
	for _, path := range paths {
		loaded, err := p.loader.LoadFile(path)
		if err != nil {
			p.logger.Warn("Failed to load file", "path", path, "error", err)
			result.FailedFiles = append(result.FailedFiles, FailedFile{
				Path:   path,
				Reason: err.Error(),
			})
			continue // Skip unreadable files, continue with others
		}
		for _, d := range loaded {
			if d.Type == pdf.TypeText {
				result.TotalPages++
			}
		}
		docs = append(docs, loaded...)
	}

	chunks := p.chunkDocuments(docs)
	for _, c := range chunks {
		if c.Type == pdf.TypeTable {
			result.TableChunks++
		} else {
			result.TextChunks++
		}
	}
	p.logger.Info("Chunked documents",
		"pages", result.TotalPages,
		"text_chunks", result.TextChunks,
		"table_chunks", result.TableChunks,
	)

	if len(chunks) > 0 {
		texts := make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = c.Content
		}

		embeddings, err := p.embedder.GenerateEmbeddings(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embeddings: %w", err)
		}
		for i := range chunks {
			chunks[i].Embedding = embeddings[i]
		}

		if err := p.store.UpsertChunks(ctx, chunks); err != nil {
			return nil, fmt.Errorf("store chunks: %w", err)
		}
	}

	result.Duration = time.Since(start)
	p.logger.Info("Ingestion complete",
		"files", result.TotalFiles,
		"failed", len(result.FailedFiles),
		"chunks", len(chunks),
		"duration", result.Duration,
	)

	return result, nil
}

// chunkDocuments splits text documents into overlapping chunks. Table
// documents are already concise and pass through as a single chunk.
func (p *Pipeline) chunkDocuments(docs []pdf.Document) []*storage.Chunk {
	var chunks []*storage.Chunk
	for _, d := range docs {
		if d.Type == pdf.TypeTable {
			chunks = append(chunks, &storage.Chunk{
				ID:      uuid.New().String(),
				Source:  d.Source,
				Page:    d.Page,
				Type:    d.Type,
				Content: d.Text,
			})
			continue
		}
		for _, text := range p.splitter.Split(d.Text) {
			chunks = append(chunks, &storage.Chunk{
				ID:      uuid.New().String(),
				Source:  d.Source,
				Page:    d.Page,
				Type:    pdf.TypeText,
				Content: text,
			})
		}
	}
	return chunks
}
