// Package main provides the ragctl CLI for report ingestion and question answering.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/bull/report-rag/internal/config"
	"github.com/bull/report-rag/internal/embedding"
	"github.com/bull/report-rag/internal/ingest"
	"github.com/bull/report-rag/internal/pdf"
	"github.com/bull/report-rag/internal/rag"
	"github.com/bull/report-rag/internal/splitter"
	"github.com/bull/report-rag/internal/storage"
)

var rootCmd = &cobra.Command{
	Use:   "ragctl",
	Short: "Report PDF question-answering tool",
	Long:  "CLI for ingesting report PDFs into Qdrant and asking grounded questions about them",
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Rebuild the index from the PDF data directory",
	Long: `Clears the existing collection and rebuilds it from the data directory.

This command:
1. Connects to Qdrant and verifies health
2. Clears the existing chunk collection
3. Loads every PDF in the data directory (pages as text, tables best-effort)
4. Splits pages into overlapping chunks and generates embeddings
5. Stores the embedded chunks in Qdrant

Environment variables:
  DATA_DIR               Directory scanned for *.pdf files (default: data)
  QDRANT_HOST            Qdrant hostname (default: localhost)
  QDRANT_PORT            Qdrant gRPC port (default: 6334)
  OPENAI_API_KEY         OpenAI API key for embeddings (required)
  OPENAI_EMBEDDING_MODEL Embedding model (default: text-embedding-3-large)
  CHUNK_SIZE             Max chunk length in characters (default: 1000)
  CHUNK_OVERLAP          Overlap between consecutive chunks (default: 200)
  ENABLE_TABLES          Attempt table extraction (default: true)`,
	RunE: runIngest,
}

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a single question about the indexed reports",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive question-answering session with conversation history",
	Long: `Starts an interactive loop. Each answer streams to the terminal as it is
generated. Type /reset to clear the conversation history, exit to quit.`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(chatCmd)
}

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	start := time.Now()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	fmt.Println("Starting ingestion...")
	fmt.Println()

	// 1. Connect to Qdrant
	fmt.Printf("Connecting to Qdrant at %s:%d...\n", cfg.QdrantHost, cfg.QdrantPort)
	store, err := storage.NewStore(cfg.QdrantHost, cfg.QdrantPort, cfg.CollectionName, cfg.EmbeddingDimension())
	if err != nil {
		return fmt.Errorf("failed to connect to Qdrant: %w", err)
	}
	defer store.Close()
	fmt.Println("Qdrant healthy")

	// 2. Initialize embedding client
	client, err := embedding.NewClient()
	if err != nil {
		return fmt.Errorf("failed to create embedding client: %w", err)
	}
	embedder := embedding.NewEmbedder(client, cfg.EmbeddingModel, 0) // Use default batch size

	// 3. Clear existing collection
	fmt.Println()
	fmt.Println("Clearing existing collection...")
	if err := store.EnsureCollection(ctx); err != nil {
		return fmt.Errorf("failed to ensure collection: %w", err)
	}
	if err := store.ClearCollection(ctx); err != nil {
		return fmt.Errorf("failed to clear collection: %w", err)
	}
	fmt.Println("Collection cleared")

	// 4. Run the pipeline
	fmt.Println()
	fmt.Printf("Ingesting PDFs from %s...\n", cfg.DataDir)
	loader := pdf.NewLoader(cfg.EnableTables, slog.Default())
	split := splitter.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	pipeline := ingest.NewPipeline(loader, split, embedder, store, slog.Default())

	result, err := pipeline.IngestDir(ctx, cfg.DataDir)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	// 5. Print results
	fmt.Println()
	fmt.Println("Ingestion complete!")
	fmt.Printf("  Files: %d/%d\n", result.TotalFiles-len(result.FailedFiles), result.TotalFiles)
	fmt.Printf("  Pages: %d\n", result.TotalPages)
	fmt.Printf("  Text chunks: %d\n", result.TextChunks)
	fmt.Printf("  Table chunks: %d\n", result.TableChunks)
	fmt.Printf("  Duration: %s\n", result.Duration.Round(time.Second))

	if len(result.FailedFiles) > 0 {
		fmt.Println()
		fmt.Println("Failed files:")
		for _, failed := range result.FailedFiles {
			fmt.Printf("  - %s: %s\n", failed.Path, failed.Reason)
		}
	}

	fmt.Println()
	fmt.Printf("Total time: %s\n", time.Since(start).Round(time.Second))

	return nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	question := strings.Join(args, " ")

	retriever, composer, store, err := buildQueryComponents()
	if err != nil {
		return err
	}
	defer store.Close()

	hits, err := retriever.Retrieve(ctx, question, 0)
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}

	result, err := composer.Answer(ctx, question, hits, nil)
	if err != nil {
		return fmt.Errorf("answer composition failed: %w", err)
	}

	fmt.Println(result.Answer)
	if len(result.Pages) > 0 {
		fmt.Println()
		fmt.Printf("Cited pages: %v\n", result.Pages)
	}

	return nil
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := config.Load()

	retriever, composer, store, err := buildQueryComponents()
	if err != nil {
		return err
	}
	defer store.Close()

	session := rag.NewSession()
	scanner := bufio.NewScanner(os.Stdin)

	fmt.Println("Interactive report Q&A. Type /reset to clear history, exit to quit.")
	for {
		fmt.Print("\n> ")
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())

		switch question {
		case "":
			continue
		case "exit", "quit":
			return nil
		case "/reset":
			session.Reset()
			fmt.Println("History cleared.")
			continue
		}

		hits, err := retriever.Retrieve(ctx, question, 0)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}

		answer, failed := streamAnswer(ctx, composer, question, hits, session.Recent(cfg.HistoryTurns))
		if failed {
			continue
		}
		session.Append(question, answer)
	}

	return scanner.Err()
}

// streamAnswer renders a streamed answer to stdout and returns the full
// answer text. The event producer is decoupled from this rendering loop.
func streamAnswer(ctx context.Context, composer *rag.Composer, question string, hits []rag.Hit, history []rag.Turn) (string, bool) {
	var answer string
	for event := range composer.AnswerStream(ctx, question, hits, history) {
		switch e := event.(type) {
		case rag.TextDelta:
			fmt.Print(e.Text)
		case rag.Done:
			answer = e.Result.Answer
			fmt.Println()
			if len(e.Result.Pages) > 0 {
				fmt.Printf("Cited pages: %v\n", e.Result.Pages)
			}
		case rag.ErrorEvent:
			fmt.Fprintf(os.Stderr, "\nerror: %v\n", e.Err)
			return "", true
		}
	}
	return answer, false
}

// buildQueryComponents wires the retriever and composer against Qdrant
// and OpenAI from the environment configuration.
func buildQueryComponents() (*rag.Retriever, *rag.Composer, *storage.Store, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	store, err := storage.NewStore(cfg.QdrantHost, cfg.QdrantPort, cfg.CollectionName, cfg.EmbeddingDimension())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to connect to Qdrant: %w", err)
	}

	client, err := embedding.NewClient()
	if err != nil {
		store.Close()
		return nil, nil, nil, fmt.Errorf("failed to create embedding client: %w", err)
	}
	embedder := embedding.NewEmbedder(client, cfg.EmbeddingModel, 0)

	retriever, err := rag.NewRetriever(embedder, store, cfg.TopK, slog.Default())
	if err != nil {
		store.Close()
		return nil, nil, nil, err
	}

	composer, err := rag.NewComposer(rag.NewChatClient(client.Client(), cfg.ChatModel), cfg.HistoryTurns)
	if err != nil {
		store.Close()
		return nil, nil, nil, err
	}

	return retriever, composer, store, nil
}
