// Package main provides the MCP server entry point for report question answering.
package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/bull/report-rag/internal/config"
	"github.com/bull/report-rag/internal/embedding"
	mcpserver "github.com/bull/report-rag/internal/mcp"
	"github.com/bull/report-rag/internal/rag"
	"github.com/bull/report-rag/internal/storage"
)

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Create context that cancels on SIGTERM/SIGINT
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	port := getEnv("PORT", "8080")

	// Initialize storage
	store, err := storage.NewStore(cfg.QdrantHost, cfg.QdrantPort, cfg.CollectionName, cfg.EmbeddingDimension())
	if err != nil {
		log.Fatalf("failed to connect to Qdrant: %v", err)
	}
	defer store.Close()

	// Ensure collection exists
	if err := store.EnsureCollection(ctx); err != nil {
		log.Fatalf("failed to ensure collection: %v", err)
	}

	// Initialize OpenAI-backed components
	client, err := embedding.NewClient()
	if err != nil {
		log.Fatalf("failed to create embedding client: %v", err)
	}
	embedder := embedding.NewEmbedder(client, cfg.EmbeddingModel, 0) // Use default batch size

	retriever, err := rag.NewRetriever(embedder, store, cfg.TopK, slog.Default())
	if err != nil {
		log.Fatalf("failed to create retriever: %v", err)
	}
	composer, err := rag.NewComposer(rag.NewChatClient(client.Client(), cfg.ChatModel), cfg.HistoryTurns)
	if err != nil {
		log.Fatalf("failed to create composer: %v", err)
	}

	// Create MCP server
	server := mcpserver.NewServer(&mcpserver.Config{
		Store:     store,
		Retriever: retriever,
		Composer:  composer,
	})

	// Create HTTP server with multiple endpoints
	mux := http.NewServeMux()

	// Landing page and health endpoint
	mux.HandleFunc("/", mcpserver.NewLandingHandler())
	mux.HandleFunc("/health", mcpserver.NewHealthHandler(store))

	// MCP HTTP endpoint (for remote client connections)
	mux.Handle("/mcp", mcpserver.NewHTTPHandler(server, nil))

	// Check if running in server mode (HTTP) or stdio mode (local development)
	serverMode := getEnv("SERVER_MODE", "false") == "true"

	if serverMode {
		// HTTP mode: serve MCP over HTTP for remote clients
		addr := "0.0.0.0:" + port
		log.Printf("Starting HTTP server on %s (MCP at /mcp, health at /health)", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Fatalf("HTTP server error: %v", err)
		}
	} else {
		// Stdio mode: run MCP server over stdin/stdout for local clients
		// Also start HTTP health endpoint in background for local testing
		go func() {
			addr := "0.0.0.0:" + port
			log.Printf("Starting health server on %s", addr)
			if err := http.ListenAndServe(addr, mux); err != nil {
				log.Printf("Health server error: %v", err)
			}
		}()

		log.Println("Starting Report RAG MCP Server (stdio mode)...")
		if err := server.Run(ctx); err != nil {
			log.Printf("server error: %v", err)
			os.Exit(1)
		}
	}
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
