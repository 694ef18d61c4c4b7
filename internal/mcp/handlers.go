package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bull/report-rag/internal/pdf"
	"github.com/bull/report-rag/internal/rag"
	"github.com/bull/report-rag/internal/storage"
)

// makeAskHandler creates the ask_report tool handler.
// Flow: retrieve ranked hits for the question, then compose a grounded
// answer with page citations. Zero hits yields the fixed no-passage
// answer without a model call.
func makeAskHandler(retriever *rag.Retriever, composer *rag.Composer) func(
	context.Context, *mcp.CallToolRequest, AskReportInput,
) (*mcp.CallToolResult, AskReportOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input AskReportInput) (
		*mcp.CallToolResult, AskReportOutput, error,
	) {
		hits, err := retriever.Retrieve(ctx, input.Question, 0)
		if err != nil {
			return nil, AskReportOutput{}, fmt.Errorf("retrieval failed: %w", err)
		}

		history := make([]rag.Turn, len(input.History))
		for i, turn := range input.History {
			history[i] = rag.Turn{Question: turn.Question, Answer: turn.Answer}
		}

		result, err := composer.Answer(ctx, input.Question, hits, history)
		if err != nil {
			return nil, AskReportOutput{}, fmt.Errorf("answer composition failed: %w", err)
		}

		return nil, AskReportOutput{
			Answer: result.Answer,
			Pages:  result.Pages,
			Hits:   result.Hits,
		}, nil
	}
}

// makeSearchHandler creates the search_report tool handler.
// Returns ranked hits with normalized scores, optionally filtered by a
// minimum score threshold.
func makeSearchHandler(retriever *rag.Retriever) func(
	context.Context, *mcp.CallToolRequest, SearchReportInput,
) (*mcp.CallToolResult, SearchReportOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SearchReportInput) (
		*mcp.CallToolResult, SearchReportOutput, error,
	) {
		maxResults := input.MaxResults
		if maxResults <= 0 {
			maxResults = 8
		}

		hits, err := retriever.Retrieve(ctx, input.Query, maxResults)
		if err != nil {
			return nil, SearchReportOutput{}, fmt.Errorf("search failed: %w", err)
		}

		filtered := make([]rag.Hit, 0, len(hits))
		for _, hit := range hits {
			if hit.Score >= input.MinScore {
				filtered = append(filtered, hit)
			}
		}

		if len(filtered) == 0 {
			return nil, SearchReportOutput{
				Hits:    []rag.Hit{},
				Message: "No matching passages found. Try broader search terms.",
			}, nil
		}

		return nil, SearchReportOutput{Hits: filtered}, nil
	}
}

// makeStatusHandler creates the index_status tool handler.
func makeStatusHandler(store *storage.Store) func(
	context.Context, *mcp.CallToolRequest, StatusInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input StatusInput) (
		*mcp.CallToolResult, StatusOutput, error,
	) {
		counts, err := store.CountByType(ctx, pdf.TypeText, pdf.TypeTable)
		if err != nil {
			return nil, StatusOutput{}, fmt.Errorf("qdrant_error: failed to count chunks: %w", err)
		}

		text := int(counts[pdf.TypeText])
		table := int(counts[pdf.TypeTable])

		return nil, StatusOutput{
			TotalChunks: text + table,
			TextChunks:  text,
			TableChunks: table,
		}, nil
	}
}
