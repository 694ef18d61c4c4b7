// Package mcp provides the MCP server surface for report question answering.
package mcp

import "github.com/bull/report-rag/internal/rag"

// AskReportInput defines the input parameters for the ask_report tool.
type AskReportInput struct {
	// Question is the natural-language question about the indexed reports.
	Question string `json:"question" jsonschema:"required,description=The question to answer from the indexed report PDFs"`
	// History is the prior conversation, oldest first.
	History []HistoryTurn `json:"history,omitempty" jsonschema:"description=Prior question/answer pairs for conversational context"`
}

// HistoryTurn is one prior question/answer pair.
type HistoryTurn struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// AskReportOutput contains the grounded answer with citations.
type AskReportOutput struct {
	// Answer is the model response, grounded in the retrieved passages.
	Answer string `json:"answer"`
	// Pages is the sorted distinct set of cited page numbers.
	Pages []int `json:"pages"`
	// Hits is the full ranked hit list backing the answer.
	Hits []rag.Hit `json:"hits"`
}

// SearchReportInput defines the input parameters for the search_report tool.
type SearchReportInput struct {
	// Query is the semantic search query.
	Query string `json:"query" jsonschema:"required,description=The semantic search query over indexed report chunks"`
	// MaxResults is the maximum number of hits to return.
	MaxResults int `json:"max_results,omitempty" jsonschema:"minimum=1,maximum=20,default=8,description=Maximum number of hits to return"`
	// MinScore is the minimum normalized relevance threshold (0-1).
	MinScore float64 `json:"min_score,omitempty" jsonschema:"minimum=0,maximum=1,default=0,description=Minimum normalized relevance score threshold (0-1)"`
}

// SearchReportOutput contains the ranked search results.
type SearchReportOutput struct {
	// Hits is the ranked, deduplicated hit list.
	Hits []rag.Hit `json:"hits"`
	// Message provides informational context (e.g., "No matching passages found").
	Message string `json:"message,omitempty"`
}

// StatusInput defines the input for the index_status tool.
// This tool takes no parameters.
type StatusInput struct {
	// No input parameters required
}

// StatusOutput describes the current state of the vector index.
type StatusOutput struct {
	// TotalChunks is the total number of indexed chunks.
	TotalChunks int `json:"total_chunks"`
	// TextChunks is the number of chunks of type "text".
	TextChunks int `json:"text_chunks"`
	// TableChunks is the number of chunks of type "table".
	TableChunks int `json:"table_chunks"`
}
