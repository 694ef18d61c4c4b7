package rag

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// SystemPrompt is the fixed instruction given to the chat model: answer
// strictly from the provided context, cite pages, admit gaps.
const SystemPrompt = `You are an expert financial analyst specialized in quarterly company reports.
You analyze and synthesize the financial data of the provided report (text, tables).
Answer clearly and precisely, with exact figures whenever they appear in the context.
Cite page numbers in brackets, e.g. [p. 4, 6].
If the information is not in the context, say so explicitly.`

const userPromptTemplate = `Question:
%s

History:
%s

Context:
%s

Instructions:
- Rely only on the context above.
- Give exact values when they appear (amounts, margins, volumes, etc.).
- If the information is not available in the context, say so clearly.`

// NoPassageAnswer is returned when retrieval produced no hits. Not an
// error: an empty index or an off-topic question is a valid outcome.
const NoPassageAnswer = "No relevant passage found in the indexed documents."

// maxExcerptLen caps non-table excerpt length in the context block.
// Tables are never truncated; they are assumed concise.
const maxExcerptLen = 1600

// truncationMarker is appended to capped excerpts.
const truncationMarker = " ..."

// DefaultHistoryTurns is the number of conversation turns formatted into
// the prompt when the composer is configured with 0.
const DefaultHistoryTurns = 6

// Turn is one question/answer pair of conversation history.
type Turn struct {
	Question string
	Answer   string
}

// Result is the output of one answered query.
type Result struct {
	Answer string `json:"answer"`
	Pages  []int  `json:"pages"`
	Hits   []Hit  `json:"hits"`
}

// Completer is the chat model surface the composer depends on.
// Implemented by ChatClient.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Composer formats retrieved hits and history into a grounded prompt and
// turns the model response into a Result with cited pages.
type Composer struct {
	llm      Completer
	maxTurns int
}

// NewComposer creates a Composer. maxTurns limits the history passed to
// the model; 0 selects DefaultHistoryTurns.
func NewComposer(llm Completer, maxTurns int) (*Composer, error) {
	if llm == nil {
		return nil, fmt.Errorf("rag: completer must not be nil")
	}
	if maxTurns <= 0 {
		maxTurns = DefaultHistoryTurns
	}
	return &Composer{
		llm:      llm,
		maxTurns: maxTurns,
	}, nil
}

// Answer composes a grounded response for the question from the given
// hits and history. With zero hits it short-circuits to NoPassageAnswer
// without invoking the model. Model failures propagate as ErrInference.
func (c *Composer) Answer(ctx context.Context, question string, hits []Hit, history []Turn) (*Result, error) {
	if len(hits) == 0 {
		return &Result{
			Answer: NoPassageAnswer,
			Pages:  []int{},
			Hits:   []Hit{},
		}, nil
	}

	answer, err := c.llm.Complete(ctx, SystemPrompt, c.userPrompt(question, hits, history))
	if err != nil {
		return nil, err
	}

	return &Result{
		Answer: answer,
		Pages:  citedPages(hits),
		Hits:   hits,
	}, nil
}

// userPrompt embeds the question, formatted history, and context block.
func (c *Composer) userPrompt(question string, hits []Hit, history []Turn) string {
	return fmt.Sprintf(userPromptTemplate,
		question,
		formatHistory(history, c.maxTurns),
		buildContext(hits),
	)
}

// buildContext concatenates page-tagged excerpts for every hit. Text
// excerpts are capped at maxExcerptLen characters with a marker; table
// excerpts pass through whole.
func buildContext(hits []Hit) string {
	parts := make([]string, 0, len(hits))
	for _, h := range hits {
		text := strings.TrimSpace(h.Text)
		if h.Type != "table" {
			if runes := []rune(text); len(runes) > maxExcerptLen {
				text = string(runes[:maxExcerptLen]) + truncationMarker
			}
		}
		parts = append(parts, fmt.Sprintf("(p. %d) %s", h.Page, text))
	}
	return strings.Join(parts, "\n\n")
}

// formatHistory renders the last maxTurns turns as alternating
// question/answer lines, omitting empty sides. An empty history renders
// as "(none)".
func formatHistory(history []Turn, maxTurns int) string {
	if len(history) > maxTurns {
		history = history[len(history)-maxTurns:]
	}

	var lines []string
	for _, turn := range history {
		if q := strings.TrimSpace(turn.Question); q != "" {
			lines = append(lines, "User: "+q)
		}
		if a := strings.TrimSpace(turn.Answer); a != "" {
			lines = append(lines, "Assistant: "+a)
		}
	}
	if len(lines) == 0 {
		return "(none)"
	}
	return strings.Join(lines, "\n")
}

// citedPages returns the sorted distinct pages of the hits.
func citedPages(hits []Hit) []int {
	seen := make(map[int]bool, len(hits))
	pages := make([]int, 0, len(hits))
	for _, h := range hits {
		if h.Page > 0 && !seen[h.Page] {
			seen[h.Page] = true
			pages = append(pages, h.Page)
		}
	}
	sort.Ints(pages)
	return pages
}
