package rag

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
)

// ChatClient implements Completer and StreamCompleter on top of the
// OpenAI chat completions API.
type ChatClient struct {
	client *openai.Client
	model  string
}

// NewChatClient creates a ChatClient for the given model.
func NewChatClient(client *openai.Client, model string) *ChatClient {
	return &ChatClient{
		client: client,
		model:  model,
	}
}

// Complete sends one system+user exchange and returns the response text.
// Failures are reported as ErrInference and are not retried.
func (c *ChatClient) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Model: c.model,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInference, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty completion response", ErrInference)
	}
	return resp.Choices[0].Message.Content, nil
}

// StreamComplete streams the response, invoking onDelta for each text
// fragment, and returns the accumulated full text.
func (c *ChatClient) StreamComplete(ctx context.Context, system, user string, onDelta func(string)) (string, error) {
	stream := c.client.Chat.Completions.NewStreaming(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Model: c.model,
	})

	acc := openai.ChatCompletionAccumulator{}
	for stream.Next() {
		chunk := stream.Current()
		acc.AddChunk(chunk)
		if len(chunk.Choices) > 0 {
			if delta := chunk.Choices[0].Delta.Content; delta != "" {
				onDelta(delta)
			}
		}
	}
	if err := stream.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInference, err)
	}
	if len(acc.Choices) == 0 {
		return "", fmt.Errorf("%w: empty completion response", ErrInference)
	}
	return acc.Choices[0].Message.Content, nil
}
