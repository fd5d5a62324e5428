package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"genie-backend/internal/store"
)

// ErrEmptyCompletion is returned when the endpoint answers without content.
var ErrEmptyCompletion = errors.New("completion returned no content")

// Completer produces the next assistant reply for a conversation.
type Completer interface {
	Complete(ctx context.Context, history []store.Message) (string, error)
	// Stream calls onChunk for every delta and returns the full reply.
	Stream(ctx context.Context, history []store.Message, onChunk func(string) error) (string, error)
}

type OpenAIClient struct {
	client  *openai.Client
	model   string
	persona Persona
}

// NewOpenAIClient builds a client for the hosted endpoint. An empty baseURL
// uses the OpenAI default.
func NewOpenAIClient(apiKey, baseURL, model string, persona Persona) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIClient{
		client:  openai.NewClientWithConfig(cfg),
		model:   model,
		persona: persona,
	}
}

func (c *OpenAIClient) request(history []store.Message) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    convertMessages(history),
		Temperature: c.persona.Style.Temperature,
		MaxTokens:   c.persona.Style.MaxTokens,
	}
}

func (c *OpenAIClient) Complete(ctx context.Context, history []store.Message) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, c.request(history))
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	reply := resp.Choices[0].Message.Content
	if reply == "" {
		return "", ErrEmptyCompletion
	}
	return reply, nil
}

func (c *OpenAIClient) Stream(ctx context.Context, history []store.Message, onChunk func(string) error) (string, error) {
	req := c.request(history)
	req.Stream = true
	stream, err := c.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat stream init: %w", err)
	}
	defer stream.Close()

	var builder strings.Builder
	for {
		response, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return builder.String(), fmt.Errorf("chat stream recv: %w", err)
		}
		if len(response.Choices) == 0 {
			continue
		}
		chunk := response.Choices[0].Delta.Content
		if chunk == "" {
			continue
		}
		builder.WriteString(chunk)
		if err := onChunk(chunk); err != nil {
			return builder.String(), err
		}
	}
	if builder.Len() == 0 {
		return "", ErrEmptyCompletion
	}
	return builder.String(), nil
}

func convertMessages(msgs []store.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		role := m.Role
		if role == "" {
			role = openai.ChatMessageRoleUser
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return out
}
