//go:generate go run go.uber.org/mock/mockgen -source=client.go -destination=../mocks/mock_completion_client.go -package=mocks
package ai

import (
	"context"
	"fmt"

	"chat-ai/domain"

	openai "github.com/sashabaranov/go-openai"
)

// CompletionClient produces one assistant reply for an ordered message
// history. No streaming: the reply is returned whole or not at all.
type CompletionClient interface {
	Complete(ctx context.Context, history []domain.Message) (string, error)
}

// OpenAIClient sends the conversation to the OpenAI chat completions API.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient builds a client for the given key and model. baseURL may be
// empty for the default endpoint, or point at a compatible local server.
// No request timeout is applied; cancellation is the caller's context.
func NewOpenAIClient(apiKey, model, baseURL string) *OpenAIClient {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &OpenAIClient{client: openai.NewClientWithConfig(config), model: model}
}

func (c *OpenAIClient) Complete(ctx context.Context, history []domain.Message) (string, error) {
	response, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: toChatMessages(history),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("chat completion: empty response")
	}
	return response.Choices[0].Message.Content, nil
}

// toChatMessages maps the domain history onto the SDK request shape.
// Only role and raw content cross the wire; rendered forms stay local.
func toChatMessages(history []domain.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(history))
	for _, m := range history {
		role := openai.ChatMessageRoleUser
		if m.Role == domain.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return out
}
