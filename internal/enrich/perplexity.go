package enrich

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// PerplexityBaseURL is the Perplexity API endpoint. The API speaks the
// OpenAI chat-completions wire format.
const PerplexityBaseURL = "https://api.perplexity.ai"

const defaultPerplexityModel = "sonar"

// PerplexityDescriber fetches repository descriptions from the Perplexity
// search API.
type PerplexityDescriber struct {
	client *openai.Client
	model  string
}

// NewPerplexityDescriber creates a PerplexityDescriber with the given
// bearer credential. If model is empty, it defaults to sonar. baseURL is
// overridable for testing; pass "" for the production endpoint.
func NewPerplexityDescriber(apiKey, model, baseURL string) *PerplexityDescriber {
	if model == "" {
		model = defaultPerplexityModel
	}
	if baseURL == "" {
		baseURL = PerplexityBaseURL
	}
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	return &PerplexityDescriber{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Describe asks Perplexity for a description of the repository at repoURL.
func (p *PerplexityDescriber) Describe(ctx context.Context, repoURL string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: BuildPrompt(repoURL),
			},
		},
		MaxTokens: 1024,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			if apiErr.HTTPStatusCode == 408 || apiErr.HTTPStatusCode == 504 {
				return "", fmt.Errorf("%w: %s", ErrTimeout, err)
			}
		}
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %s", ErrTimeout, ctx.Err())
		}
		return "", fmt.Errorf("perplexity completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", ErrInvalidResponse)
	}

	return resp.Choices[0].Message.Content, nil
}
