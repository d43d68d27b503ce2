package enrich

import (
	"context"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultAnthropicModel = "claude-sonnet-4-20250514"

// AnthropicDescriber fetches repository descriptions from the Anthropic
// API. Used as an alternative provider when no Perplexity credential is
// configured but an Anthropic key is.
type AnthropicDescriber struct {
	client *anthropic.Client
	model  string
}

// NewAnthropicDescriber creates an AnthropicDescriber.
// If model is empty, it defaults to claude-sonnet-4-20250514.
func NewAnthropicDescriber(apiKey, model string) *AnthropicDescriber {
	if model == "" {
		model = defaultAnthropicModel
	}
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &AnthropicDescriber{
		client: &client,
		model:  model,
	}
}

// Describe asks Anthropic for a description of the repository at repoURL.
func (a *AnthropicDescriber) Describe(ctx context.Context, repoURL string) (string, error) {
	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: 1024,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(BuildPrompt(repoURL))),
		},
	})
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			if apiErr.StatusCode == 408 || apiErr.StatusCode == 504 {
				return "", fmt.Errorf("%w: %s", ErrTimeout, err)
			}
		}
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %s", ErrTimeout, ctx.Err())
		}
		return "", fmt.Errorf("anthropic completion: %w", err)
	}

	for _, block := range msg.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}

	return "", fmt.Errorf("%w: no text content in response", ErrInvalidResponse)
}
