// Package claude generates reply text via the Claude API.
package claude

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// responseTokens bounds the generation; replies are truncated to a 280-char
// post anyway.
const responseTokens = 300

// Client is a single-shot text generator backed by the Claude messages API.
type Client struct {
	client anthropic.Client
	model  anthropic.Model
}

// New creates a Claude client with the given API key and model name. Extra
// request options (e.g. a base URL override in tests) are passed through.
func New(apiKey, model string, opts ...option.RequestOption) *Client {
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &Client{
		client: anthropic.NewClient(opts...),
		model:  anthropic.Model(model),
	}
}

// Generate sends one user prompt under the given system prompt and returns
// the concatenated text blocks of the response.
func (c *Client) Generate(ctx context.Context, system, prompt string) (string, error) {
	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: responseTokens,
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("claude: send message: %w", err)
	}

	var out string
	for _, block := range msg.Content {
		if block.Type == "text" {
			out += block.Text
		}
	}
	if out == "" {
		return "", fmt.Errorf("claude: response contained no text")
	}
	return out, nil
}
