package backend

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicClient implements TextGenerator against the Claude messages API.
// It never implements MultimodalGenerator — image/video/speech/music and
// image analysis remain Gemini-only per the provider table.
type AnthropicClient struct {
	client *anthropic.Client
	model  string
}

// NewAnthropicClient builds a client from an API key; the model defaults to
// a fast general-purpose Claude suitable for prompt enrichment and
// text-node generation.
func NewAnthropicClient(apiKey string) *AnthropicClient {
	return &AnthropicClient{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  "claude-3-5-sonnet-latest",
	}
}

func (c *AnthropicClient) GenerateText(ctx context.Context, prompt string, images [][]byte) (string, error) {
	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.F(anthropic.Model(c.model)),
		MaxTokens: anthropic.F(int64(4096)),
		Messages: anthropic.F([]anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		}),
	})
	if err != nil {
		return "", err
	}

	var out string
	for _, content := range message.Content {
		if content.Type == anthropic.ContentBlockTypeText {
			out += content.Text
		}
	}
	return out, nil
}
