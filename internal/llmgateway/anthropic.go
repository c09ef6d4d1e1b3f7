package llmgateway

import (
	"context"
	"errors"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"brandintel/internal/config"
)

// anthropicClient wraps the real anthropic-sdk-go Messages API.
type anthropicClient struct {
	client sdk.Client
	mdl    string
}

func newAnthropicClient(cfg config.AnthropicConfig) *anthropicClient {
	return &anthropicClient{
		client: sdk.NewClient(option.WithAPIKey(cfg.APIKey)),
		mdl:    cfg.Model,
	}
}

func (c *anthropicClient) name() string  { return "anthropic" }
func (c *anthropicClient) model() string { return c.mdl }

const anthropicMaxTokens = 4096

func (c *anthropicClient) complete(ctx context.Context, systemPrompt, userPrompt string) (string, int64, error) {
	params := sdk.MessageNewParams{
		Model:     sdk.Model(c.mdl),
		MaxTokens: anthropicMaxTokens,
		System: []sdk.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(userPrompt)),
		},
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", 0, classifyAnthropic(err)
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	if text == "" {
		return "", 0, errors.New("anthropic response contained no text content")
	}

	tokens := msg.Usage.InputTokens + msg.Usage.OutputTokens
	return text, tokens, nil
}

// classifyAnthropic buckets an anthropic-sdk-go error using its exported
// *sdk.Error type, which carries the HTTP status the SDK received.
func classifyAnthropic(err error) *providerError {
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		return classify(apiErr.StatusCode, err)
	}
	return classify(0, err)
}
