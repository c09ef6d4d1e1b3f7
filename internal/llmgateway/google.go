package llmgateway

import (
	"context"
	"errors"

	"google.golang.org/genai"

	"brandintel/internal/config"
)

// googleClient wraps the real google.golang.org/genai SDK's content
// generation call.
type googleClient struct {
	client *genai.Client
	mdl    string
}

func newGoogleClient(cfg config.GoogleLLMConfig) (*googleClient, error) {
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, err
	}
	return &googleClient{client: client, mdl: cfg.Model}, nil
}

func (c *googleClient) name() string  { return "google" }
func (c *googleClient) model() string { return c.mdl }

func (c *googleClient) complete(ctx context.Context, systemPrompt, userPrompt string) (string, int64, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(userPrompt, genai.RoleUser),
	}

	temperature := float32(0.7)
	result, err := c.client.Models.GenerateContent(ctx, c.mdl, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		Temperature:       &temperature,
	})
	if err != nil {
		return "", 0, classify(0, err)
	}

	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return "", 0, errors.New("google generateContent returned no candidates")
	}

	var text string
	for _, part := range result.Candidates[0].Content.Parts {
		text += part.Text
	}
	if text == "" {
		return "", 0, errors.New("google generateContent returned no text")
	}

	var tokens int64
	if result.UsageMetadata != nil {
		tokens = int64(result.UsageMetadata.TotalTokenCount)
	}

	return text, tokens, nil
}
