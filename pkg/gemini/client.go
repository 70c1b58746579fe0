// Package gemini wraps google.golang.org/genai behind the narrow completion
// surface the content generator needs.
package gemini

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// Client defines the Gemini operations used by the generator.
type Client interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

type genaiClient struct {
	client    *genai.Client
	model     string
	maxTokens int64
}

// NewClient creates a new Gemini client backed by the GenAI SDK.
func NewClient(ctx context.Context, apiKey, model string, maxTokens int64) (Client, error) {
	if apiKey == "" {
		return nil, eris.New("gemini: api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, eris.Wrap(err, "gemini: create client")
	}

	return &genaiClient{
		client:    client,
		model:     model,
		maxTokens: maxTokens,
	}, nil
}

func (c *genaiClient) Complete(ctx context.Context, system, prompt string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(c.maxTokens),
	}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}

	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		return "", eris.Wrap(err, "gemini: generate content")
	}

	if resp.UsageMetadata != nil {
		zap.L().Debug("gemini: completion",
			zap.String("model", c.model),
			zap.Int32("input_tokens", resp.UsageMetadata.PromptTokenCount),
			zap.Int32("output_tokens", resp.UsageMetadata.CandidatesTokenCount),
		)
	}

	text := resp.Text()
	if text == "" {
		return "", eris.New("gemini: empty completion")
	}
	return text, nil
}
