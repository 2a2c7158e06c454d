package clients

import (
	"context"
	"fmt"

	"github.com/aktagon/llmkit/anthropic"
	"github.com/aktagon/llmkit/anthropic/types"
)

const generationSystemPrompt = "You are a content production assistant for a marketing team. " +
	"You deliver finished, publish-ready copy and follow format rules exactly."

// GenerationClient calls the content generation service.
type GenerationClient struct {
	apiKey    string
	model     string
	maxTokens int
}

func NewGenerationClient(apiKey, model string, maxTokens int) *GenerationClient {
	return &GenerationClient{
		apiKey:    apiKey,
		model:     model,
		maxTokens: maxTokens,
	}
}

func (c *GenerationClient) Generate(ctx context.Context, prompt string, formatHints string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("content generation is not configured")
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	systemPrompt := generationSystemPrompt
	if formatHints != "" {
		systemPrompt = systemPrompt + " " + formatHints
	}

	settings := types.RequestSettings{
		Model:     c.model,
		MaxTokens: c.maxTokens,
	}

	response, err := anthropic.PromptWithSettings(systemPrompt, prompt, "", c.apiKey, settings)
	if err != nil {
		return "", fmt.Errorf("content generation failed: %w", err)
	}

	if len(response.Content) == 0 {
		return "", fmt.Errorf("no content in generation response")
	}

	return response.Content[0].Text, nil
}
