// File: internal/synthesis/gemini_client.go
package synthesis

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/xkilldash9x/autoform/internal/config"
)

// GeminiClient implements ChatClient on top of the Google GenAI SDK.
type GeminiClient struct {
	client      *genai.Client
	model       string
	temperature float64
	logger      *zap.Logger
}

// NewGeminiClient initializes the SDK client.
func NewGeminiClient(ctx context.Context, cfg config.LLMConfig, logger *zap.Logger) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("completion service API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}

	return &GeminiClient{
		client:      client,
		model:       model,
		temperature: cfg.Temperature,
		logger:      logger.Named("llm_client.gemini"),
	}, nil
}

// Complete sends the prompt as a single user turn and returns the first
// candidate's text.
func (c *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	temperature := float32(c.temperature)
	result, err := c.client.Models.GenerateContent(ctx,
		c.model,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
		&genai.GenerateContentConfig{
			Temperature:      &temperature,
			ResponseMIMEType: "application/json",
		},
	)
	if err != nil {
		return "", fmt.Errorf("genai generation failed: %w", err)
	}

	text := result.Text()
	if text == "" {
		return "", fmt.Errorf("genai returned no text candidates")
	}

	c.logger.Info("Completion finished", zap.String("model", c.model))
	return text, nil
}

// NewClient selects a completion provider from configuration.
func NewClient(ctx context.Context, cfg config.LLMConfig, logger *zap.Logger) (ChatClient, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return NewOpenAIClient(cfg, logger)
	case config.ProviderGemini:
		return NewGeminiClient(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}
