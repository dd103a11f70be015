// File: internal/synthesis/openai_client.go
package synthesis

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/autoform/internal/config"
)

// OpenAIClient implements ChatClient against an OpenAI-compatible
// chat-completions endpoint.
type OpenAIClient struct {
	apiKey      string
	endpoint    string
	model       string
	temperature float64
	httpClient  *http.Client
	logger      *zap.Logger
}

// -- Chat Completions Request/Response Structures (internal to this file) --

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequestPayload struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatResponsePayload struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// NewOpenAIClient initializes the client. A zero RequestTimeout leaves the
// completion call unbounded.
func NewOpenAIClient(cfg config.LLMConfig, logger *zap.Logger) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("completion service API key is required")
	}

	endpoint := strings.TrimSuffix(cfg.Endpoint, "/")
	if endpoint == "" {
		endpoint = "https://api.openai.com/v1"
	}

	return &OpenAIClient{
		apiKey:      cfg.APIKey,
		endpoint:    endpoint + "/chat/completions",
		model:       cfg.Model,
		temperature: cfg.Temperature,
		httpClient:  &http.Client{Timeout: cfg.RequestTimeout},
		logger:      logger.Named("llm_client.openai"),
	}, nil
}

// Complete sends the prompt as a single user message and returns the first
// choice's content. There is no retry; a failed call fails the row.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	payload := chatRequestPayload{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: c.temperature,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal completion payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read completion response: %w", err)
	}

	var parsed chatResponsePayload
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode completion response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if parsed.Error != nil {
			return "", fmt.Errorf("completion service returned %d (%s): %s",
				resp.StatusCode, parsed.Error.Type, parsed.Error.Message)
		}
		return "", fmt.Errorf("completion service returned status %d", resp.StatusCode)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("completion service returned no choices")
	}

	c.logger.Info("Completion finished",
		zap.String("model", c.model),
		zap.Duration("duration", time.Since(startTime)),
		zap.String("finish_reason", parsed.Choices[0].FinishReason),
	)
	return parsed.Choices[0].Message.Content, nil
}
