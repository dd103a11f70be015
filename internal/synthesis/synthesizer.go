// File: internal/synthesis/synthesizer.go
// Description: Turns one source row plus the form's field list into an answer
// map by prompting a completion service for a single JSON object keyed by
// field title.
package synthesis

import (
	"context"
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/autoform/internal/formschema"
	"github.com/xkilldash9x/autoform/internal/rowsource"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// AnswerMap maps field title (or field ref) to the synthesized answer value.
// Produced once per row, consumed once by the driver.
type AnswerMap map[string]any

// ChatClient issues a single-message chat completion and returns the reply's
// message content.
type ChatClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Synthesizer builds the instruction prompt and parses the model's reply.
type Synthesizer struct {
	client ChatClient
	logger *zap.Logger
}

// New creates a Synthesizer over the given completion client.
func New(client ChatClient, logger *zap.Logger) *Synthesizer {
	return &Synthesizer{
		client: client,
		logger: logger.Named("synthesis"),
	}
}

// promptTemplate carries the fixed formatting rules. The rules are enforced by
// the instruction, not by code: the driver consumes whatever comes back.
// Note the deliberate asymmetry: multiple-choice indexes are zero-based while
// the dropdown index is one-based.
const promptTemplate = `You are a smart assistant filling a web form using a database row.
Output ONLY a JSON object, no extra text.
Keys = form question titles in order.

### RULES ###
1. For text, number, email, url, etc -> output a realistic string or number.
2. For multiple_choice:
    - Use the data from the row to select options.
    - Output the indexes corresponding to selected choices, starting at 0, as comma-separated values (example: 0,2).
3. For dropdown:
    - Output the single most suitable option index (1-based).
4. If a row column is missing or empty:
    - Generate a relevant, realistic answer based on other available data.
    - Answers must be contextually consistent with existing row values.
5. Never output placeholders like "sa", "Tell us", "How about no?".

### FORM FIELDS (in order) ###
%s

### ROW ###
%s

Return ONLY a JSON object in this format:
{
  "Question 1 title": "value",
  "Question 2 title": "value"
}`

// Synthesize asks the completion service for one answer per field. A reply
// that is not a JSON object is an error; the row is abandoned, never retried.
func (s *Synthesizer) Synthesize(ctx context.Context, fields []formschema.Field, row rowsource.Row) (AnswerMap, error) {
	prompt, err := s.buildPrompt(fields, row)
	if err != nil {
		return nil, err
	}

	content, err := s.client.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("completion request failed: %w", err)
	}

	var answers AnswerMap
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &answers); err != nil {
		return nil, fmt.Errorf("completion reply is not a JSON object: %w", err)
	}

	s.logger.Debug("Synthesized answers",
		zap.Int("fields", len(fields)),
		zap.Int("answers", len(answers)),
	)
	return answers, nil
}

func (s *Synthesizer) buildPrompt(fields []formschema.Field, row rowsource.Row) (string, error) {
	fieldsJSON, err := json.MarshalIndent(fields, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode fields for prompt: %w", err)
	}
	rowJSON, err := json.MarshalIndent(row, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode row for prompt: %w", err)
	}
	return fmt.Sprintf(promptTemplate, fieldsJSON, rowJSON), nil
}

// stripCodeFence unwraps a reply the model wrapped in a markdown code block.
func stripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
