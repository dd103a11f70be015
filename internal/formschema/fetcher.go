// File: internal/formschema/fetcher.go
// Description: Resolves a form's public field definitions via the form
// service's read-only API. Fetch failures degrade to an empty field list so a
// broken schema endpoint turns the run into a no-op instead of an abort.
package formschema

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/autoform/internal/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// FieldType is the form service's type tag, carried verbatim.
type FieldType string

const (
	TypeShortText      FieldType = "short_text"
	TypeLongText       FieldType = "long_text"
	TypeText           FieldType = "text"
	TypeEmail          FieldType = "email"
	TypeNumber         FieldType = "number"
	TypeWebsite        FieldType = "website"
	TypeMultipleChoice FieldType = "multiple_choice"
	TypePictureChoice  FieldType = "picture_choice"
	TypeCheckboxes     FieldType = "checkboxes"
	TypeDropdown       FieldType = "dropdown"
	TypeFileUpload     FieldType = "file_upload"
)

// Field is one question definition. Order matches the form's declared field
// order and determines traversal order in the driver.
type Field struct {
	Ref     string    `json:"ref"`
	Title   string    `json:"title"`
	Type    FieldType `json:"type"`
	Options []string  `json:"options,omitempty"`
}

// HasChoices reports whether the type carries an ordered option list.
func (t FieldType) HasChoices() bool {
	return t == TypeMultipleChoice || t == TypePictureChoice
}

// formPayload mirrors the slice of the form service response we care about.
type formPayload struct {
	Fields []struct {
		Ref        string `json:"ref"`
		Title      string `json:"title"`
		Type       string `json:"type"`
		Properties struct {
			Choices []struct {
				Label string `json:"label"`
			} `json:"choices"`
		} `json:"properties"`
	} `json:"fields"`
}

// Fetcher retrieves field definitions from the form service's public API.
type Fetcher struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewFetcher builds a Fetcher for the configured form API endpoint.
func NewFetcher(cfg config.FormConfig, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		baseURL:    strings.TrimSuffix(cfg.APIBaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.FetchTimeout},
		logger:     logger.Named("formschema"),
	}
}

// Fields returns the form's ordered field list. On any request or parsing
// failure it logs the error and returns an empty slice; the caller proceeds
// with zero fields.
func (f *Fetcher) Fields(ctx context.Context, formID string) []Field {
	fields, err := f.fetch(ctx, formID)
	if err != nil {
		f.logger.Error("Failed to retrieve form fields, proceeding with none",
			zap.String("form_id", formID),
			zap.Error(err),
		)
		return []Field{}
	}

	f.logger.Info("Discovered form fields",
		zap.String("form_id", formID),
		zap.Int("fields", len(fields)),
	)
	return fields
}

func (f *Fetcher) fetch(ctx context.Context, formID string) ([]Field, error) {
	url := fmt.Sprintf("%s/forms/%s", f.baseURL, formID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create form request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("form API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read form API response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("form API returned status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload formPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode form definition: %w", err)
	}

	fields := make([]Field, 0, len(payload.Fields))
	for _, raw := range payload.Fields {
		field := Field{
			Ref:   raw.Ref,
			Title: raw.Title,
			Type:  FieldType(raw.Type),
		}
		// Choice labels only apply to multiple-choice-like types.
		if field.Type.HasChoices() {
			for _, c := range raw.Properties.Choices {
				field.Options = append(field.Options, c.Label)
			}
		}
		fields = append(fields, field)
	}
	return fields, nil
}
