// File: internal/rowsource/rest.go
package rowsource

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

// RESTSource reads all rows of a table through the store's PostgREST endpoint.
type RESTSource struct {
	baseURL    string
	apiKey     string
	table      string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewRESTSource builds a source for the hosted table store's HTTP API.
func NewRESTSource(cfg config.SourceConfig, logger *zap.Logger) *RESTSource {
	return &RESTSource{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		table:      cfg.Table,
		httpClient: &http.Client{},
		logger:     logger.Named("rowsource.rest"),
	}
}

// Fetch selects every row of the table. Any transport, status, or decode
// failure is returned as an error; the caller treats it as fatal.
func (s *RESTSource) Fetch(ctx context.Context) ([]Row, error) {
	url := fmt.Sprintf("%s/rest/v1/%s?select=*", s.baseURL, s.table)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create table request: %w", err)
	}
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query table %q: %w", s.table, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read table response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("table store returned status %d for %q: %s",
			resp.StatusCode, s.table, strings.TrimSpace(string(body)))
	}

	var rows []Row
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode rows for table %q: %w", s.table, err)
	}

	s.logger.Info("Fetched rows from table store",
		zap.String("table", s.table),
		zap.Int("rows", len(rows)),
	)
	return rows, nil
}
