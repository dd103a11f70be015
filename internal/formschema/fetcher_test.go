package formschema

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xkilldash9x/autoform/internal/config"
)

const formDefinition = `{
	"id": "qedCsWYt",
	"fields": [
		{"ref": "ref-email", "title": "Email", "type": "short_text"},
		{
			"ref": "ref-interest",
			"title": "Interest",
			"type": "multiple_choice",
			"properties": {"choices": [{"label": "networking"}, {"label": "storage"}]}
		},
		{
			"ref": "ref-team",
			"title": "Team size",
			"type": "dropdown",
			"properties": {"choices": [{"label": "1-10"}, {"label": "11-50"}]}
		},
		{"ref": "ref-deck", "title": "Pitch deck", "type": "file_upload"}
	]
}`

func setupFetcher(t *testing.T, handler http.HandlerFunc) (*Fetcher, *observer.ObservedLogs) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	core, logs := observer.New(zap.InfoLevel)
	cfg := config.FormConfig{APIBaseURL: server.URL, FetchTimeout: 5 * time.Second}
	return NewFetcher(cfg, zap.New(core)), logs
}

func TestFieldsOrderAndOptions(t *testing.T) {
	fetcher, _ := setupFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/forms/qedCsWYt", r.URL.Path)
		_, _ = w.Write([]byte(formDefinition))
	})

	fields := fetcher.Fields(context.Background(), "qedCsWYt")
	require.Len(t, fields, 4)

	// Declared order preserved.
	assert.Equal(t, "Email", fields[0].Title)
	assert.Equal(t, TypeShortText, fields[0].Type)
	assert.Empty(t, fields[0].Options)

	assert.Equal(t, "ref-interest", fields[1].Ref)
	assert.Equal(t, TypeMultipleChoice, fields[1].Type)
	assert.Equal(t, []string{"networking", "storage"}, fields[1].Options)

	// Dropdown choices are not multiple-choice-like; labels stay empty.
	assert.Equal(t, TypeDropdown, fields[2].Type)
	assert.Empty(t, fields[2].Options)

	assert.Equal(t, TypeFileUpload, fields[3].Type)
}

func TestFieldsUnknownTypeCarriedVerbatim(t *testing.T) {
	fetcher, _ := setupFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"fields": [{"ref": "r1", "title": "Consent", "type": "legal"}]}`))
	})

	fields := fetcher.Fields(context.Background(), "f1")
	require.Len(t, fields, 1)
	assert.Equal(t, FieldType("legal"), fields[0].Type)
	assert.False(t, fields[0].Type.HasChoices())
}

func TestFieldsServerErrorDegradesToEmpty(t *testing.T) {
	fetcher, logs := setupFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	fields := fetcher.Fields(context.Background(), "missing")
	require.NotNil(t, fields)
	assert.Empty(t, fields)

	// The failure is logged, not propagated.
	entries := logs.FilterMessageSnippet("Failed to retrieve form fields").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zap.ErrorLevel, entries[0].Level)
}

func TestFieldsMalformedJSONDegradesToEmpty(t *testing.T) {
	fetcher, logs := setupFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"fields": [`))
	})

	fields := fetcher.Fields(context.Background(), "f1")
	assert.Empty(t, fields)
	assert.Equal(t, 1, len(logs.FilterMessageSnippet("Failed to retrieve form fields").All()))
}

func TestFieldsConnectionErrorDegradesToEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	core, logs := observer.New(zap.InfoLevel)
	cfg := config.FormConfig{APIBaseURL: server.URL, FetchTimeout: time.Second}
	fetcher := NewFetcher(cfg, zap.New(core))

	fields := fetcher.Fields(context.Background(), "f1")
	assert.Empty(t, fields)
	assert.Equal(t, 1, len(logs.FilterMessageSnippet("Failed to retrieve form fields").All()))
}
