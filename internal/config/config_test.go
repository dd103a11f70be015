package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "console", cfg.Logger.Format)
	assert.Equal(t, SourceBackendREST, cfg.Source.Backend)
	assert.Equal(t, "form_submissions", cfg.Source.Table)
	assert.Equal(t, "https://api.typeform.com", cfg.Form.APIBaseURL)
	assert.Equal(t, 15*time.Second, cfg.Form.FetchTimeout)
	assert.Equal(t, ProviderOpenAI, cfg.LLM.Provider)
	// The completion call is deliberately unbounded unless configured.
	assert.Zero(t, cfg.LLM.RequestTimeout)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 25*time.Second, cfg.Browser.ActionTimeout)
	assert.Equal(t, "Thank you", cfg.Driver.AckText)
}

func TestFormConfigURL(t *testing.T) {
	f := FormConfig{ID: "qedCsWYt", URLTemplate: "https://form.typeform.com/to/%s"}
	assert.Equal(t, "https://form.typeform.com/to/qedCsWYt", f.URL())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
form:
  id: abc123
source:
  backend: rest
  base_url: https://example.supabase.co
  api_key: table-key
llm:
  model: gpt-4o-mini
  api_key: llm-key
browser:
  headless: false
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "abc123", cfg.Form.ID)
	assert.Equal(t, "https://example.supabase.co", cfg.Source.BaseURL)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.False(t, cfg.Browser.Headless)
	// Untouched sections keep their defaults.
	assert.Equal(t, "form_submissions", cfg.Source.Table)
	assert.Equal(t, 20*time.Second, cfg.Driver.AckTimeout)

	require.NoError(t, cfg.Validate())
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("AUTOFORM_SOURCE_API_KEY", "env-key")
	t.Setenv("AUTOFORM_LLM_API_KEY", "env-llm-key")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.Source.APIKey)
	assert.Equal(t, "env-llm-key", cfg.LLM.APIKey)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := NewDefaultConfig()
		cfg.Form.ID = "abc123"
		cfg.Source.BaseURL = "https://example.supabase.co"
		cfg.Source.APIKey = "k"
		cfg.LLM.APIKey = "k"
		return cfg
	}

	require.NoError(t, valid().Validate())

	t.Run("missing form id", func(t *testing.T) {
		cfg := valid()
		cfg.Form.ID = ""
		assert.ErrorContains(t, cfg.Validate(), "form.id")
	})

	t.Run("rest backend needs base url", func(t *testing.T) {
		cfg := valid()
		cfg.Source.BaseURL = ""
		assert.ErrorContains(t, cfg.Validate(), "source.base_url")
	})

	t.Run("postgres backend needs url", func(t *testing.T) {
		cfg := valid()
		cfg.Source.Backend = SourceBackendPostgres
		assert.ErrorContains(t, cfg.Validate(), "source.postgres_url")
	})

	t.Run("unknown backend", func(t *testing.T) {
		cfg := valid()
		cfg.Source.Backend = "redis"
		assert.ErrorContains(t, cfg.Validate(), "unknown source backend")
	})

	t.Run("unknown provider", func(t *testing.T) {
		cfg := valid()
		cfg.LLM.Provider = "anthropic"
		assert.ErrorContains(t, cfg.Validate(), "unknown llm provider")
	})

	t.Run("inverted pause bounds", func(t *testing.T) {
		cfg := valid()
		cfg.Driver.PauseMin = 2 * time.Second
		cfg.Driver.PauseMax = time.Second
		assert.ErrorContains(t, cfg.Validate(), "pause_max")
	})
}
