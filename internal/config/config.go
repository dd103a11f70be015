// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration. Every component receives
// its own section at construction time; nothing reads global state after boot.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Source  SourceConfig  `mapstructure:"source" yaml:"source"`
	Form    FormConfig    `mapstructure:"form" yaml:"form"`
	LLM     LLMConfig     `mapstructure:"llm" yaml:"llm"`
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
	Driver  DriverConfig  `mapstructure:"driver" yaml:"driver"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// Source backends.
const (
	SourceBackendREST     = "rest"
	SourceBackendPostgres = "postgres"
)

// SourceConfig describes where submission rows come from. The REST backend
// talks to the table store's PostgREST endpoint; the postgres backend connects
// to the underlying database directly.
type SourceConfig struct {
	Backend string `mapstructure:"backend" yaml:"backend"`
	// REST backend.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	APIKey  string `mapstructure:"api_key" yaml:"api_key"`
	// Postgres backend.
	PostgresURL string `mapstructure:"postgres_url" yaml:"postgres_url"`
	// Shared.
	Table string `mapstructure:"table" yaml:"table"`
}

// FormConfig identifies the target form and the service endpoints used to
// resolve its schema and render it.
type FormConfig struct {
	ID           string        `mapstructure:"id" yaml:"id"`
	APIBaseURL   string        `mapstructure:"api_base_url" yaml:"api_base_url"`
	URLTemplate  string        `mapstructure:"url_template" yaml:"url_template"`
	FetchTimeout time.Duration `mapstructure:"fetch_timeout" yaml:"fetch_timeout"`
}

// URL renders the public form URL for the configured form id.
func (f FormConfig) URL() string {
	return fmt.Sprintf(f.URLTemplate, f.ID)
}

// LLM providers.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// LLMConfig configures the completion service used to synthesize answers.
// RequestTimeout of zero means the call is not bounded.
type LLMConfig struct {
	Provider       string        `mapstructure:"provider" yaml:"provider"`
	Model          string        `mapstructure:"model" yaml:"model"`
	APIKey         string        `mapstructure:"api_key" yaml:"api_key"`
	Endpoint       string        `mapstructure:"endpoint" yaml:"endpoint"`
	Temperature    float64       `mapstructure:"temperature" yaml:"temperature"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
}

// BrowserConfig controls the chrome process the driver launches per row.
type BrowserConfig struct {
	Headless      bool          `mapstructure:"headless" yaml:"headless"`
	Args          []string      `mapstructure:"args" yaml:"args"`
	ActionTimeout time.Duration `mapstructure:"action_timeout" yaml:"action_timeout"`
}

// DriverConfig tunes the field-filling behavior.
type DriverConfig struct {
	PlaceholderFile string        `mapstructure:"placeholder_file" yaml:"placeholder_file"`
	SettleWait      time.Duration `mapstructure:"settle_wait" yaml:"settle_wait"`
	PauseMin        time.Duration `mapstructure:"pause_min" yaml:"pause_min"`
	PauseMax        time.Duration `mapstructure:"pause_max" yaml:"pause_max"`
	UploadWait      time.Duration `mapstructure:"upload_wait" yaml:"upload_wait"`
	AckText         string        `mapstructure:"ack_text" yaml:"ack_text"`
	AckTimeout      time.Duration `mapstructure:"ack_timeout" yaml:"ack_timeout"`
}

// NewDefaultConfig returns a Config populated with sane defaults. Values from
// the config file and AUTOFORM_* environment variables are layered on top.
func NewDefaultConfig() *Config {
	return &Config{
		Logger: LoggerConfig{
			Level:       "info",
			Format:      "console",
			ServiceName: "autoform",
			MaxSize:     50,
			MaxBackups:  3,
			MaxAge:      14,
			Colors: ColorConfig{
				Debug: "cyan",
				Info:  "green",
				Warn:  "yellow",
				Error: "red",
				Fatal: "magenta",
			},
		},
		Source: SourceConfig{
			Backend: SourceBackendREST,
			Table:   "form_submissions",
		},
		Form: FormConfig{
			APIBaseURL:   "https://api.typeform.com",
			URLTemplate:  "https://form.typeform.com/to/%s",
			FetchTimeout: 15 * time.Second,
		},
		LLM: LLMConfig{
			Provider:    ProviderOpenAI,
			Model:       "gpt-4o",
			Endpoint:    "https://api.openai.com/v1",
			Temperature: 0.7,
		},
		Browser: BrowserConfig{
			Headless:      true,
			ActionTimeout: 25 * time.Second,
		},
		Driver: DriverConfig{
			PlaceholderFile: "placeholder_deck.pdf",
			SettleWait:      500 * time.Millisecond,
			PauseMin:        600 * time.Millisecond,
			PauseMax:        1400 * time.Millisecond,
			UploadWait:      6 * time.Second,
			AckText:         "Thank you",
			AckTimeout:      20 * time.Second,
		},
	}
}

// Load reads the config file (optional) and environment into a Config.
// path may be empty, in which case ./config.yaml is tried.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("AUTOFORM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Credentials are env-only by convention; bind them explicitly so they are
	// visible to Unmarshal even without a config file entry.
	for _, key := range []string{"source.api_key", "source.base_url", "source.postgres_url", "llm.api_key"} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file; defaults and env vars carry the run.
	}

	cfg := NewDefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// Validate checks the settings that every run needs before any network call.
func (c *Config) Validate() error {
	if c.Form.ID == "" {
		return fmt.Errorf("form.id is required")
	}
	switch c.Source.Backend {
	case SourceBackendREST:
		if c.Source.BaseURL == "" {
			return fmt.Errorf("source.base_url is required for the rest backend")
		}
		if c.Source.APIKey == "" {
			return fmt.Errorf("source.api_key is required for the rest backend")
		}
	case SourceBackendPostgres:
		if c.Source.PostgresURL == "" {
			return fmt.Errorf("source.postgres_url is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown source backend %q", c.Source.Backend)
	}
	if c.Source.Table == "" {
		return fmt.Errorf("source.table is required")
	}
	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
	}
	if c.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key is required")
	}
	if c.Driver.PauseMax < c.Driver.PauseMin {
		return fmt.Errorf("driver.pause_max must be >= driver.pause_min")
	}
	return nil
}
