package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// General
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	HTTPPort    int    `envconfig:"HTTP_PORT" default:"8000"`

	// Storage
	DataDir string `envconfig:"DATA_DIR" default:"data/projects"`

	// Model provider (optional; the server starts without a provider and
	// serves storage/session routes only)
	GeminiAPIKey string  `envconfig:"GEMINI_API_KEY"`
	ModelName    string  `envconfig:"MODEL_NAME" default:"gemini-2.5-flash-lite"`
	Temperature  float64 `envconfig:"MODEL_TEMPERATURE" default:"0.7"`

	// Model catalog (YAML file listing the selectable models per provider)
	ModelCatalogPath string `envconfig:"MODEL_CATALOG_PATH"`

	// Stage invocation retry policy
	MaxRetries   int           `envconfig:"MAX_RETRIES" default:"3"`
	InitialDelay time.Duration `envconfig:"INITIAL_DELAY" default:"1s"`
	MaxDelay     time.Duration `envconfig:"MAX_DELAY" default:"60s"`

	// Bound on raw model output kept inside error envelopes
	RawOutputLimit int `envconfig:"RAW_OUTPUT_LIMIT" default:"1000"`

	// HTTP API
	APIKey         string `envconfig:"API_KEY"`
	RateLimitRPS   int    `envconfig:"RATE_LIMIT_RPS" default:"100"`
	RateLimitBurst int    `envconfig:"RATE_LIMIT_BURST" default:"200"`
	CORSOrigins    string `envconfig:"CORS_ORIGINS" default:"http://localhost:5173,http://localhost:5174"`
}

// LLMEnabled returns true if a provider API key is configured.
func (c *Config) LLMEnabled() bool {
	return c.GeminiAPIKey != ""
}

// AuthMode returns the API auth mode derived from configuration.
// An empty API_KEY disables auth (development convenience).
func (c *Config) AuthMode() string {
	if c.APIKey == "" {
		return "none"
	}
	return "api-key"
}

// CORSOriginList returns the parsed list of allowed origins.
func (c *Config) CORSOriginList() []string {
	parts := strings.Split(c.CORSOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, o := range parts {
		o = strings.TrimSpace(o)
		if o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if cfg.RawOutputLimit <= 0 {
		return nil, fmt.Errorf("RAW_OUTPUT_LIMIT must be positive, got %d", cfg.RawOutputLimit)
	}
	return &cfg, nil
}
