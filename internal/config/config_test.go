package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8000, cfg.HTTPPort)
	assert.Equal(t, "data/projects", cfg.DataDir)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, time.Second, cfg.InitialDelay)
	assert.Equal(t, 60*time.Second, cfg.MaxDelay)
	assert.Equal(t, 1000, cfg.RawOutputLimit)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("RAW_OUTPUT_LIMIT", "250")
	t.Setenv("MAX_RETRIES", "5")
	t.Setenv("INITIAL_DELAY", "500ms")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.HTTPPort)
	assert.Equal(t, 250, cfg.RawOutputLimit)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.InitialDelay)
}

func TestLoad_RejectsNonPositiveRawOutputLimit(t *testing.T) {
	t.Setenv("RAW_OUTPUT_LIMIT", "0")
	_, err := Load()
	assert.Error(t, err)
}

func TestAuthMode(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, "none", cfg.AuthMode())

	cfg.APIKey = "secret"
	assert.Equal(t, "api-key", cfg.AuthMode())
}

func TestLLMEnabled(t *testing.T) {
	cfg := &Config{}
	assert.False(t, cfg.LLMEnabled())

	cfg.GeminiAPIKey = "AIzaTest"
	assert.True(t, cfg.LLMEnabled())
}

func TestCORSOriginList(t *testing.T) {
	cfg := &Config{CORSOrigins: "http://a.example, http://b.example ,"}
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.CORSOriginList())
}
