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
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "innovaradar", cfg.Database.Database)
	assert.Equal(t, "", cfg.NATS.URL, "event publishing is off by default")
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, 5, cfg.Matching.TrendLimit)
	assert.Equal(t, "@every 2h", cfg.Ingest.Schedule)
	assert.Equal(t, "@hourly", cfg.Maintenance.Schedule)
	assert.Equal(t, 3, cfg.Enrich.MaxResults)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("MATCHING_TREND_LIMIT", "12")
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("INGEST_FETCH_TIMEOUT", "30s")
	t.Setenv("SERVER_CORS_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 12, cfg.Matching.TrendLimit)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, 30*time.Second, cfg.Ingest.FetchTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CorsOrigins)
}

func TestLoad_RejectsTrendLimitOutOfRange(t *testing.T) {
	t.Setenv("MATCHING_TREND_LIMIT", "0")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("MATCHING_TREND_LIMIT", "21")
	_, err = Load()
	require.Error(t, err)
}

func TestLoad_RejectsUnknownProvider(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "mistral")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported llm provider")
}
