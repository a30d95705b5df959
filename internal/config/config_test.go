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
	assert.Equal(t, 3, cfg.RateLimit.Plan.Max)
	assert.Equal(t, 5, cfg.RateLimit.Content.Max)
	assert.Equal(t, 10, cfg.RateLimit.Evaluate.Max)
	assert.Equal(t, time.Minute, cfg.RateLimit.Content.Window)
	assert.Equal(t, "dev", cfg.Log.Mode)
	assert.Equal(t, "pathforge", cfg.Auth.Issuer)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PATHFORGE_DB", "/tmp/pf.db")
	t.Setenv("PATHFORGE_REDIS_ADDR", "localhost:6379")
	t.Setenv("PATHFORGE_RATE_CONTENT_MAX", "2")
	t.Setenv("PATHFORGE_RATE_CONTENT_WINDOW", "30s")
	t.Setenv("PATHFORGE_LOG_MODE", "prod")
	t.Setenv("PATHFORGE_AUTH_TOKEN_TTL", "15m")
	t.Setenv("PATHFORGE_LLM_PROVIDER", "mock")
	t.Setenv("GEMINI_API_KEY", "g-key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/pf.db", cfg.DB)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.RateLimit.Content.Max)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Content.Window)
	assert.Equal(t, 3, cfg.RateLimit.Plan.Max, "untouched limits keep defaults")
	assert.Equal(t, "prod", cfg.Log.Mode)
	assert.Equal(t, 15*time.Minute, cfg.Auth.TokenTTL)
	assert.Equal(t, "mock", cfg.LLM.Provider)
	assert.Equal(t, "g-key", cfg.LLM.Gemini.APIKey)
}

func TestLoad_BadValue(t *testing.T) {
	t.Setenv("PATHFORGE_RATE_PLAN_MAX", "lots")
	_, err := Load()
	assert.Error(t, err)
}
