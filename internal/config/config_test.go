package config_test

import (
	"testing"
	"time"

	"github.com/scrypster/folha/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable LoadConfig reads so tests see defaults.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"FOLHA_HOST", "FOLHA_PORT", "FOLHA_RATE_LIMIT", "FOLHA_RATE_BURST",
		"FOLHA_ALLOWED_ORIGINS", "FOLHA_SHUTDOWN_TIMEOUT", "FOLHA_DATA_SOURCE",
		"FOLHA_LLM_PROVIDER", "FOLHA_LLM_API_KEY", "FOLHA_LLM_MODEL",
		"FOLHA_LLM_BASE_URL", "FOLHA_LLM_TIMEOUT", "FOLHA_LLM_TEMPERATURE",
		"FOLHA_LLM_MAX_TOKENS", "OPENAI_API_KEY", "ANTHROPIC_API_KEY",
		"FOLHA_GOOGLE_API_KEY", "GOOGLE_API_KEY", "FOLHA_GOOGLE_SEARCH_ENGINE_ID",
		"GOOGLE_SEARCH_ENGINE_ID", "FOLHA_SEARCH_RESULTS", "FOLHA_SEARCH_RATE",
		"FOLHA_SEARCH_BURST", "FOLHA_MAX_SESSIONS", "FOLHA_MAX_TURNS",
		"FOLHA_SESSION_TIMEOUT", "FOLHA_ACTIVE_WINDOW", "FOLHA_CLEANUP_SCHEDULE",
		"FOLHA_DISABLE_CLEANUP", "FOLHA_LEXICON_PATH",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host, "Default host must be 127.0.0.1 for security")
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr())
	assert.Equal(t, "./data/payroll.csv", cfg.Data.Source)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Empty(t, cfg.LLM.APIKey)
	assert.InDelta(t, 0.1, cfg.LLM.Temperature, 1e-9)
	assert.Equal(t, 100, cfg.Memory.MaxSessions)
	assert.Equal(t, 50, cfg.Memory.MaxTurnsPerSession)
	assert.Equal(t, 24*time.Hour, cfg.Memory.SessionTimeout)
	assert.Equal(t, time.Hour, cfg.Memory.ActiveWindow)
	assert.Equal(t, "@every 1h", cfg.Memory.CleanupSchedule)
	assert.Empty(t, cfg.Server.AllowedOrigins)
	assert.Empty(t, cfg.Lexicon.Path)
}

func TestLoadConfig_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("FOLHA_HOST", "0.0.0.0")
	t.Setenv("FOLHA_PORT", "9000")
	t.Setenv("FOLHA_DATA_SOURCE", "postgres://folha@localhost/folha")
	t.Setenv("FOLHA_LLM_PROVIDER", "Ollama")
	t.Setenv("FOLHA_LLM_TIMEOUT", "45")
	t.Setenv("FOLHA_SESSION_TIMEOUT", "30m")
	t.Setenv("FOLHA_ALLOWED_ORIGINS", "http://a.test, ,http://b.test")
	t.Setenv("FOLHA_DISABLE_CLEANUP", "yes")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Addr())
	assert.Equal(t, "postgres://folha@localhost/folha", cfg.Data.Source)
	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, 45*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 30*time.Minute, cfg.Memory.SessionTimeout)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.AllowedOrigins)
	assert.Empty(t, cfg.Memory.CleanupSchedule)
}

func TestLoadConfig_UnprefixedKeyFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-openai")
	t.Setenv("GOOGLE_API_KEY", "g-key")
	t.Setenv("GOOGLE_SEARCH_ENGINE_ID", "cx-1")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "sk-openai", cfg.LLM.APIKey)
	assert.Equal(t, "g-key", cfg.Search.APIKey)
	assert.Equal(t, "cx-1", cfg.Search.EngineID)

	t.Setenv("FOLHA_LLM_API_KEY", "sk-folha")
	t.Setenv("FOLHA_GOOGLE_API_KEY", "g-folha")
	cfg, err = config.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "sk-folha", cfg.LLM.APIKey, "prefixed variable wins")
	assert.Equal(t, "g-folha", cfg.Search.APIKey)
}

func TestLoadConfig_AnthropicKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("FOLHA_LLM_PROVIDER", "anthropic")
	t.Setenv("OPENAI_API_KEY", "sk-openai")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "sk-ant", cfg.LLM.APIKey)
}

func TestLoadConfig_InvalidValuesFallBackToDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("FOLHA_PORT", "not-a-port")
	t.Setenv("FOLHA_LLM_TEMPERATURE", "warm")
	t.Setenv("FOLHA_ACTIVE_WINDOW", "soon")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.InDelta(t, 0.1, cfg.LLM.Temperature, 1e-9)
	assert.Equal(t, time.Hour, cfg.Memory.ActiveWindow)
}

func TestLoadConfig_RejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"port out of range", "FOLHA_PORT", "70000"},
		{"unknown provider", "FOLHA_LLM_PROVIDER", "gemini"},
		{"temperature", "FOLHA_LLM_TEMPERATURE", "3.5"},
		{"sessions", "FOLHA_MAX_SESSIONS", "0"},
		{"cron", "FOLHA_CLEANUP_SCHEDULE", "every hour"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)
			_, err := config.LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestValidate_JoinsErrors(t *testing.T) {
	cfg := &config.Config{}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid port 0")
	assert.Contains(t, err.Error(), "data source must not be empty")
	assert.Contains(t, err.Error(), "unsupported LLM provider")
}
