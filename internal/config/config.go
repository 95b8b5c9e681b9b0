// Package config provides configuration management for folha.
// It loads settings from environment variables with the FOLHA_ prefix
// and provides sensible defaults for all configuration options.
//
// Provider credentials also honour their conventional unprefixed names
// (OPENAI_API_KEY, ANTHROPIC_API_KEY, GOOGLE_API_KEY,
// GOOGLE_SEARCH_ENGINE_ID) when the prefixed variable is unset.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Config holds all configuration settings for the folha application.
type Config struct {
	Server  ServerConfig
	Data    DataConfig
	LLM     LLMConfig
	Search  SearchConfig
	Memory  MemoryConfig
	Lexicon LexiconConfig
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int           // Server port (default: 8080)
	Host            string        // Server host (default: 127.0.0.1)
	RateLimit       int           // Requests per minute per client (default: 60)
	RateBurst       int           // Burst size for the rate limiter (default: 10)
	AllowedOrigins  []string      // CORS origins; empty allows any (default: empty)
	ShutdownTimeout time.Duration // Graceful shutdown deadline (default: 10s)
}

// DataConfig contains the payroll dataset source.
type DataConfig struct {
	// Source is a CSV path, a SQLite file (.db, .sqlite) or a postgres:// DSN
	// (default: ./data/payroll.csv).
	Source string
}

// LLMConfig contains text generation provider configuration.
type LLMConfig struct {
	Provider    string        // openai, anthropic, ollama or none (default: openai)
	APIKey      string        // Provider API key
	Model       string        // Model name; empty uses the provider default
	BaseURL     string        // Provider endpoint; empty uses the provider default
	Timeout     time.Duration // Per-request timeout (default: 60s)
	Temperature float64       // Sampling temperature (default: 0.1)
	MaxTokens   int           // Completion cap; 0 uses the provider default
}

// SearchConfig contains web search configuration.
type SearchConfig struct {
	APIKey        string  // Google Custom Search API key
	EngineID      string  // Google Custom Search engine id (cx)
	NumResults    int     // Results per search (default: 5)
	RatePerSecond float64 // Outbound search rate (default: 1)
	Burst         int     // Outbound search burst (default: 2)
}

// MemoryConfig contains conversation memory limits.
type MemoryConfig struct {
	MaxSessions        int           // Live sessions kept (default: 100)
	MaxTurnsPerSession int           // Turns kept per session (default: 50)
	SessionTimeout     time.Duration // Inactivity before a session expires (default: 24h)
	ActiveWindow       time.Duration // Activity window counted as active (default: 1h)
	CleanupSchedule    string        // Cron spec for session cleanup; empty disables (default: @every 1h)
}

// LexiconConfig points at an optional keyword table override.
type LexiconConfig struct {
	Path string // YAML lexicon file; empty uses the built-in tables
}

// LoadConfig loads configuration from environment variables.
// It returns a Config struct populated with values from environment variables
// or default values if the environment variables are not set.
func LoadConfig() (*Config, error) {
	provider := strings.ToLower(getEnv("FOLHA_LLM_PROVIDER", "openai"))

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnvInt("FOLHA_PORT", 8080),
			Host:            getEnv("FOLHA_HOST", "127.0.0.1"),
			RateLimit:       getEnvInt("FOLHA_RATE_LIMIT", 60),
			RateBurst:       getEnvInt("FOLHA_RATE_BURST", 10),
			AllowedOrigins:  getEnvList("FOLHA_ALLOWED_ORIGINS"),
			ShutdownTimeout: getEnvDuration("FOLHA_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Data: DataConfig{
			Source: getEnv("FOLHA_DATA_SOURCE", "./data/payroll.csv"),
		},
		LLM: LLMConfig{
			Provider:    provider,
			APIKey:      getEnv("FOLHA_LLM_API_KEY", providerKey(provider)),
			Model:       getEnv("FOLHA_LLM_MODEL", ""),
			BaseURL:     getEnv("FOLHA_LLM_BASE_URL", ""),
			Timeout:     getEnvDuration("FOLHA_LLM_TIMEOUT", 60*time.Second),
			Temperature: getEnvFloat("FOLHA_LLM_TEMPERATURE", 0.1),
			MaxTokens:   getEnvInt("FOLHA_LLM_MAX_TOKENS", 0),
		},
		Search: SearchConfig{
			APIKey:        getEnv("FOLHA_GOOGLE_API_KEY", os.Getenv("GOOGLE_API_KEY")),
			EngineID:      getEnv("FOLHA_GOOGLE_SEARCH_ENGINE_ID", os.Getenv("GOOGLE_SEARCH_ENGINE_ID")),
			NumResults:    getEnvInt("FOLHA_SEARCH_RESULTS", 5),
			RatePerSecond: getEnvFloat("FOLHA_SEARCH_RATE", 1),
			Burst:         getEnvInt("FOLHA_SEARCH_BURST", 2),
		},
		Memory: MemoryConfig{
			MaxSessions:        getEnvInt("FOLHA_MAX_SESSIONS", 100),
			MaxTurnsPerSession: getEnvInt("FOLHA_MAX_TURNS", 50),
			SessionTimeout:     getEnvDuration("FOLHA_SESSION_TIMEOUT", 24*time.Hour),
			ActiveWindow:       getEnvDuration("FOLHA_ACTIVE_WINDOW", time.Hour),
			CleanupSchedule:    getEnv("FOLHA_CLEANUP_SCHEDULE", "@every 1h"),
		},
		Lexicon: LexiconConfig{
			Path: getEnv("FOLHA_LEXICON_PATH", ""),
		},
	}

	if getEnvBool("FOLHA_DISABLE_CLEANUP", false) {
		cfg.Memory.CleanupSchedule = ""
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %d", c.Server.Port))
	}
	if c.Server.RateLimit < 1 {
		errs = append(errs, fmt.Errorf("rate limit must be positive, got %d", c.Server.RateLimit))
	}
	if c.Data.Source == "" {
		errs = append(errs, errors.New("data source must not be empty"))
	}
	switch c.LLM.Provider {
	case "openai", "anthropic", "ollama", "none", "disabled":
	default:
		errs = append(errs, fmt.Errorf("unsupported LLM provider %q", c.LLM.Provider))
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errs = append(errs, fmt.Errorf("temperature %.2f out of range [0, 2]", c.LLM.Temperature))
	}
	if c.Memory.MaxSessions < 1 || c.Memory.MaxTurnsPerSession < 1 {
		errs = append(errs, errors.New("memory limits must be positive"))
	}
	if c.Memory.SessionTimeout <= 0 {
		errs = append(errs, errors.New("session timeout must be positive"))
	}
	if c.Memory.CleanupSchedule != "" {
		if _, err := cron.ParseStandard(c.Memory.CleanupSchedule); err != nil {
			errs = append(errs, fmt.Errorf("invalid cleanup schedule %q: %w", c.Memory.CleanupSchedule, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// providerKey returns the conventional key variable of the provider.
func providerKey(provider string) string {
	switch provider {
	case "anthropic":
		return os.Getenv("ANTHROPIC_API_KEY")
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	}
	return ""
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default value.
// If the environment variable exists but cannot be parsed as an integer,
// it returns the default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat is getEnvInt for floating point values.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("90s", "24h") or a bare number of
// seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns a default value.
// It recognizes "true", "1", "yes" as true and "false", "0", "no" as false (case-insensitive).
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes":
			return true
		case "false", "0", "no":
			return false
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated variable, dropping empty entries.
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
