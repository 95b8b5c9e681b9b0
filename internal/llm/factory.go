package llm

import (
	"fmt"
	"strings"
	"time"
)

// Config selects and configures a text generation provider.
type Config struct {
	Provider    string // openai (default), anthropic, ollama, none
	APIKey      string
	Model       string
	BaseURL     string
	Timeout     time.Duration
	Temperature float64
	MaxTokens   int
}

// NewTextGenerator creates the TextGenerator for cfg.Provider. Cloud
// providers without an API key, and provider "none", return
// ErrNotConfigured.
func NewTextGenerator(cfg Config) (TextGenerator, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai", "":
		if cfg.APIKey == "" {
			return nil, ErrNotConfigured
		}
		return NewOpenAIClient(OpenAIConfig{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			BaseURL:     cfg.BaseURL,
			Timeout:     cfg.Timeout,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		}), nil
	case "anthropic":
		if cfg.APIKey == "" {
			return nil, ErrNotConfigured
		}
		return NewAnthropicClient(AnthropicConfig{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			BaseURL:     cfg.BaseURL,
			Timeout:     cfg.Timeout,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		}), nil
	case "ollama":
		return NewOllamaClient(OllamaConfig{
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Timeout:     cfg.Timeout,
			Temperature: cfg.Temperature,
		}), nil
	case "none", "disabled":
		return nil, ErrNotConfigured
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %q", cfg.Provider)
	}
}
