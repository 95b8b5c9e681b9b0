package llm

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned by NewTextGenerator when no provider
// credentials are set. Callers then answer with the raw engine fragment.
var ErrNotConfigured = errors.New("llm: no text generation provider configured")

// TextGenerator is the interface for LLM text completion.
type TextGenerator interface {
	Complete(ctx context.Context, prompt string) (string, error)
	GetModel() string
}

// SystemCompleter is implemented by generators that accept a separate
// system prompt. Renderer falls back to prefixing the prompt otherwise.
type SystemCompleter interface {
	CompleteWithSystem(ctx context.Context, system, prompt string) (string, error)
}
