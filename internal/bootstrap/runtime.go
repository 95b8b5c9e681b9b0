package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/scrypster/folha/internal/agent"
	"github.com/scrypster/folha/internal/config"
	"github.com/scrypster/folha/internal/conversation"
	"github.com/scrypster/folha/internal/engine"
	"github.com/scrypster/folha/internal/llm"
	"github.com/scrypster/folha/internal/nlu"
	"github.com/scrypster/folha/internal/storage"
	"github.com/scrypster/folha/internal/websearch"
)

// Runtime is the wired chat backend of one process.
type Runtime struct {
	Agent  *agent.Agent
	Memory *conversation.Memory
	Store  *storage.Store
}

// NewRuntime wires the agent from cfg. A missing dataset or text generation
// provider degrades the agent instead of failing; an unreadable lexicon
// override or a broken provider configuration is an error.
func NewRuntime(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	lex := nlu.DefaultLexicon()
	if cfg.Lexicon.Path != "" {
		loaded, err := nlu.LoadLexicon(cfg.Lexicon.Path)
		if err != nil {
			return nil, fmt.Errorf("load lexicon: %w", err)
		}
		lex = loaded
		log.Printf("bootstrap: using lexicon %s", cfg.Lexicon.Path)
	}

	store := LoadStore(ctx, cfg.Data.Source)

	gen, err := llm.NewTextGenerator(llm.Config{
		Provider:    cfg.LLM.Provider,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		BaseURL:     cfg.LLM.BaseURL,
		Timeout:     cfg.LLM.Timeout,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	})
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		log.Printf("WARNING: bootstrap: text generation disabled (%v); answers use the raw fragments", err)
		gen = nil
	case err != nil:
		return nil, fmt.Errorf("text generation: %w", err)
	default:
		log.Printf("bootstrap: text generation via %s (%s)", cfg.LLM.Provider, gen.GetModel())
	}

	memory := conversation.New(agent.MemoryConfig(conversation.Config{
		MaxSessions:        cfg.Memory.MaxSessions,
		MaxTurnsPerSession: cfg.Memory.MaxTurnsPerSession,
		SessionTimeout:     cfg.Memory.SessionTimeout,
		ActiveWindow:       cfg.Memory.ActiveWindow,
	}, store, lex))

	a := agent.New(agent.Deps{
		Lexicon:  lex,
		Engine:   engine.New(store, engine.WithLexicon(lex)),
		Memory:   memory,
		Renderer: llm.NewRenderer(gen),
		Searcher: websearch.New(websearch.Config{
			APIKey:        cfg.Search.APIKey,
			EngineID:      cfg.Search.EngineID,
			NumResults:    cfg.Search.NumResults,
			RatePerSecond: cfg.Search.RatePerSecond,
			Burst:         cfg.Search.Burst,
		}),
	})

	return &Runtime{Agent: a, Memory: memory, Store: store}, nil
}
