// Package websearch answers labor-law and benefits questions with web
// search results. GoogleSearcher calls the Custom Search JSON API;
// FallbackSearcher serves a small static set of official references when no
// API key is configured.
package websearch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/scrypster/folha/internal/textnorm"
	"github.com/scrypster/folha/pkg/types"
)

// ErrNoResults is returned when a search yields nothing relevant.
var ErrNoResults = errors.New("websearch: no results")

// Searcher runs a web lookup for one question.
type Searcher interface {
	Search(ctx context.Context, query string) (types.WebResult, error)
}

// Item is one search hit.
type Item struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Snippet     string `json:"snippet"`
	DisplayLink string `json:"displayLink"`
}

// Config selects and tunes a Searcher.
type Config struct {
	APIKey        string
	EngineID      string
	BaseURL       string  // default: https://www.googleapis.com/customsearch/v1
	NumResults    int     // default: 5, capped at 10
	RatePerSecond float64 // default: 1
	Burst         int     // default: 2
}

// New returns a GoogleSearcher when both the API key and the engine id are
// set, otherwise a FallbackSearcher.
func New(cfg Config) Searcher {
	if cfg.APIKey != "" && cfg.EngineID != "" {
		return NewGoogleSearcher(cfg)
	}
	log.Printf("WARNING: websearch: Google API key or engine id not set, using static references")
	return NewFallbackSearcher(cfg.NumResults)
}

// enhanceSuffix narrows searches to Brazilian labor law.
const enhanceSuffix = "legislação trabalhista brasileira CLT"

// enhanceQuery appends enhanceSuffix unless the query already names the CLT
// or labor legislation.
func enhanceQuery(q string) string {
	padded := textnorm.Padded(q)
	if textnorm.ContainsPhrase(padded, "clt") || textnorm.ContainsPhrase(padded, "legislacao trabalhista") {
		return q
	}
	return strings.TrimSpace(q) + " " + enhanceSuffix
}

// workplaceKeywords mark a hit as relevant to labor law.
var workplaceKeywords = []string{
	"trabalho", "trabalhista", "trabalhistas", "trabalhador", "clt", "lei", "direito", "direitos",
	"funcionario", "empregado", "salario", "ferias", "fgts", "inss", "irrf", "tributo", "encargo",
	"rescisao", "13º",
}

// filterWorkplace keeps the hits whose title or snippet has a workplace
// keyword.
func filterWorkplace(items []Item) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		padded := textnorm.Padded(it.Title + " " + it.Snippet)
		for _, kw := range workplaceKeywords {
			if textnorm.ContainsPhrase(padded, kw) {
				out = append(out, it)
				break
			}
		}
	}
	return out
}

// buildResult renders hits as a fragment with one citation per hit.
func buildResult(items []Item, note string) types.WebResult {
	var b strings.Builder
	b.WriteString(note)
	citations := make([]types.Citation, 0, len(items))
	for i, it := range items {
		source := it.DisplayLink
		if source == "" {
			source = it.Link
		}
		fmt.Fprintf(&b, "\n%d. %s (%s): %s", i+1, it.Title, source, it.Snippet)
		citations = append(citations, types.Citation{
			Source:  source,
			Title:   it.Title,
			URL:     it.Link,
			Snippet: it.Snippet,
		})
	}
	return types.WebResult{Success: true, Fragment: b.String(), Evidence: citations}
}
