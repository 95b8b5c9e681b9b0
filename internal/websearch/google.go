package websearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/scrypster/folha/internal/breaker"
	"github.com/scrypster/folha/pkg/types"
)

// GoogleSearcher queries the Google Custom Search JSON API.
type GoogleSearcher struct {
	cfg            Config
	client         *http.Client
	limiter        *rate.Limiter
	circuitBreaker *breaker.CircuitBreaker
}

type googleResponse struct {
	Items []Item `json:"items"`
}

// NewGoogleSearcher creates a searcher with defaults for empty fields.
func NewGoogleSearcher(cfg Config) *GoogleSearcher {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://www.googleapis.com/customsearch/v1"
	}
	if cfg.NumResults <= 0 {
		cfg.NumResults = 5
	}
	if cfg.NumResults > 10 {
		cfg.NumResults = 10
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 1
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 2
	}
	return &GoogleSearcher{
		cfg:            cfg,
		client:         &http.Client{Timeout: 10 * time.Second},
		limiter:        rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
		circuitBreaker: breaker.New(breaker.Config{Name: "google-search"}),
	}
}

// Search runs an enhanced query and returns the workplace-relevant hits.
func (g *GoogleSearcher) Search(ctx context.Context, query string) (types.WebResult, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return types.WebResult{}, fmt.Errorf("websearch: rate limit wait: %w", err)
	}

	result, err := g.circuitBreaker.Execute(ctx, func() (any, error) {
		return g.fetch(ctx, enhanceQuery(query))
	})
	if err != nil {
		if errors.Is(err, breaker.ErrCircuitOpen) {
			return types.WebResult{}, fmt.Errorf("google search circuit breaker open: %w", err)
		}
		return types.WebResult{}, err
	}

	items := filterWorkplace(result.([]Item))
	if len(items) == 0 {
		return types.WebResult{}, ErrNoResults
	}
	return buildResult(items, fmt.Sprintf("Baseado em %d resultados da web:", len(items))), nil
}

func (g *GoogleSearcher) fetch(ctx context.Context, q string) ([]Item, error) {
	params := url.Values{}
	params.Set("key", g.cfg.APIKey)
	params.Set("cx", g.cfg.EngineID)
	params.Set("q", q)
	params.Set("num", strconv.Itoa(g.cfg.NumResults))
	params.Set("lr", "lang_pt")
	params.Set("safe", "medium")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.cfg.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("google search returned status %d: %s", resp.StatusCode, string(body))
	}

	var data googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return data.Items, nil
}

var _ Searcher = (*GoogleSearcher)(nil)
