// Package breaker guards calls to external collaborators (text generation,
// web search) with a gobreaker circuit so a failing provider is skipped
// quickly and the raw answer fragment is used instead.
package breaker

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/sony/gobreaker"
)

// ErrCircuitOpen is returned while the circuit rejects calls.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// Config tunes a CircuitBreaker.
type Config struct {
	// Name appears in state change log lines.
	Name string

	// MaxFailures consecutive failures trip the circuit. Default: 3
	MaxFailures uint32

	// Timeout is how long the circuit stays open. Default: 30 seconds
	Timeout time.Duration

	// HalfOpenMaxRequests successes in half-open close it again. Default: 2
	HalfOpenMaxRequests uint32
}

// Metrics counts calls seen by a CircuitBreaker.
type Metrics struct {
	TotalRequests        uint64 `json:"total_requests"`
	TotalSuccesses       uint64 `json:"total_successes"`
	TotalFailures        uint64 `json:"total_failures"`
	Rejected             uint64 `json:"rejected"`
	Cancelled            uint64 `json:"cancelled"`
	ConsecutiveFailures  uint32 `json:"consecutive_failures"`
	ConsecutiveSuccesses uint32 `json:"consecutive_successes"`
}

// CircuitBreaker wraps gobreaker with context checks and counters.
type CircuitBreaker struct {
	breaker *gobreaker.CircuitBreaker
	name    string

	mu      sync.Mutex
	metrics Metrics
}

// New creates a breaker with defaults filled in for zero fields.
func New(cfg Config) *CircuitBreaker {
	if cfg.Name == "" {
		cfg.Name = "collaborator"
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.HalfOpenMaxRequests == 0 {
		cfg.HalfOpenMaxRequests = 2
	}

	maxFailures := cfg.MaxFailures
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.HalfOpenMaxRequests,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || isContextErr(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if to == gobreaker.StateOpen {
				log.Printf("WARNING: breaker: %s circuit opened", name)
				return
			}
			log.Printf("breaker: %s circuit %s -> %s", name, from, to)
		},
	}

	return &CircuitBreaker{
		breaker: gobreaker.NewCircuitBreaker(settings),
		name:    cfg.Name,
	}
}

// Execute runs fn through the circuit. Context cancellation and deadline
// errors, whether seen before the call or returned by fn, do not count
// against the circuit.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func() (any, error)) (any, error) {
	if err := ctx.Err(); err != nil {
		cb.mu.Lock()
		cb.metrics.Cancelled++
		cb.mu.Unlock()
		return nil, err
	}

	result, err := cb.breaker.Execute(func() (any, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return fn()
	})

	cb.mu.Lock()
	defer cb.mu.Unlock()
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		cb.metrics.Rejected++
		return nil, ErrCircuitOpen
	case err != nil && isContextErr(err):
		cb.metrics.Cancelled++
	case err != nil:
		cb.metrics.TotalRequests++
		cb.metrics.TotalFailures++
		cb.metrics.ConsecutiveFailures++
		cb.metrics.ConsecutiveSuccesses = 0
	default:
		cb.metrics.TotalRequests++
		cb.metrics.TotalSuccesses++
		cb.metrics.ConsecutiveSuccesses++
		cb.metrics.ConsecutiveFailures = 0
	}
	return result, err
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Name returns the configured name.
func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// State returns "closed", "open" or "half-open".
func (cb *CircuitBreaker) State() string {
	return cb.breaker.State().String()
}

// Metrics returns a snapshot of the counters. The consecutive counts are
// kept here rather than read from gobreaker, which clears its own on every
// state change, so they survive the circuit opening.
func (cb *CircuitBreaker) Metrics() Metrics {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.metrics
}
