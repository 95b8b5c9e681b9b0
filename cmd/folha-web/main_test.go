package main

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/scrypster/folha/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 0, RateLimit: 600, RateBurst: 20},
		Data:   config.DataConfig{Source: "../../data/payroll.csv"},
		LLM:    config.LLMConfig{Provider: "none"},
	}
}

func TestMainServer_Routes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addr, err := startServer(ctx, testConfig())
	require.NoError(t, err)

	resp, err := http.Get("http://" + addr + "/")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// WebSocket upgrade fails via plain GET, but the route exists (not 404).
	resp, err = http.Get("http://" + addr + "/ws")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.NotEqual(t, http.StatusNotFound, resp.StatusCode)
}

func TestMainServer_GracefulShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	addr, err := startServer(ctx, testConfig())
	require.NoError(t, err)

	cancel()
	assert.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/health")
		if err != nil {
			return true
		}
		_ = resp.Body.Close()
		return false
	}, 5*time.Second, 50*time.Millisecond, "server must stop accepting connections")
}

func TestMainServer_BadConfig(t *testing.T) {
	cfg := testConfig()
	cfg.LLM.Provider = "gemini"
	cfg.LLM.APIKey = "k"
	_, err := startServer(context.Background(), cfg)
	assert.Error(t, err)
}
