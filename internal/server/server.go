// Package server provides HTTP server initialization and lifecycle management
// for the folha chat API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/scrypster/folha/internal/config"
	"github.com/scrypster/folha/web/handlers"
)

// NewHandler builds the routed, middleware-wrapped handler for assistant.
// hub may be nil, which disables /ws.
func NewHandler(cfg *config.Config, assistant handlers.Assistant, hub *handlers.WebSocketHub) http.Handler {
	var events handlers.Broadcaster
	if hub != nil {
		events = hub
	}
	chat := handlers.NewChatHandlers(assistant, events)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat", chat.Chat)
	mux.HandleFunc("POST /chat/{session_id}", chat.Chat)
	mux.HandleFunc("GET /sessions/stats", chat.SessionStats)
	mux.HandleFunc("POST /sessions/cleanup", chat.CleanupSessions)
	mux.HandleFunc("GET /sessions/{session_id}/context", chat.SessionContext)
	mux.HandleFunc("DELETE /sessions/{session_id}", chat.DeleteSession)
	mux.HandleFunc("GET /health", chat.Health)
	mux.HandleFunc("GET /examples", chat.Examples)
	mux.HandleFunc("GET /", chat.Index)
	if hub != nil {
		mux.Handle("GET /ws", hub)
	}

	perMinute := cfg.Server.RateLimit
	if perMinute <= 0 {
		perMinute = 60
	}
	burst := cfg.Server.RateBurst
	if burst <= 0 {
		burst = 10
	}

	// Rate limiting innermost so rejected requests still carry CORS and
	// security headers.
	handler := handlers.RateLimitMiddleware(mux, handlers.NewRateLimiter(float64(perMinute)/60, burst))
	handler = handlers.CORSMiddleware(handler, cfg.Server.AllowedOrigins)
	handler = handlers.SecurityHeadersMiddleware(handler)
	return handler
}

// Start initializes and starts the HTTP server and the scheduled session
// cleanup. It returns the actual address being listened on (useful for
// testing with port 0) and the WebSocketHub carrying chat events. Everything
// shuts down when ctx is done.
func Start(ctx context.Context, cfg *config.Config, assistant handlers.Assistant) (string, *handlers.WebSocketHub, error) {
	wsHub := handlers.NewWebSocketHub(cfg.Server.AllowedOrigins...)
	go wsHub.Run()

	stopCleanup, err := StartCleanup(ctx, cfg.Memory.CleanupSchedule, assistant)
	if err != nil {
		wsHub.Stop()
		return "", nil, err
	}

	// Create server with security timeouts. WriteTimeout leaves room for a
	// slow text generation call.
	addr := cfg.Server.Addr()
	server := &http.Server{
		Addr:         addr,
		Handler:      NewHandler(cfg, assistant, wsHub),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		wsHub.Stop()
		if stopCleanup != nil {
			stopCleanup()
		}
		return "", nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	actualAddr := listener.Addr().String()
	log.Printf("server: listening on %s", actualAddr)

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("ERROR: server: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		timeout := cfg.Server.ShutdownTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("ERROR: server: shutdown: %v", err)
		}
		if stopCleanup != nil {
			stopCleanup()
		}
		wsHub.Stop()
	}()

	return actualAddr, wsHub, nil
}
