package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/scrypster/folha/internal/bootstrap"
	"github.com/scrypster/folha/internal/config"
	"github.com/scrypster/folha/internal/server"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addr, err := startServer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
	log.Printf("folha chat API running at http://%s", addr)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down gracefully...")
	cancel()
	time.Sleep(1 * time.Second) // Give time for connections to close
}

// startServer wires the runtime from cfg and starts serving it.
func startServer(ctx context.Context, cfg *config.Config) (string, error) {
	rt, err := bootstrap.NewRuntime(ctx, cfg)
	if err != nil {
		return "", err
	}
	addr, _, err := server.Start(ctx, cfg, rt.Agent)
	return addr, err
}
