package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mcoot/tichu/internal/cli"
	"github.com/mcoot/tichu/internal/config"
)

// The server binary for deployments: configured by TICHU_CONFIG and the
// TICHU_* environment variables only.
func main() {
	cfg, err := config.Load(os.Getenv("TICHU_CONFIG"))
	if err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Serve(ctx, cfg); err != nil {
		stop()
		os.Exit(1)
	}
}
