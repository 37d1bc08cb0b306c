package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ahmethakanbesel/history-scraper/cmd/history-scraper/cmd"
)

func main() {
	// Cancelled on SIGINT/SIGTERM so in-flight fetches stop promptly.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Execute(ctx); err != nil {
		slog.Error("history-scraper failed", "error", err)
		stop()
		os.Exit(1)
	}
}
