package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ferdiebergado/ragchat/internal/app"
)

func main() {
	cfgFile := flag.String("config", "", "config file (overrides CONFIG_FILE)")
	flag.Parse()

	if *cfgFile != "" {
		if err := os.Setenv("CONFIG_FILE", *cfgFile); err != nil {
			slog.Error("Failed to set CONFIG_FILE.", "reason", err)
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	slog.Info("Starting server...")
	if err := app.Run(ctx); err != nil {
		slog.Error("Application failed to start.", "reason", err)
		stop()
		os.Exit(1)
	}
	slog.Info("Server shutdown gracefully.")
}
