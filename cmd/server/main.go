package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"cityhr/internal/app/server"
	"cityhr/internal/platform/config"
	"cityhr/internal/platform/logging"
)

func main() {
	cfg := config.Load()
	logging.New(cfg.LogFormat, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := server.New(ctx, cfg)
	if err != nil {
		slog.Error("startup failed", "err", err)
		os.Exit(1)
	}
	defer app.Close()

	if err := app.Run(ctx); err != nil {
		slog.Error("server exited", "err", err)
		os.Exit(1)
	}
}
