package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/utafrali/ApartmentAdmin/internal/app"
	"github.com/utafrali/ApartmentAdmin/internal/config"
	"github.com/utafrali/ApartmentAdmin/internal/handler/cli"
	"github.com/utafrali/ApartmentAdmin/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		cli.Report(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Logs go to stderr; stdout carries command output only.
	log := logger.New(app.ServiceName, cfg.LogLevel)
	slog.SetDefault(log)

	c := cli.New(cfg, log, func(ctx context.Context, notices io.Writer) (*app.App, error) {
		return app.New(ctx, cfg, log, app.Options{Out: notices})
	})

	// Create a context that is canceled on SIGINT or SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runErr := c.Command().ExecuteContext(ctx)

	closeCtx, closeCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer closeCancel()
	if err := c.Close(closeCtx); err != nil {
		log.Warn("shutdown incomplete", slog.String("error", err.Error()))
	}
	return runErr
}
