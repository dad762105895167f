package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/sqlquest/internal/app"
	"github.com/felixgeelhaar/sqlquest/internal/config"
	mcpserver "github.com/felixgeelhaar/sqlquest/internal/mcp"
)

// cmdMCP serves the practice tools over MCP on stdio. Logs go to the log
// file only since stdout carries the protocol.
func cmdMCP() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level, _ := config.ParseLevel(cfg.Daemon.LogLevel)
	logPath, err := config.LogPath()
	if err != nil {
		return err
	}
	logFile, err := app.SetupLogging(app.LogOptions{Level: level, FilePath: logPath})
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	defer logFile.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.Practice.StartSession(ctx); err != nil {
		slog.Warn("failed to record session start", "error", err)
	}

	srv := mcpserver.NewServer(mcpserver.Config{
		Version:  Version,
		Practice: a.Practice,
		Schemas:  a.Catalog,
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	slog.Info("mcp server starting", "learner_id", a.Practice.LearnerID())
	return srv.ServeStdio(ctx)
}
