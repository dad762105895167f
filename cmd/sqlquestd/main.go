package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/felixgeelhaar/sqlquest/internal/app"
	"github.com/felixgeelhaar/sqlquest/internal/config"
	"github.com/felixgeelhaar/sqlquest/internal/daemon"
)

// Version is set at build time via ldflags
var Version = "dev"

const pidFileName = "sqlquestd.pid"

func main() {
	if err := run(); err != nil {
		slog.Error("daemon error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	dir, err := config.EnsureDir()
	if err != nil {
		return fmt.Errorf("ensure sqlquest dir: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level, _ := config.ParseLevel(cfg.Daemon.LogLevel)
	logPath, err := config.LogPath()
	if err != nil {
		return err
	}
	logFile, err := app.SetupLogging(app.LogOptions{
		Level:    level,
		Console:  os.Stderr,
		FilePath: logPath,
	})
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	defer logFile.Close()

	pidPath := filepath.Join(dir, pidFileName)
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	ctx := context.Background()
	a, err := app.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if issues := a.Oracle.VerifyCatalog(ctx); len(issues) > 0 {
		for _, issue := range issues {
			slog.Error("catalog defect", "task_id", issue.TaskID, "verdict", issue.Verdict, "detail", issue.Detail, "error", issue.Error)
		}
		return fmt.Errorf("catalog has %d broken tasks", len(issues))
	}

	if _, err := a.Practice.StartSession(ctx); err != nil {
		slog.Warn("failed to record session start", "error", err)
	}

	server, err := daemon.NewServer(daemon.ServerConfig{
		Config:   cfg,
		Version:  Version,
		Catalog:  a.Catalog,
		Practice: a.Practice,
		History:  a.Submissions,
	})
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh

		slog.Info("received signal, shutting down", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
		close(done)
	}()

	if err := server.Start(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	<-done
	slog.Info("daemon stopped")
	return nil
}

func writePIDFile(path string) error {
	return os.WriteFile(path, []byte(fmt.Sprintf("%d\n", os.Getpid())), 0644)
}
