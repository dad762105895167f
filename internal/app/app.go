// Package app wires the catalog, engine, oracle, stores and practice service
// from a LocalConfig. The CLI, the daemon and the MCP server share it.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/sqlquest/internal/catalog"
	"github.com/felixgeelhaar/sqlquest/internal/config"
	"github.com/felixgeelhaar/sqlquest/internal/engine"
	"github.com/felixgeelhaar/sqlquest/internal/oracle"
	"github.com/felixgeelhaar/sqlquest/internal/practice"
	"github.com/felixgeelhaar/sqlquest/internal/storage/sqlite"
)

// App holds the wired services
type App struct {
	Config      *config.LocalConfig
	Catalog     *catalog.Catalog
	Engine      *engine.Engine
	Oracle      *oracle.Oracle
	Practice    *practice.Service
	Progress    *sqlite.ProgressStore
	Submissions *sqlite.SubmissionStore

	db *sqlite.DB
}

// Open loads the catalog, opens and migrates the progress database and
// restores the configured learner's progress.
func Open(ctx context.Context, cfg *config.LocalConfig) (*App, error) {
	cat, err := catalog.Default()
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	eng := engine.New(cat, engine.Config{
		QueryTimeout: cfg.Engine.QueryTimeout,
		MaxRows:      cfg.Engine.MaxRows,
	})
	orc := oracle.New(cat, eng, oracle.Config{MaxConcurrent: cfg.Oracle.MaxConcurrent})

	path, err := cfg.ProgressPath()
	if err != nil {
		return nil, err
	}
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open progress database: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate progress database: %w", err)
	}

	progress := sqlite.NewProgressStore(db)
	submissions := sqlite.NewSubmissionStore(db)

	if retention := cfg.Storage.HistoryRetention; retention > 0 {
		pruned, err := submissions.Prune(ctx, retention)
		if err != nil {
			slog.Warn("failed to prune submission history", "error", err)
		} else if pruned > 0 {
			slog.Info("pruned submission history", "removed", pruned, "retention", retention)
		}
	}

	svc, err := practice.New(ctx, cat, orc, progress, practice.Config{
		LearnerID:            cfg.Practice.LearnerID,
		SubmissionsPerMinute: cfg.Practice.SubmissionsPerMinute,
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	svc.SetHistory(submissions)

	slog.Debug("app opened",
		"progress_db", db.Path(),
		"learner_id", svc.LearnerID(),
		"tasks", cat.Len())

	return &App{
		Config:      cfg,
		Catalog:     cat,
		Engine:      eng,
		Oracle:      orc,
		Practice:    svc,
		Progress:    progress,
		Submissions: submissions,
		db:          db,
	}, nil
}

// Close releases the practice service and the progress database
func (a *App) Close() error {
	if err := a.Practice.Close(); err != nil {
		slog.Warn("failed to close practice service", "error", err)
	}
	return a.db.Close()
}
