package app

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/felixgeelhaar/sqlquest/internal/config"
	"github.com/felixgeelhaar/sqlquest/internal/storage/sqlite"
)

func TestOpen_PersistsAcrossRestarts(t *testing.T) {
	ctx := context.Background()
	cfg := config.DefaultLocalConfig()
	cfg.Storage.Path = filepath.Join(t.TempDir(), "progress.db")

	a, err := Open(ctx, cfg)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	sub, err := a.Practice.Submit(ctx, "select_all_artists", "SELECT * FROM artists")
	if err != nil {
		t.Fatalf("Submit() error: %v", err)
	}
	if sub.Completion == nil {
		t.Fatal("expected completion")
	}
	xp := sub.Completion.XPAwarded
	if err := a.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	reopened, err := Open(ctx, cfg)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer reopened.Close()

	st := reopened.Practice.State(ctx)
	if st.State.TotalXP != xp || st.CompletedCount != 1 {
		t.Errorf("restored XP = %d, completed = %d; want %d, 1", st.State.TotalXP, st.CompletedCount, xp)
	}

	subs, err := reopened.Submissions.List(ctx, cfg.Practice.LearnerID, "", 0)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(subs) != 1 {
		t.Errorf("submissions = %d, want 1", len(subs))
	}
}

func TestOpen_InMemory(t *testing.T) {
	cfg := config.DefaultLocalConfig()
	cfg.Storage.Path = sqlite.MemoryPath

	a, err := Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer a.Close()

	if issues := a.Oracle.VerifyCatalog(context.Background()); len(issues) != 0 {
		t.Errorf("VerifyCatalog() issues = %+v", issues)
	}
}

func TestSetupLogging(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	var console bytes.Buffer
	logPath := filepath.Join(t.TempDir(), "logs", "sqlquest.log")

	closer, err := SetupLogging(LogOptions{
		Level:    slog.LevelInfo,
		Console:  &console,
		FilePath: logPath,
	})
	if err != nil {
		t.Fatalf("SetupLogging() error: %v", err)
	}

	slog.Debug("hidden")
	slog.Info("task completed", "task_id", "select_all_artists")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	if strings.Contains(console.String(), "hidden") {
		t.Error("debug record should be filtered")
	}
	if !strings.Contains(console.String(), "task completed") {
		t.Errorf("console = %q, want the info record", console.String())
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), `"task_id":"select_all_artists"`) {
		t.Errorf("log file = %q, want JSON record", data)
	}
}
