package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/felixgeelhaar/sqlquest/internal/config"
	"github.com/felixgeelhaar/sqlquest/internal/storage/local"
)

// snapshotDir returns ~/.sqlquest/snapshots
func snapshotDir() (string, error) {
	base, err := config.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "snapshots"), nil
}

// cmdExport writes the learner's progress as a JSON snapshot
func cmdExport(args []string) error {
	dir, err := snapshotDir()
	if err != nil {
		return err
	}
	if len(args) > 0 {
		dir = args[0]
	}

	ctx := context.Background()
	a, done, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer done()

	store, err := local.NewStore(dir)
	if err != nil {
		return err
	}
	snapshot := a.Practice.Snapshot()
	if err := store.Save(ctx, a.Practice.LearnerID(), &snapshot); err != nil {
		return err
	}

	path, _ := store.Path(a.Practice.LearnerID())
	fmt.Printf("Exported %d XP and %d completed tasks to %s\n", snapshot.TotalXP, len(snapshot.CompletedTasks), path)
	return nil
}

// cmdImport merges a JSON snapshot into the learner's progress
func cmdImport(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: sqlquest import <snapshot.json>")
	}
	snapshot, err := local.ReadSnapshot(args[0])
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}

	ctx := context.Background()
	a, done, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer done()

	st, err := a.Practice.Import(ctx, snapshot)
	if err != nil {
		return err
	}
	fmt.Printf("Imported ✓ Now at %d XP with %d of %d tasks completed\n", st.State.TotalXP, st.CompletedCount, st.TotalTasks)
	return nil
}

// cmdSnapshots lists exported snapshots, or deletes one with "delete <id>"
func cmdSnapshots(args []string) error {
	dir, err := snapshotDir()
	if err != nil {
		return err
	}
	store, err := local.NewStore(dir)
	if err != nil {
		return err
	}

	if len(args) > 0 && args[0] == "delete" {
		if len(args) < 2 {
			return fmt.Errorf("usage: sqlquest snapshots delete <learner-id>")
		}
		if err := store.Delete(context.Background(), args[1]); err != nil {
			return err
		}
		fmt.Printf("Deleted snapshot %s ✓\n", args[1])
		return nil
	}

	ids, err := store.List()
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Println(mutedStyle.Render("No snapshots. Run 'sqlquest export' to create one."))
		return nil
	}
	for _, id := range ids {
		path, _ := store.Path(id)
		fmt.Printf("  %-20s %s\n", id, mutedStyle.Render(path))
	}
	return nil
}
