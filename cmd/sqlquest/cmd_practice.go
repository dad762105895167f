package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/sqlquest/internal/app"
	"github.com/felixgeelhaar/sqlquest/internal/config"
	"github.com/felixgeelhaar/sqlquest/internal/domain"
	"github.com/felixgeelhaar/sqlquest/internal/hint"
)

// openApp loads config, routes logs to the log file with warnings on
// stderr, opens the local services and starts a play session.
func openApp(ctx context.Context) (*app.App, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	level, _ := config.ParseLevel(cfg.Daemon.LogLevel)
	logPath, err := config.LogPath()
	if err != nil {
		return nil, nil, err
	}
	logFile, err := app.SetupLogging(app.LogOptions{
		Level:    max(level, slog.LevelWarn),
		Console:  os.Stderr,
		FilePath: logPath,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("setup logging: %w", err)
	}

	a, err := app.Open(ctx, cfg)
	if err != nil {
		logFile.Close()
		return nil, nil, err
	}
	if _, err := a.Practice.StartSession(ctx); err != nil {
		slog.Warn("failed to record session start", "error", err)
	}
	return a, func() {
		a.Close()
		logFile.Close()
	}, nil
}

// cmdInit creates ~/.sqlquest and a default config
func cmdInit() error {
	fmt.Print("Creating ~/.sqlquest directory structure... ")
	dir, err := config.EnsureDir()
	if err != nil {
		return fmt.Errorf("create directories: %w", err)
	}
	fmt.Println("✓")

	cfg, err := config.LoadLocalConfig()
	if err != nil {
		return err
	}
	fmt.Print("Writing configuration... ")
	if err := config.SaveLocalConfig(cfg); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	fmt.Println("✓")

	fmt.Printf("\nSQLQuest is ready in %s\n", dir)
	fmt.Println("Try 'sqlquest tasks' to see where to begin.")
	return nil
}

// cmdConfig prints the effective configuration
func cmdConfig() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	progress, err := cfg.ProgressPath()
	if err != nil {
		return err
	}

	fmt.Println(titleStyle.Render("Configuration"))
	fmt.Printf("Daemon:       %s (log level %s)\n", cfg.Addr(), cfg.Daemon.LogLevel)
	fmt.Printf("Engine:       timeout %s, max %d rows\n", cfg.Engine.QueryTimeout, cfg.Engine.MaxRows)
	fmt.Printf("Oracle:       %d concurrent checks\n", cfg.Oracle.MaxConcurrent)
	fmt.Printf("Learner:      %s (%d checks/min)\n", cfg.Practice.LearnerID, cfg.Practice.SubmissionsPerMinute)
	fmt.Printf("Progress:     %s\n", progress)
	return nil
}

// cmdTasks lists tasks, optionally for one topic
func cmdTasks(args []string) error {
	var topic domain.Topic
	if len(args) > 0 {
		topic = domain.Topic(args[0])
		if !topic.Valid() {
			return fmt.Errorf("unknown topic %q (valid: %s)", args[0], topicList())
		}
	}

	ctx := context.Background()
	a, done, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer done()

	current := domain.Topic("")
	for _, t := range a.Practice.Tasks() {
		if topic != "" && t.Topic != topic {
			continue
		}
		if t.Topic != current {
			current = t.Topic
			fmt.Println()
			fmt.Println(titleStyle.Render(string(current)))
		}
		mark := mutedStyle.Render("·")
		if t.Completed {
			mark = correctStyle.Render("✓")
		}
		fmt.Printf("  %s %-45s %s\n", mark, t.ID, mutedStyle.Render(string(t.Difficulty)))
	}
	return nil
}

func topicList() string {
	names := make([]string, len(domain.Topics))
	for i, t := range domain.Topics {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

// cmdDatabases lists databases or shows one schema
func cmdDatabases(args []string) error {
	ctx := context.Background()
	a, done, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer done()

	if len(args) == 0 {
		for _, db := range a.Catalog.Databases() {
			line := fmt.Sprintf("%-15s %s", db.ID, db.DisplayName)
			if db.Extends != "" {
				line += mutedStyle.Render(" (extends " + db.Extends + ")")
			}
			fmt.Println(line)
		}
		return nil
	}

	schema, err := a.Catalog.Schema(args[0])
	if err != nil {
		return err
	}
	fmt.Print(renderSchema(schema))
	return nil
}

// cmdCheck checks a query against a task
func cmdCheck(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: sqlquest check <task> <sql|->")
	}
	query, err := readQuery(args[1:], os.Stdin)
	if err != nil {
		return err
	}

	ctx := context.Background()
	a, done, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer done()

	sub, err := a.Practice.Submit(ctx, args[0], query)
	if err != nil {
		return err
	}

	fmt.Println(renderVerdict(sub.Result.Verdict))
	if !sub.Result.Verdict.IsCorrect() {
		fmt.Println(sub.Feedback)
	}
	if table := renderOutcome(sub.Result.Learner); table != "" {
		fmt.Println(table)
	}

	if c := sub.Completion; c != nil {
		if c.FirstCompletion {
			fmt.Println(xpStyle.Render(fmt.Sprintf("+%d XP", c.XPAwarded)))
		} else {
			fmt.Println(mutedStyle.Render("Already completed, no XP this time"))
		}
		if c.LevelUp {
			fmt.Println(xpStyle.Render(fmt.Sprintf("Level up! You are now level %d", c.Level)))
		}
		for _, id := range c.NewBadges {
			fmt.Printf("🏅 %s\n", badgeName(id))
		}
		if sub.NextTaskID != "" {
			fmt.Printf("Next: %s\n", sub.NextTaskID)
		}
	}
	return nil
}

// readQuery joins the query arguments, or reads stdin for "-"
func readQuery(args []string, stdin io.Reader) (string, error) {
	if len(args) == 1 && args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read query: %w", err)
		}
		return string(data), nil
	}
	return strings.Join(args, " "), nil
}

// cmdHint reveals a hint
func cmdHint(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: sqlquest hint <task> <1-%d>", hint.MaxLevel)
	}
	level, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("hint level must be a number: %w", err)
	}

	ctx := context.Background()
	a, done, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer done()

	h, err := a.Practice.RevealHint(ctx, args[0], level)
	if err != nil {
		return err
	}
	fmt.Println(titleStyle.Render(fmt.Sprintf("Hint %d", h.Level)))
	fmt.Println(h.Text)
	fmt.Println(mutedStyle.Render(fmt.Sprintf("This task now earns %d%% XP", hint.XPMultiplierPercent(h.Level, false))))
	return nil
}

// cmdSolution reveals the reference query
func cmdSolution(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: sqlquest solution <task>")
	}

	ctx := context.Background()
	a, done, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer done()

	solution, err := a.Practice.RevealSolution(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Println(solution)
	fmt.Println(mutedStyle.Render("This task no longer earns XP"))
	return nil
}

// cmdProgress shows XP, level, streak and badges
func cmdProgress() error {
	ctx := context.Background()
	a, done, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer done()

	st := a.Practice.State(ctx)
	s := st.State

	fmt.Println(titleStyle.Render(fmt.Sprintf("Level %d · %s", st.Level.Number, st.Level.Name)))
	if st.NextLevelXP > st.Level.XPRequired {
		span := float64(st.NextLevelXP - st.Level.XPRequired)
		fmt.Printf("XP:        %d / %d %s\n", s.TotalXP, st.NextLevelXP,
			renderProgressBar(float64(s.TotalXP-st.Level.XPRequired)/span, 20))
	} else {
		fmt.Printf("XP:        %d (max level)\n", s.TotalXP)
	}
	fmt.Printf("Today:     %d XP\n", s.DailyXP)
	fmt.Printf("Streak:    %d (best %d)\n", s.CurrentStreak, s.BestStreak)
	fmt.Printf("Completed: %d / %d %s\n", st.CompletedCount, st.TotalTasks,
		renderProgressBar(float64(st.CompletedCount)/float64(max(st.TotalTasks, 1)), 20))
	fmt.Printf("Accuracy:  %d / %d checks\n", s.CorrectAttempts, s.TotalAttempts)
	fmt.Printf("Days:      %d\n", s.DaysPlayed)

	if len(st.Badges) > 0 {
		fmt.Println()
		fmt.Println(titleStyle.Render("Badges"))
		for _, b := range st.Badges {
			fmt.Printf("  🏅 %-22s %s\n", b.Name, mutedStyle.Render(b.Description))
		}
	}
	return nil
}

// cmdReset discards all progress
func cmdReset(args []string) error {
	if len(args) == 0 || args[0] != "--yes" {
		return fmt.Errorf("this discards all XP, streaks and badges; run 'sqlquest reset --yes' to confirm")
	}

	ctx := context.Background()
	a, done, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer done()

	if _, err := a.Practice.Reset(ctx); err != nil {
		return err
	}
	fmt.Println("Progress reset ✓")
	return nil
}

// cmdVerify checks every reference query against itself
func cmdVerify() error {
	ctx := context.Background()
	a, done, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer done()

	issues := a.Oracle.VerifyCatalog(ctx)
	if len(issues) == 0 {
		fmt.Printf("All %d tasks verified ✓\n", a.Catalog.Len())
		return nil
	}
	for _, issue := range issues {
		detail := issue.Error
		if detail == "" {
			detail = issue.Verdict + ": " + issue.Detail
		}
		fmt.Printf("%s %s: %s\n", wrongStyle.Render("✗"), issue.TaskID, detail)
	}
	return fmt.Errorf("%d of %d tasks failed verification", len(issues), a.Catalog.Len())
}
