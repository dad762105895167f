package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/felixgeelhaar/sqlquest/internal/game"
)

// cmdHistory shows recent submissions, optionally for one task
func cmdHistory(args []string) error {
	var taskID string
	if len(args) > 0 {
		taskID = args[0]
	}

	ctx := context.Background()
	a, done, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer done()

	if taskID != "" {
		if _, err := a.Practice.Task(taskID); err != nil {
			return err
		}
	}

	subs, err := a.Submissions.List(ctx, a.Practice.LearnerID(), taskID, 20)
	if err != nil {
		return err
	}
	if len(subs) == 0 {
		fmt.Println("No submissions yet.")
		return nil
	}

	rows := make([][]string, 0, len(subs))
	for _, s := range subs {
		status := s.Status
		if s.Reason != "" {
			status += " (" + s.Reason + ")"
		}
		rows = append(rows, []string{
			s.CreatedAt.Local().Format(time.DateTime),
			s.TaskID,
			status,
			strconv.Itoa(s.XPAwarded),
			s.Duration.Round(time.Millisecond).String(),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers("When", "Task", "Verdict", "XP", "Took").
		Rows(rows...)
	fmt.Println(t.Render())

	correct, err := a.Submissions.Count(ctx, a.Practice.LearnerID(), "CORRECT")
	if err != nil {
		return err
	}
	total, err := a.Submissions.Count(ctx, a.Practice.LearnerID(), "")
	if err != nil {
		return err
	}
	fmt.Println(mutedStyle.Render(fmt.Sprintf("%d of %d submissions correct", correct, total)))
	return nil
}

// cmdLeaderboard ranks the learners sharing this progress database
func cmdLeaderboard(args []string) error {
	limit := 10
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return fmt.Errorf("limit must be a positive number")
		}
		limit = n
	}

	ctx := context.Background()
	a, done, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer done()

	entries, err := a.Progress.Leaderboard(ctx, limit)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(entries))
	for i, e := range entries {
		name := e.LearnerID
		if name == a.Practice.LearnerID() {
			name = xpStyle.Render(name + " (you)")
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			name,
			strconv.Itoa(e.TotalXP),
			game.LevelInfo(e.Level).Name,
			strconv.Itoa(e.Completed),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers("#", "Learner", "XP", "Level", "Tasks").
		Rows(rows...)
	fmt.Println(t.Render())
	return nil
}

// badgeName resolves a badge id for display
func badgeName(id string) string {
	if b, ok := game.BadgeByID(id); ok {
		return b.Name + " · " + b.Description
	}
	return id
}

// cmdForget removes another learner's progress from the shared database
func cmdForget(args []string) error {
	if len(args) < 2 || args[1] != "--yes" {
		return fmt.Errorf("usage: sqlquest forget <learner-id> --yes")
	}
	learnerID := args[0]

	ctx := context.Background()
	a, done, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer done()

	if learnerID == a.Practice.LearnerID() {
		return fmt.Errorf("%s is the active learner; use 'sqlquest reset --yes' instead", learnerID)
	}
	if err := a.Progress.Delete(ctx, learnerID); err != nil {
		return err
	}
	fmt.Printf("Forgot %s ✓\n", learnerID)
	return nil
}
