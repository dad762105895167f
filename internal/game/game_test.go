package game

import (
	"errors"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/felixgeelhaar/sqlquest/internal/domain"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestLedger(hour int) (*Ledger, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 3, 10, hour, 0, 0, 0, time.Local)}
	l := NewLedger(NewState())
	l.Clock = clock.Now
	return l, clock
}

func mustValidate(t *testing.T, l *Ledger) {
	t.Helper()
	if err := l.State.Validate(); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
}

func TestPoints(t *testing.T) {
	tests := []struct {
		name       string
		firstTry   bool
		streak     int
		seconds    int
		difficulty domain.Difficulty
		want       int
	}{
		{"first try fast beginner", true, 1, 5, domain.DifficultyBeginner, 20},
		{"slow retry beginner", false, 0, 60, domain.DifficultyBeginner, 10},
		{"instant advanced capped streak", true, 10, 0, domain.DifficultyAdvanced, 35 + 17 + 35 + 17},
		{"streak beyond cap", true, 25, 45, domain.DifficultyIntermediate, 20 + 10 + 20},
		{"just under speed window", false, 3, 29, domain.DifficultyIntermediate, 26},
		{"unknown difficulty is beginner", false, 0, 30, domain.Difficulty("expert"), 10},
		{"negative time clamps", false, 0, -5, domain.DifficultyBeginner, 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Points(tt.firstTry, tt.streak, tt.seconds, tt.difficulty)
			if got != tt.want {
				t.Errorf("Points() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestLevelFor(t *testing.T) {
	tests := []struct {
		xp   int
		want int
		name string
	}{
		{0, 1, "SQL Novice"},
		{99, 1, "SQL Novice"},
		{100, 2, "Query Learner"},
		{799, 4, "Table Tamer"},
		{800, 5, "Join Journeyman"},
		{3999, 9, "Database Guru"},
		{4000, 10, "SQL Master"},
		{99999, 10, "SQL Master"},
	}

	for _, tt := range tests {
		got := LevelFor(tt.xp)
		if got.Number != tt.want || got.Name != tt.name {
			t.Errorf("LevelFor(%d) = %d %q, want %d %q", tt.xp, got.Number, got.Name, tt.want, tt.name)
		}
	}

	if got := NextLevelXP(1); got != 100 {
		t.Errorf("NextLevelXP(1) = %d, want 100", got)
	}
	if got := NextLevelXP(10); got != 4000 {
		t.Errorf("NextLevelXP(10) = %d, want 4000", got)
	}
	if got := LevelInfo(42); got.Number != 1 {
		t.Errorf("LevelInfo(42) = %d, want 1", got.Number)
	}
}

func TestCompleteTask_XPScenario(t *testing.T) {
	tests := []struct {
		name      string
		hintLevel int
		want      int
	}{
		{"no hints", 0, 20},
		{"level one hint", 1, 15},
		{"level two hint", 2, 10},
		{"level three hint", 3, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, clock := newTestLedger(12)
			l.StartSession()
			l.StartTask("select_all")
			if tt.hintLevel > 0 {
				if err := l.UseHint("select_all", tt.hintLevel); err != nil {
					t.Fatalf("UseHint() error: %v", err)
				}
			}
			clock.Advance(5 * time.Second)

			c := l.CompleteTask("select_all", domain.DifficultyBeginner, 40, nil)

			if !c.FirstCompletion {
				t.Error("FirstCompletion = false, want true")
			}
			if c.BasePoints != 20 {
				t.Errorf("BasePoints = %d, want 20", c.BasePoints)
			}
			if c.XPAwarded != tt.want {
				t.Errorf("XPAwarded = %d, want %d", c.XPAwarded, tt.want)
			}
			if l.State.TotalXP != tt.want || l.State.DailyXP != tt.want {
				t.Errorf("TotalXP/DailyXP = %d/%d, want %d", l.State.TotalXP, l.State.DailyXP, tt.want)
			}
			if l.State.CurrentStreak != 1 || l.State.BestStreak != 1 {
				t.Errorf("streak = %d/%d, want 1/1", l.State.CurrentStreak, l.State.BestStreak)
			}
			if c.TimeSpentSeconds != 5 {
				t.Errorf("TimeSpentSeconds = %d, want 5", c.TimeSpentSeconds)
			}
			if got := l.State.TaskAttempts["select_all"].HintsUsed; got != tt.hintLevel {
				t.Errorf("HintsUsed = %d, want %d", got, tt.hintLevel)
			}
			mustValidate(t, l)
		})
	}
}

func TestCompleteTask_SolutionShown(t *testing.T) {
	l, clock := newTestLedger(12)
	l.StartTask("a")
	clock.Advance(40 * time.Second)
	l.CompleteTask("a", domain.DifficultyBeginner, 10, nil)

	l.StartTask("b")
	l.ShowSolution("b")
	clock.Advance(40 * time.Second)
	c := l.CompleteTask("b", domain.DifficultyBeginner, 10, nil)

	if c.XPAwarded != 0 {
		t.Errorf("XPAwarded = %d, want 0", c.XPAwarded)
	}
	if l.State.CurrentStreak != 0 {
		t.Errorf("CurrentStreak = %d, want 0", l.State.CurrentStreak)
	}
	if l.State.BestStreak != 1 {
		t.Errorf("BestStreak = %d, want 1", l.State.BestStreak)
	}
	if !l.State.TaskAttempts["b"].SolutionShown {
		t.Error("attempt should remember the solution was shown")
	}
	mustValidate(t, l)
}

func TestCompleteTask_WithoutStart(t *testing.T) {
	l, _ := newTestLedger(12)
	c := l.CompleteTask("a", domain.DifficultyBeginner, 10, nil)

	if c.TimeSpentSeconds != defaultTimeSpentSeconds {
		t.Errorf("TimeSpentSeconds = %d, want %d", c.TimeSpentSeconds, defaultTimeSpentSeconds)
	}
	// 10 base + 5 first try + 1 streak, no speed bonus
	if c.XPAwarded != 16 {
		t.Errorf("XPAwarded = %d, want 16", c.XPAwarded)
	}
	mustValidate(t, l)
}

func TestCompleteTask_RecompletionAwardsNothing(t *testing.T) {
	l, clock := newTestLedger(12)
	l.StartTask("a")
	clock.Advance(5 * time.Second)
	first := l.CompleteTask("a", domain.DifficultyBeginner, 10, nil)
	before := l.Snapshot()

	l.StartTask("a")
	clock.Advance(5 * time.Second)
	again := l.CompleteTask("a", domain.DifficultyBeginner, 10, nil)

	if again.FirstCompletion {
		t.Error("FirstCompletion = true on re-completion")
	}
	if again.XPAwarded != 0 || len(again.NewBadges) != 0 {
		t.Errorf("re-completion awarded %d XP and %v", again.XPAwarded, again.NewBadges)
	}
	if l.State.TotalXP != first.XPAwarded {
		t.Errorf("TotalXP = %d, want %d", l.State.TotalXP, first.XPAwarded)
	}
	if l.State.CurrentStreak != before.CurrentStreak {
		t.Errorf("CurrentStreak = %d, want %d", l.State.CurrentStreak, before.CurrentStreak)
	}
	if !slices.Equal(l.State.UnlockedBadges, before.UnlockedBadges) {
		t.Errorf("badges changed: %v -> %v", before.UnlockedBadges, l.State.UnlockedBadges)
	}
	if len(l.State.CompletedTasks) != 1 {
		t.Errorf("CompletedTasks = %v", l.State.CompletedTasks)
	}
	if got := l.State.TaskAttempts["a"].TimeSpentSeconds; got != 10 {
		t.Errorf("TimeSpentSeconds = %d, want 10", got)
	}
	mustValidate(t, l)
}

func TestRecordAttempt(t *testing.T) {
	l, clock := newTestLedger(12)
	l.StartTask("a")
	clock.Advance(40 * time.Second)
	l.CompleteTask("a", domain.DifficultyBeginner, 10, nil)

	l.StartTask("b")
	l.RecordAttempt("b")

	if l.State.CurrentStreak != 0 {
		t.Errorf("CurrentStreak = %d, want 0", l.State.CurrentStreak)
	}
	if l.State.CurrentTaskAttempts != 1 {
		t.Errorf("CurrentTaskAttempts = %d, want 1", l.State.CurrentTaskAttempts)
	}
	if l.State.TaskAttempts["b"].Attempts != 1 {
		t.Errorf("Attempts = %d, want 1", l.State.TaskAttempts["b"].Attempts)
	}

	clock.Advance(5 * time.Second)
	c := l.CompleteTask("b", domain.DifficultyBeginner, 10, nil)

	// no first-try bonus after a wrong answer: 10 + 1 streak + 4 speed
	if c.XPAwarded != 15 {
		t.Errorf("XPAwarded = %d, want 15", c.XPAwarded)
	}
	if l.State.TaskAttempts["b"].FirstTry {
		t.Error("FirstTry = true after a wrong answer")
	}
	if l.State.TotalAttempts != 3 || l.State.CorrectAttempts != 2 {
		t.Errorf("attempts = %d total, %d correct; want 3, 2", l.State.TotalAttempts, l.State.CorrectAttempts)
	}
	mustValidate(t, l)
}

func TestStartTask_ResumesPenalty(t *testing.T) {
	l, _ := newTestLedger(12)
	l.StartTask("a")
	if err := l.UseHint("a", 2); err != nil {
		t.Fatalf("UseHint() error: %v", err)
	}
	if err := l.UseHint("a", 1); err != nil {
		t.Fatalf("UseHint() error: %v", err)
	}
	if got := l.State.TaskAttempts["a"].HintsUsed; got != 2 {
		t.Errorf("HintsUsed = %d, want high-water mark 2", got)
	}

	l.StartTask("b")
	if l.State.CurrentHintLevel != 0 {
		t.Errorf("CurrentHintLevel = %d on fresh task", l.State.CurrentHintLevel)
	}

	l.ShowSolution("a")
	l.StartTask("a")
	if l.State.CurrentHintLevel != 2 {
		t.Errorf("CurrentHintLevel = %d, want 2", l.State.CurrentHintLevel)
	}
	if !l.State.CurrentSolutionShown {
		t.Error("CurrentSolutionShown = false after resuming")
	}
}

func TestUseHint_InvalidLevel(t *testing.T) {
	l, _ := newTestLedger(12)
	l.StartTask("a")
	for _, level := range []int{0, 4, -1} {
		err := l.UseHint("a", level)
		if !errors.Is(err, domain.ErrInvalidHintLevel) {
			t.Errorf("UseHint(%d) error = %v, want ErrInvalidHintLevel", level, err)
		}
	}
}

func TestStartSession_DailyRollover(t *testing.T) {
	l, clock := newTestLedger(12)
	l.StartSession()
	if l.State.DaysPlayed != 1 || l.State.LastPlayedDate != "2026-03-10" {
		t.Fatalf("after first session: days=%d date=%q", l.State.DaysPlayed, l.State.LastPlayedDate)
	}

	l.StartTask("a")
	clock.Advance(time.Minute)
	l.CompleteTask("a", domain.DifficultyBeginner, 10, nil)
	if l.State.DailyXP == 0 {
		t.Fatal("DailyXP = 0 after completion")
	}

	clock.Advance(time.Hour)
	l.StartSession()
	if l.State.DaysPlayed != 1 || l.State.DailyXP == 0 {
		t.Errorf("same day: days=%d dailyXP=%d", l.State.DaysPlayed, l.State.DailyXP)
	}

	clock.Advance(24 * time.Hour)
	l.StartSession()
	if l.State.DaysPlayed != 2 || l.State.DailyXP != 0 {
		t.Errorf("next day: days=%d dailyXP=%d", l.State.DaysPlayed, l.State.DailyXP)
	}
	if l.State.TotalXP == 0 {
		t.Error("TotalXP reset by a new day")
	}
}

func TestBadges_FirstCompletion(t *testing.T) {
	l, clock := newTestLedger(12)
	l.StartTask("a")
	clock.Advance(5 * time.Second)
	c := l.CompleteTask("a", domain.DifficultyBeginner, 40, nil)

	want := []string{BadgeFirstQuery, BadgeSpeedDemon}
	if !slices.Equal(c.NewBadges, want) {
		t.Errorf("NewBadges = %v, want %v", c.NewBadges, want)
	}

	l.StartTask("b")
	clock.Advance(5 * time.Second)
	c = l.CompleteTask("b", domain.DifficultyBeginner, 40, nil)
	if len(c.NewBadges) != 0 {
		t.Errorf("second completion NewBadges = %v, want none", c.NewBadges)
	}
	mustValidate(t, l)
}

func TestBadges_StreaksAndPerfect(t *testing.T) {
	l, clock := newTestLedger(12)

	var unlocked []string
	for i := range 10 {
		id := fmt.Sprintf("task_%d", i)
		l.StartTask(id)
		clock.Advance(time.Minute)
		c := l.CompleteTask(id, domain.DifficultyBeginner, 100, nil)
		unlocked = append(unlocked, c.NewBadges...)

		switch i {
		case 4:
			if !slices.Contains(c.NewBadges, BadgeStreak5) {
				t.Errorf("completion %d NewBadges = %v, want streak_5", i+1, c.NewBadges)
			}
		case 9:
			for _, id := range []string{BadgeStreak10, BadgePerfect10} {
				if !slices.Contains(c.NewBadges, id) {
					t.Errorf("completion %d NewBadges = %v, want %s", i+1, c.NewBadges, id)
				}
			}
		}
		mustValidate(t, l)
	}

	seen := map[string]bool{}
	for _, id := range unlocked {
		if seen[id] {
			t.Errorf("badge %s awarded twice", id)
		}
		seen[id] = true
	}
	if !slices.Equal(unlocked, l.State.UnlockedBadges) {
		t.Errorf("UnlockedBadges = %v, want %v", l.State.UnlockedBadges, unlocked)
	}
}

func TestBadges_Persistent(t *testing.T) {
	l, clock := newTestLedger(12)
	l.StartTask("a")
	for range 5 {
		l.RecordAttempt("a")
	}
	clock.Advance(time.Minute)
	c := l.CompleteTask("a", domain.DifficultyBeginner, 40, nil)

	if !slices.Contains(c.NewBadges, BadgePersistent) {
		t.Errorf("NewBadges = %v, want persistent", c.NewBadges)
	}
}

func TestBadges_TimeOfDay(t *testing.T) {
	tests := []struct {
		hour int
		want string
		not  string
	}{
		{2, BadgeNightOwl, BadgeEarlyBird},
		{6, BadgeEarlyBird, BadgeNightOwl},
	}

	for _, tt := range tests {
		l, clock := newTestLedger(tt.hour)
		l.StartTask("a")
		clock.Advance(time.Minute)
		c := l.CompleteTask("a", domain.DifficultyBeginner, 40, nil)
		if !slices.Contains(c.NewBadges, tt.want) || slices.Contains(c.NewBadges, tt.not) {
			t.Errorf("hour %d NewBadges = %v, want %s without %s", tt.hour, c.NewBadges, tt.want, tt.not)
		}
	}

	l, clock := newTestLedger(12)
	l.StartTask("a")
	clock.Advance(time.Minute)
	c := l.CompleteTask("a", domain.DifficultyBeginner, 40, nil)
	if slices.Contains(c.NewBadges, BadgeNightOwl) || slices.Contains(c.NewBadges, BadgeEarlyBird) {
		t.Errorf("noon NewBadges = %v", c.NewBadges)
	}
}

func TestBadges_ProgressAndTopics(t *testing.T) {
	l, clock := newTestLedger(12)

	l.StartTask("s1")
	clock.Advance(time.Minute)
	c := l.CompleteTask("s1", domain.DifficultyBeginner, 2,
		&TopicProgress{Topic: domain.TopicSelect, Total: 1, Completed: 1})
	for _, id := range []string{BadgeHalfWay, BadgeSelectMaster} {
		if !slices.Contains(c.NewBadges, id) {
			t.Errorf("NewBadges = %v, want %s", c.NewBadges, id)
		}
	}
	if slices.Contains(c.NewBadges, BadgeCompletionist) {
		t.Errorf("completionist awarded at 50%%")
	}

	l.StartTask("w1")
	clock.Advance(time.Minute)
	c = l.CompleteTask("w1", domain.DifficultyBeginner, 2,
		&TopicProgress{Topic: domain.TopicWindow, Total: 1, Completed: 1})
	if !slices.Contains(c.NewBadges, BadgeCompletionist) {
		t.Errorf("NewBadges = %v, want completionist", c.NewBadges)
	}
	if len(c.NewBadges) != 1 {
		t.Errorf("window topic unlocked %v", c.NewBadges)
	}
}

func TestCompleteTask_LevelUp(t *testing.T) {
	l, clock := newTestLedger(12)
	l.State.TotalXP = 95
	l.State.CurrentLevel = 1

	l.StartTask("a")
	clock.Advance(5 * time.Second)
	c := l.CompleteTask("a", domain.DifficultyBeginner, 40, nil)

	if !c.LevelUp || c.Level != 2 {
		t.Errorf("LevelUp = %v, Level = %d; want true, 2", c.LevelUp, c.Level)
	}
	mustValidate(t, l)
}

func TestReset(t *testing.T) {
	l, clock := newTestLedger(12)
	l.StartTask("a")
	clock.Advance(5 * time.Second)
	l.CompleteTask("a", domain.DifficultyBeginner, 40, nil)

	l.Reset()

	if l.State.TotalXP != 0 || len(l.State.CompletedTasks) != 0 || len(l.State.UnlockedBadges) != 0 {
		t.Errorf("Reset() left progress: %+v", l.State)
	}
	if l.State.SessionStartedAt == nil {
		t.Error("Reset() should start a new session")
	}
	mustValidate(t, l)
}

func TestSnapshot_IsIndependent(t *testing.T) {
	l, _ := newTestLedger(12)
	l.StartTask("a")
	snap := l.Snapshot()

	l.RecordAttempt("a")
	l.State.UnlockedBadges = append(l.State.UnlockedBadges, BadgeFirstQuery)

	if snap.TaskAttempts["a"].Attempts != 0 {
		t.Errorf("snapshot attempts = %d, want 0", snap.TaskAttempts["a"].Attempts)
	}
	if len(snap.UnlockedBadges) != 0 {
		t.Errorf("snapshot badges = %v", snap.UnlockedBadges)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*GameState)
	}{
		{"level mismatch", func(s *GameState) { s.TotalXP = 500 }},
		{"streak above best", func(s *GameState) { s.CurrentStreak = 3 }},
		{"completed without attempt", func(s *GameState) { s.CompletedTasks = []string{"x"} }},
		{"completed attempt missing from set", func(s *GameState) {
			s.TaskAttempts["x"] = TaskAttempt{TaskID: "x", Completed: true}
		}},
		{"duplicate badge", func(s *GameState) { s.UnlockedBadges = []string{BadgeLevel5, BadgeLevel5} }},
		{"unknown badge", func(s *GameState) { s.UnlockedBadges = []string{"mystery"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewState()
			tt.mutate(&s)
			if err := s.Validate(); !errors.Is(err, ErrInvalidState) {
				t.Errorf("Validate() = %v, want ErrInvalidState", err)
			}
		})
	}

	s := NewState()
	if err := s.Validate(); err != nil {
		t.Errorf("NewState().Validate() = %v", err)
	}
}

func TestMerge(t *testing.T) {
	local, clock := newTestLedger(12)
	local.StartTask("a")
	clock.Advance(time.Minute)
	local.CompleteTask("a", domain.DifficultyBeginner, 40, nil)
	local.StartTask("b")
	local.RecordAttempt("b")

	remote, rclock := newTestLedger(12)
	for _, id := range []string{"b", "c", "d"} {
		remote.StartTask(id)
		rclock.Advance(time.Minute)
		remote.CompleteTask(id, domain.DifficultyAdvanced, 40, nil)
	}

	merged := Merge(local.Snapshot(), remote.Snapshot())

	if err := merged.Validate(); err != nil {
		t.Fatalf("merged Validate() error: %v", err)
	}
	if merged.TotalXP != max(local.State.TotalXP, remote.State.TotalXP) {
		t.Errorf("TotalXP = %d", merged.TotalXP)
	}
	if merged.BestStreak != 3 {
		t.Errorf("BestStreak = %d, want 3", merged.BestStreak)
	}
	if want := []string{"a", "b", "c", "d"}; !slices.Equal(merged.CompletedTasks, want) {
		t.Errorf("CompletedTasks = %v, want %v", merged.CompletedTasks, want)
	}
	if !merged.TaskAttempts["b"].Completed {
		t.Error("remote completion of b should win over local attempt")
	}
	if merged.CurrentTaskID != "b" {
		t.Errorf("CurrentTaskID = %q, want local value", merged.CurrentTaskID)
	}

	again := Merge(merged, remote.Snapshot())
	if !slices.Equal(again.CompletedTasks, merged.CompletedTasks) || again.TotalXP != merged.TotalXP {
		t.Error("Merge is not idempotent")
	}
}
