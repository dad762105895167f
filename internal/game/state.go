// Package game keeps the learner's progress ledger: XP, levels, streaks,
// badges and per-task attempt records. Every change goes through a Ledger
// transition; the package performs no I/O.
package game

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// ErrInvalidState is returned by Validate when a state breaks a ledger invariant
var ErrInvalidState = errors.New("invalid game state")

// TaskAttempt is the per-task progress record
type TaskAttempt struct {
	TaskID           string     `json:"task_id"`
	Attempts         int        `json:"attempts"`
	Completed        bool       `json:"completed"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	TimeSpentSeconds int        `json:"time_spent_seconds"`
	FirstTry         bool       `json:"first_try"`
	HintsUsed        int        `json:"hints_used"`
	SolutionShown    bool       `json:"solution_shown"`
}

// GameState is the whole ledger aggregate
type GameState struct {
	TotalXP       int `json:"total_xp"`
	CurrentLevel  int `json:"current_level"`
	CurrentStreak int `json:"current_streak"`
	BestStreak    int `json:"best_streak"`

	TaskAttempts   map[string]TaskAttempt `json:"task_attempts"`
	CompletedTasks []string               `json:"completed_tasks"`
	UnlockedBadges []string               `json:"unlocked_badges"`

	// Session and lifetime counters
	SessionStartedAt      *time.Time `json:"session_started_at,omitempty"`
	TotalTimeSpentSeconds int        `json:"total_time_spent_seconds"`
	TotalAttempts         int        `json:"total_attempts"`
	CorrectAttempts       int        `json:"correct_attempts"`

	// Daily counters; LastPlayedDate is a local calendar date (2006-01-02)
	DailyXP        int    `json:"daily_xp"`
	LastPlayedDate string `json:"last_played_date,omitempty"`
	DaysPlayed     int    `json:"days_played"`

	// The task currently being worked on
	CurrentTaskID        string     `json:"current_task_id,omitempty"`
	CurrentTaskStartTime *time.Time `json:"current_task_start_time,omitempty"`
	CurrentTaskAttempts  int        `json:"current_task_attempts"`
	CurrentHintLevel     int        `json:"current_hint_level"`
	CurrentSolutionShown bool       `json:"current_solution_shown"`
}

// NewState returns the initial ledger state
func NewState() GameState {
	return GameState{
		CurrentLevel:   1,
		TaskAttempts:   make(map[string]TaskAttempt),
		CompletedTasks: []string{},
		UnlockedBadges: []string{},
	}
}

// IsCompleted reports whether taskID is in the completed set
func (s *GameState) IsCompleted(taskID string) bool {
	return slices.Contains(s.CompletedTasks, taskID)
}

// HasBadge reports whether the badge is already unlocked
func (s *GameState) HasBadge(id string) bool {
	return slices.Contains(s.UnlockedBadges, id)
}

// Clone returns a deep copy that shares nothing with s
func (s GameState) Clone() GameState {
	out := s
	out.TaskAttempts = make(map[string]TaskAttempt, len(s.TaskAttempts))
	for id, a := range s.TaskAttempts {
		if a.CompletedAt != nil {
			at := *a.CompletedAt
			a.CompletedAt = &at
		}
		out.TaskAttempts[id] = a
	}
	out.CompletedTasks = append([]string{}, s.CompletedTasks...)
	out.UnlockedBadges = append([]string{}, s.UnlockedBadges...)
	out.SessionStartedAt = copyTime(s.SessionStartedAt)
	out.CurrentTaskStartTime = copyTime(s.CurrentTaskStartTime)
	return out
}

// Validate checks the ledger invariants
func (s *GameState) Validate() error {
	if want := LevelFor(s.TotalXP).Number; s.CurrentLevel != want {
		return fmt.Errorf("%w: level %d does not match %d XP (want %d)", ErrInvalidState, s.CurrentLevel, s.TotalXP, want)
	}
	if s.BestStreak < s.CurrentStreak {
		return fmt.Errorf("%w: best streak %d below current streak %d", ErrInvalidState, s.BestStreak, s.CurrentStreak)
	}
	if s.TotalXP < 0 || s.CurrentStreak < 0 {
		return fmt.Errorf("%w: negative counters", ErrInvalidState)
	}

	seen := make(map[string]bool, len(s.CompletedTasks))
	for _, id := range s.CompletedTasks {
		if seen[id] {
			return fmt.Errorf("%w: task %s completed twice", ErrInvalidState, id)
		}
		seen[id] = true
		if a, ok := s.TaskAttempts[id]; !ok || !a.Completed {
			return fmt.Errorf("%w: task %s completed without a completed attempt", ErrInvalidState, id)
		}
	}
	for id, a := range s.TaskAttempts {
		if a.Completed && !seen[id] {
			return fmt.Errorf("%w: attempt %s completed but not in completed set", ErrInvalidState, id)
		}
	}

	badges := make(map[string]bool, len(s.UnlockedBadges))
	for _, id := range s.UnlockedBadges {
		if badges[id] {
			return fmt.Errorf("%w: badge %s unlocked twice", ErrInvalidState, id)
		}
		if _, ok := BadgeByID(id); !ok {
			return fmt.Errorf("%w: unknown badge %s", ErrInvalidState, id)
		}
		badges[id] = true
	}
	return nil
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
