package game

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/sqlquest/internal/domain"
	"github.com/felixgeelhaar/sqlquest/internal/hint"
)

// defaultTimeSpentSeconds is charged when a task completes without a start time
const defaultTimeSpentSeconds = 60

// Ledger applies progress transitions to a GameState. It is not safe for
// concurrent use; callers serialise access.
type Ledger struct {
	State GameState
	Clock func() time.Time
}

// NewLedger wraps state. A zero state is replaced by NewState.
func NewLedger(state GameState) *Ledger {
	if state.TaskAttempts == nil {
		state.TaskAttempts = make(map[string]TaskAttempt)
	}
	if state.CompletedTasks == nil {
		state.CompletedTasks = []string{}
	}
	if state.UnlockedBadges == nil {
		state.UnlockedBadges = []string{}
	}
	if state.CurrentLevel == 0 {
		state.CurrentLevel = LevelFor(state.TotalXP).Number
	}
	return &Ledger{State: state, Clock: time.Now}
}

// Completion reports what a CompleteTask call awarded
type Completion struct {
	TaskID           string   `json:"task_id"`
	FirstCompletion  bool     `json:"first_completion"`
	BasePoints       int      `json:"base_points"`
	XPAwarded        int      `json:"xp_awarded"`
	TimeSpentSeconds int      `json:"time_spent_seconds"`
	NewBadges        []string `json:"new_badges"`
	LevelUp          bool     `json:"level_up"`
	Level            int      `json:"level"`
}

func (l *Ledger) now() time.Time {
	if l.Clock == nil {
		return time.Now()
	}
	return l.Clock()
}

// Snapshot returns a deep copy of the current state
func (l *Ledger) Snapshot() GameState {
	return l.State.Clone()
}

// StartSession stamps the session start and rolls the daily counters over
// when the calendar day changed since the last recorded play.
func (l *Ledger) StartSession() {
	now := l.now()
	l.State.SessionStartedAt = &now

	today := now.Format(time.DateOnly)
	if l.State.LastPlayedDate != today {
		l.State.DailyXP = 0
		l.State.LastPlayedDate = today
		l.State.DaysPlayed++
	}
}

// StartTask begins or resumes work on a task. A resumed task keeps its
// hint and solution history so reopening it does not clear the penalty.
func (l *Ledger) StartTask(taskID string) {
	now := l.now()
	l.State.CurrentTaskID = taskID
	l.State.CurrentTaskStartTime = &now
	l.State.CurrentTaskAttempts = 0
	l.State.CurrentHintLevel = 0
	l.State.CurrentSolutionShown = false

	if a, ok := l.State.TaskAttempts[taskID]; ok {
		l.State.CurrentHintLevel = a.HintsUsed
		l.State.CurrentSolutionShown = a.SolutionShown
		return
	}
	l.State.TaskAttempts[taskID] = TaskAttempt{TaskID: taskID, FirstTry: true}
}

// UseHint records that hint level was revealed for taskID
func (l *Ledger) UseHint(taskID string, level int) error {
	if !hint.ValidLevel(level) {
		return fmt.Errorf("%w: %d", domain.ErrInvalidHintLevel, level)
	}
	l.State.CurrentHintLevel = level
	if a, ok := l.State.TaskAttempts[taskID]; ok {
		a.HintsUsed = max(a.HintsUsed, level)
		l.State.TaskAttempts[taskID] = a
	}
	return nil
}

// ShowSolution marks the solution as revealed for taskID
func (l *Ledger) ShowSolution(taskID string) {
	l.State.CurrentSolutionShown = true
	if a, ok := l.State.TaskAttempts[taskID]; ok {
		a.SolutionShown = true
		l.State.TaskAttempts[taskID] = a
	}
}

// RecordAttempt counts a wrong answer and breaks the streak
func (l *Ledger) RecordAttempt(taskID string) {
	l.State.CurrentTaskAttempts++
	l.State.TotalAttempts++

	a, ok := l.State.TaskAttempts[taskID]
	if !ok {
		a = TaskAttempt{TaskID: taskID, FirstTry: true}
	}
	a.Attempts++
	if a.Attempts > 1 {
		a.FirstTry = false
	}
	l.State.TaskAttempts[taskID] = a

	l.State.CurrentStreak = 0
}

// CompleteTask records a correct answer. Only the first completion of a task
// awards XP, moves the streak or unlocks badges. totalTasks and topic feed
// the progress badges; topic may be nil.
func (l *Ledger) CompleteTask(taskID string, difficulty domain.Difficulty, totalTasks int, topic *TopicProgress) Completion {
	now := l.now()
	s := &l.State

	timeSpent := defaultTimeSpentSeconds
	if s.CurrentTaskStartTime != nil {
		timeSpent = max(int(now.Sub(*s.CurrentTaskStartTime)/time.Second), 0)
	}

	a, ok := s.TaskAttempts[taskID]
	if !ok {
		a = TaskAttempt{TaskID: taskID, Attempts: 1, FirstTry: s.CurrentTaskAttempts == 0}
	}

	firstCompletion := !a.Completed
	firstTry := a.FirstTry && s.CurrentTaskAttempts == 0
	hintLevel := s.CurrentHintLevel
	solutionShown := s.CurrentSolutionShown

	result := Completion{
		TaskID:           taskID,
		FirstCompletion:  firstCompletion,
		TimeSpentSeconds: timeSpent,
		NewBadges:        []string{},
		Level:            s.CurrentLevel,
	}

	a.TimeSpentSeconds += timeSpent
	a.HintsUsed = max(a.HintsUsed, hintLevel)
	a.SolutionShown = a.SolutionShown || solutionShown

	if firstCompletion {
		a.Completed = true
		a.CompletedAt = &now
		a.FirstTry = firstTry
		s.TaskAttempts[taskID] = a
		if !s.IsCompleted(taskID) {
			s.CompletedTasks = append(s.CompletedTasks, taskID)
		}

		if solutionShown {
			s.CurrentStreak = 0
		} else {
			s.CurrentStreak++
			s.BestStreak = max(s.BestStreak, s.CurrentStreak)
		}

		base := Points(firstTry, s.CurrentStreak, timeSpent, difficulty)
		awarded := hint.ApplyPenalty(base, hintLevel, solutionShown)
		s.TotalXP += awarded
		s.DailyXP += awarded

		previous := s.CurrentLevel
		s.CurrentLevel = LevelFor(s.TotalXP).Number

		s.CorrectAttempts++
		s.TotalAttempts++
		s.TotalTimeSpentSeconds += timeSpent

		badges := evaluateBadges(s, completionFacts{
			timeSpent:  timeSpent,
			attempts:   a.Attempts,
			hour:       now.Hour(),
			totalTasks: totalTasks,
			topic:      topic,
		})
		s.UnlockedBadges = append(s.UnlockedBadges, badges...)

		result.BasePoints = base
		result.XPAwarded = awarded
		result.NewBadges = append(result.NewBadges, badges...)
		result.LevelUp = s.CurrentLevel > previous
		result.Level = s.CurrentLevel
	} else {
		s.TaskAttempts[taskID] = a
	}

	s.CurrentTaskStartTime = nil
	s.CurrentTaskAttempts = 0
	s.CurrentHintLevel = 0
	s.CurrentSolutionShown = false

	return result
}

// Reset discards all progress and starts a fresh session
func (l *Ledger) Reset() {
	now := l.now()
	l.State = NewState()
	l.State.SessionStartedAt = &now
}
