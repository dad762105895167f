package practice

import (
	"github.com/felixgeelhaar/sqlquest/internal/domain"
	"github.com/felixgeelhaar/sqlquest/internal/game"
	"github.com/felixgeelhaar/sqlquest/internal/oracle"
)

// TaskView is a task as shown to the learner. It never carries the
// reference query.
type TaskView struct {
	ID             string            `json:"id"`
	Title          string            `json:"title,omitempty"`
	Topic          domain.Topic      `json:"topic"`
	Difficulty     domain.Difficulty `json:"difficulty"`
	DatabaseID     string            `json:"database_id"`
	TablesInvolved []string          `json:"tables_involved"`
	Completed      bool              `json:"completed"`
	Attempt        *game.TaskAttempt `json:"attempt,omitempty"`
}

func newTaskView(task *domain.TaskDefinition, state *game.GameState) TaskView {
	v := TaskView{
		ID:             task.ID,
		Title:          task.Title,
		Topic:          task.Topic,
		Difficulty:     task.Difficulty,
		DatabaseID:     task.DatabaseID,
		TablesInvolved: task.TablesInvolved,
	}
	if a, ok := state.TaskAttempts[task.ID]; ok {
		v.Completed = a.Completed
		v.Attempt = &a
	}
	return v
}

// Submission is the answer to one submitted query
type Submission struct {
	Result     *oracle.Result   `json:"result"`
	Feedback   string           `json:"feedback"`
	Completion *game.Completion `json:"completion,omitempty"`
	NextTaskID string           `json:"next_task_id,omitempty"`
}

// Status is the learner's progress summary
type Status struct {
	State          game.GameState `json:"state"`
	Level          game.Level     `json:"level"`
	NextLevelXP    int            `json:"next_level_xp"`
	TotalTasks     int            `json:"total_tasks"`
	CompletedCount int            `json:"completed_count"`
	Badges         []game.Badge   `json:"badges"`
}

func newStatus(state game.GameState, totalTasks int) *Status {
	badges := make([]game.Badge, 0, len(state.UnlockedBadges))
	for _, id := range state.UnlockedBadges {
		if b, ok := game.BadgeByID(id); ok {
			badges = append(badges, b)
		}
	}
	return &Status{
		State:          state,
		Level:          game.LevelInfo(state.CurrentLevel),
		NextLevelXP:    game.NextLevelXP(state.CurrentLevel),
		TotalTasks:     totalTasks,
		CompletedCount: len(state.CompletedTasks),
		Badges:         badges,
	}
}
