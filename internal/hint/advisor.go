package hint

import (
	"fmt"

	"github.com/felixgeelhaar/sqlquest/internal/domain"
)

// TaskLookup resolves task definitions
type TaskLookup interface {
	Task(id string) (*domain.TaskDefinition, error)
}

// Advisor serves hints by task id
type Advisor struct {
	tasks TaskLookup
}

// NewAdvisor creates an advisor over tasks
func NewAdvisor(tasks TaskLookup) *Advisor {
	return &Advisor{tasks: tasks}
}

// HintsFor returns all three hints of a task
func (a *Advisor) HintsFor(taskID string) ([]Hint, error) {
	task, err := a.tasks.Task(taskID)
	if err != nil {
		return nil, err
	}
	return For(task), nil
}

// Hint returns one hint of a task
func (a *Advisor) Hint(taskID string, level int) (Hint, error) {
	if !ValidLevel(level) {
		return Hint{}, fmt.Errorf("%w: %d", domain.ErrInvalidHintLevel, level)
	}
	hints, err := a.HintsFor(taskID)
	if err != nil {
		return Hint{}, err
	}
	return hints[level-1], nil
}
