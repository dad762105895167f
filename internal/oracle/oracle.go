// Package oracle decides whether a learner query answers a task by running it
// and the task's reference query on freshly seeded databases and comparing
// the results.
package oracle

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/fortify/bulkhead"
	"github.com/felixgeelhaar/sqlquest/internal/domain"
	"github.com/felixgeelhaar/sqlquest/internal/engine"
)

// TaskCatalog resolves task definitions
type TaskCatalog interface {
	Task(id string) (*domain.TaskDefinition, error)
	Tasks() []*domain.TaskDefinition
}

// Provisioner creates seeded database instances
type Provisioner interface {
	Provision(ctx context.Context, databaseID string) (*engine.Instance, error)
}

// Config controls check concurrency
type Config struct {
	// MaxConcurrent bounds checks running at once (default: 4)
	MaxConcurrent int

	// QueueTimeout bounds how long a check waits for a slot (default: 10s)
	QueueTimeout time.Duration
}

// Result is the outcome of one check. Reference is nil when the learner
// query failed, since no comparison took place.
type Result struct {
	TaskID    string               `json:"task_id"`
	Verdict   domain.Verdict       `json:"verdict"`
	Learner   domain.QueryOutcome  `json:"learner"`
	Reference *domain.QueryOutcome `json:"reference,omitempty"`
	Duration  time.Duration        `json:"duration_ns"`
}

// Oracle runs checks. It keeps no state between checks besides the bulkhead.
type Oracle struct {
	tasks    TaskCatalog
	engine   Provisioner
	bulkhead bulkhead.Bulkhead[*Result]
}

// New creates an oracle
func New(tasks TaskCatalog, eng Provisioner, cfg Config) *Oracle {
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	queueTimeout := cfg.QueueTimeout
	if queueTimeout <= 0 {
		queueTimeout = 10 * time.Second
	}

	return &Oracle{
		tasks:  tasks,
		engine: eng,
		bulkhead: bulkhead.New[*Result](bulkhead.Config{
			MaxConcurrent: maxConcurrent,
			MaxQueue:      maxConcurrent * 2,
			QueueTimeout:  queueTimeout,
		}),
	}
}

// Check runs learnerQuery for taskID and returns the verdict. Anything the
// learner caused is reported in the verdict; a returned error always means a
// catalog or internal defect.
func (o *Oracle) Check(ctx context.Context, taskID, learnerQuery string) (*Result, error) {
	return o.bulkhead.Execute(ctx, func(ctx context.Context) (*Result, error) {
		return o.check(ctx, taskID, learnerQuery)
	})
}

func (o *Oracle) check(ctx context.Context, taskID, learnerQuery string) (*Result, error) {
	start := time.Now()

	task, err := o.tasks.Task(taskID)
	if err != nil {
		return nil, err
	}

	learner, err := o.run(ctx, task.DatabaseID, learnerQuery)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("check %s: %w", taskID, err)
	}

	result := &Result{TaskID: task.ID, Learner: learner}
	if learner.Failed() {
		result.Verdict = domain.ExecutionError(NormalizeError(learner.ErrorMessage))
		result.Duration = time.Since(start)
		slog.Debug("check finished", "task_id", task.ID, "verdict", result.Verdict.String(), "duration", result.Duration)
		return result, nil
	}

	// The reference gets its own instance so that whatever the learner
	// query changed cannot leak into it.
	reference, err := o.run(ctx, task.DatabaseID, task.ReferenceQuery)
	if err != nil {
		return nil, err
	}
	if reference.Failed() {
		return nil, fmt.Errorf("%w: task %s: %s", domain.ErrReferenceFailed, task.ID, reference.ErrorMessage)
	}

	result.Reference = &reference
	result.Verdict = Compare(learner, reference)
	result.Duration = time.Since(start)

	slog.Debug("check finished", "task_id", task.ID, "verdict", result.Verdict.String(), "duration", result.Duration)
	return result, nil
}

// run executes query on a fresh instance that is always disposed
func (o *Oracle) run(ctx context.Context, databaseID, query string) (domain.QueryOutcome, error) {
	in, err := o.engine.Provision(ctx, databaseID)
	if err != nil {
		return domain.QueryOutcome{}, err
	}
	defer func() {
		if err := in.Close(); err != nil {
			slog.Warn("failed to dispose instance", "instance_id", in.ID, "error", err)
		}
	}()

	return in.Execute(ctx, query), nil
}
