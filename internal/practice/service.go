// Package practice runs a learner's practice session: it starts tasks,
// checks submissions through the oracle, reveals hints and solutions and
// keeps the progress ledger persisted.
package practice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/felixgeelhaar/fortify/ratelimit"
	"github.com/felixgeelhaar/fortify/retry"
	"github.com/felixgeelhaar/sqlquest/internal/domain"
	"github.com/felixgeelhaar/sqlquest/internal/game"
	"github.com/felixgeelhaar/sqlquest/internal/hint"
)

// DefaultLearnerID keys progress when no learner is configured
const DefaultLearnerID = "local"

// Config controls a practice service
type Config struct {
	// LearnerID keys persisted progress (default: "local")
	LearnerID string

	// SubmissionsPerMinute bounds checks per learner (default: 30)
	SubmissionsPerMinute int

	// Clock overrides time.Now for the ledger
	Clock func() time.Time
}

// Service is one learner's session. All ledger access is serialised.
type Service struct {
	tasks     TaskCatalog
	checker   Checker
	advisor   *hint.Advisor
	store     ProgressStore
	history   HistoryRecorder
	learnerID string

	limiter ratelimit.RateLimiter
	retrier retry.Retry[struct{}]

	mu     sync.Mutex
	ledger *game.Ledger
}

// New creates a service and restores saved progress. store may be nil for a
// memory-only session.
func New(ctx context.Context, tasks TaskCatalog, checker Checker, store ProgressStore, cfg Config) (*Service, error) {
	learnerID := cfg.LearnerID
	if learnerID == "" {
		learnerID = DefaultLearnerID
	}
	perMinute := cfg.SubmissionsPerMinute
	if perMinute <= 0 {
		perMinute = 30
	}

	state := game.NewState()
	if store != nil {
		saved, err := store.Load(ctx, learnerID)
		switch {
		case err == nil:
			state = *saved
			if err := state.Validate(); err != nil {
				slog.Warn("saved progress breaks ledger invariants", "learner_id", learnerID, "error", err)
			}
		case errors.Is(err, domain.ErrProgressNotFound):
			slog.Debug("no saved progress", "learner_id", learnerID)
		default:
			return nil, fmt.Errorf("load progress: %w", err)
		}
	}

	ledger := game.NewLedger(state)
	if cfg.Clock != nil {
		ledger.Clock = cfg.Clock
	}

	return &Service{
		tasks:     tasks,
		checker:   checker,
		advisor:   hint.NewAdvisor(tasks),
		store:     store,
		learnerID: learnerID,
		limiter: ratelimit.New(&ratelimit.Config{
			Rate:     perMinute,
			Burst:    perMinute,
			Interval: time.Minute,
		}),
		retrier: retry.New[struct{}](retry.Config{
			MaxAttempts:   3,
			InitialDelay:  50 * time.Millisecond,
			MaxDelay:      time.Second,
			Multiplier:    2.0,
			BackoffPolicy: retry.BackoffExponential,
			Jitter:        true,
			IsRetryable:   isBusy,
		}),
		ledger: ledger,
	}, nil
}

// SetHistory attaches a submission log
func (s *Service) SetHistory(h HistoryRecorder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = h
}

// Close releases the rate limiter
func (s *Service) Close() error {
	return s.limiter.Close()
}

// LearnerID returns the key progress is saved under
func (s *Service) LearnerID() string {
	return s.learnerID
}

// StartSession marks the beginning of a practice session
func (s *Service) StartSession(ctx context.Context) (*Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ledger.StartSession()
	if err := s.persist(ctx); err != nil {
		return nil, err
	}
	slog.Info("session started", "learner_id", s.learnerID, "days_played", s.ledger.State.DaysPlayed)
	return newStatus(s.ledger.Snapshot(), s.tasks.Len()), nil
}

// Task returns one task as the learner sees it
func (s *Service) Task(taskID string) (*TaskView, error) {
	task, err := s.tasks.Task(taskID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	v := newTaskView(task, &s.ledger.State)
	return &v, nil
}

// Tasks lists every task in catalog order with the learner's progress
func (s *Service) Tasks() []TaskView {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := s.tasks.Tasks()
	views := make([]TaskView, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, newTaskView(t, &s.ledger.State))
	}
	return views
}

// StartTask begins or resumes work on a task
func (s *Service) StartTask(ctx context.Context, taskID string) (*TaskView, error) {
	task, err := s.tasks.Task(taskID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.ledger.StartTask(task.ID)
	if err := s.persist(ctx); err != nil {
		return nil, err
	}
	slog.Debug("task started", "task_id", task.ID, "hint_level", s.ledger.State.CurrentHintLevel)
	v := newTaskView(task, &s.ledger.State)
	return &v, nil
}

// Submit checks query against taskID and records the outcome. A correct
// answer completes the task; anything else, including a query the engine
// rejected, counts as a wrong attempt.
func (s *Service) Submit(ctx context.Context, taskID, query string) (*Submission, error) {
	task, err := s.tasks.Task(taskID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is empty", domain.ErrInvalidInput)
	}
	if !s.limiter.Allow(ctx, s.learnerID) {
		return nil, fmt.Errorf("%w: learner %s", domain.ErrRateLimited, s.learnerID)
	}

	result, err := s.checker.Check(ctx, task.ID, query)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ledger.State.CurrentTaskID != task.ID {
		s.ledger.StartTask(task.ID)
	}

	sub := &Submission{Result: result, Feedback: result.Verdict.Feedback()}
	if result.Verdict.IsCorrect() {
		progress := s.topicProgress(task)
		completion := s.ledger.CompleteTask(task.ID, task.Difficulty, s.tasks.Len(), &progress)
		sub.Completion = &completion

		next, err := s.tasks.Next(task.ID)
		if err != nil {
			return nil, err
		}
		if next != nil {
			sub.NextTaskID = next.ID
		}

		slog.Info("task completed",
			"task_id", task.ID,
			"first_completion", completion.FirstCompletion,
			"xp", completion.XPAwarded,
			"badges", completion.NewBadges,
			"level", completion.Level)
	} else {
		s.ledger.RecordAttempt(task.ID)
		slog.Debug("wrong attempt", "task_id", task.ID, "verdict", result.Verdict.String())
	}

	if err := s.persist(ctx); err != nil {
		return nil, err
	}
	s.record(ctx, task.ID, query, sub)
	return sub, nil
}

// RevealHint returns hint level for taskID and charges its penalty
func (s *Service) RevealHint(ctx context.Context, taskID string, level int) (hint.Hint, error) {
	h, err := s.advisor.Hint(taskID, level)
	if err != nil {
		return hint.Hint{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ledger.State.CurrentTaskID != taskID {
		s.ledger.StartTask(taskID)
	}
	if err := s.ledger.UseHint(taskID, level); err != nil {
		return hint.Hint{}, err
	}
	if err := s.persist(ctx); err != nil {
		return hint.Hint{}, err
	}
	slog.Debug("hint revealed", "task_id", taskID, "level", level)
	return h, nil
}

// RevealSolution returns the reference query. Completing the task afterwards
// earns no XP.
func (s *Service) RevealSolution(ctx context.Context, taskID string) (string, error) {
	task, err := s.tasks.Task(taskID)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ledger.State.CurrentTaskID != task.ID {
		s.ledger.StartTask(task.ID)
	}
	s.ledger.ShowSolution(task.ID)
	if err := s.persist(ctx); err != nil {
		return "", err
	}
	slog.Debug("solution revealed", "task_id", task.ID)
	return task.ReferenceQuery, nil
}

// State returns the learner's progress
func (s *Service) State(ctx context.Context) *Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return newStatus(s.ledger.Snapshot(), s.tasks.Len())
}

// Reset discards all progress
func (s *Service) Reset(ctx context.Context) (*Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ledger.Reset()
	if err := s.persist(ctx); err != nil {
		return nil, err
	}
	slog.Info("progress reset", "learner_id", s.learnerID)
	return newStatus(s.ledger.Snapshot(), s.tasks.Len()), nil
}

// Snapshot returns a copy of the learner's progress
func (s *Service) Snapshot() game.GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Snapshot()
}

// Import merges progress saved elsewhere into the current state. The
// snapshot must satisfy the ledger invariants.
func (s *Service) Import(ctx context.Context, snapshot *game.GameState) (*Status, error) {
	if err := snapshot.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.ledger.State = game.Merge(s.ledger.Snapshot(), *snapshot)
	if err := s.persist(ctx); err != nil {
		return nil, err
	}
	slog.Info("progress imported",
		"learner_id", s.learnerID,
		"total_xp", s.ledger.State.TotalXP,
		"completed", len(s.ledger.State.CompletedTasks))
	return newStatus(s.ledger.Snapshot(), s.tasks.Len()), nil
}

// NextTask returns the task after taskID, or nil after the last one
func (s *Service) NextTask(taskID string) (*TaskView, error) {
	next, err := s.tasks.Next(taskID)
	if err != nil || next == nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	v := newTaskView(next, &s.ledger.State)
	return &v, nil
}

// topicProgress counts the topic's completed tasks including task itself.
// Caller holds mu.
func (s *Service) topicProgress(task *domain.TaskDefinition) game.TopicProgress {
	ids := s.tasks.TopicTaskIDs(task.Topic)
	done := 0
	for _, id := range ids {
		if id == task.ID || s.ledger.State.IsCompleted(id) {
			done++
		}
	}
	return game.TopicProgress{Topic: task.Topic, Total: len(ids), Completed: done}
}

// persist saves a snapshot. Caller holds mu.
func (s *Service) persist(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	snapshot := s.ledger.Snapshot()
	_, err := s.retrier.Do(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.store.Save(ctx, s.learnerID, &snapshot)
	})
	if err != nil {
		slog.Error("failed to save progress", "learner_id", s.learnerID, "error", err)
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

// record logs the submission. Caller holds mu.
func (s *Service) record(ctx context.Context, taskID, query string, sub *Submission) {
	if s.history == nil {
		return
	}
	xp := 0
	if sub.Completion != nil {
		xp = sub.Completion.XPAwarded
	}
	if err := s.history.RecordSubmission(ctx, s.learnerID, taskID, query, sub.Result.Verdict, xp, sub.Result.Duration); err != nil {
		slog.Warn("failed to record submission", "task_id", taskID, "error", err)
	}
}

// isBusy reports whether a store error is SQLite lock contention
func isBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "database is busy")
}
