package practice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/felixgeelhaar/sqlquest/internal/catalog"
	"github.com/felixgeelhaar/sqlquest/internal/domain"
	"github.com/felixgeelhaar/sqlquest/internal/game"
	"github.com/felixgeelhaar/sqlquest/internal/oracle"
)

const firstTask = "select_all_artists"

// stubChecker accepts a task's reference query verbatim, reports any query
// mentioning "nope" as an engine error and everything else as wrong.
type stubChecker struct {
	tasks *catalog.Catalog
	calls int
}

func (c *stubChecker) Check(_ context.Context, taskID, query string) (*oracle.Result, error) {
	c.calls++
	task, err := c.tasks.Task(taskID)
	if err != nil {
		return nil, err
	}
	r := &oracle.Result{TaskID: taskID}
	switch {
	case query == task.ReferenceQuery:
		r.Verdict = domain.Correct()
	case strings.Contains(query, "nope"):
		r.Verdict = domain.ExecutionError("no such table: nope")
	default:
		r.Verdict = domain.Incorrect(domain.ReasonRowCountMismatch, "Wrong number of rows. Expected 8 rows, got 1 rows")
	}
	return r, nil
}

type memStore struct {
	mu     sync.Mutex
	states map[string]game.GameState
	saves  int
	fail   error
}

func newMemStore() *memStore {
	return &memStore{states: make(map[string]game.GameState)}
}

func (m *memStore) Load(_ context.Context, learnerID string) (*game.GameState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.states[learnerID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrProgressNotFound, learnerID)
	}
	c := s.Clone()
	return &c, nil
}

func (m *memStore) Save(_ context.Context, learnerID string, state *game.GameState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.saves++
	m.states[learnerID] = state.Clone()
	return nil
}

func noon() time.Time {
	return time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local)
}

func newTestService(t *testing.T, store ProgressStore, cfg Config) (*Service, *stubChecker, *catalog.Catalog) {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog.Default() error: %v", err)
	}
	if cfg.Clock == nil {
		cfg.Clock = noon
	}
	checker := &stubChecker{tasks: cat}
	svc, err := New(context.Background(), cat, checker, store, cfg)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(func() { svc.Close() })
	return svc, checker, cat
}

func reference(t *testing.T, cat *catalog.Catalog, id string) string {
	t.Helper()
	task, err := cat.Task(id)
	if err != nil {
		t.Fatalf("Task(%s) error: %v", id, err)
	}
	return task.ReferenceQuery
}

func TestSubmit_Correct(t *testing.T) {
	ctx := context.Background()
	svc, _, cat := newTestService(t, nil, Config{})

	if _, err := svc.StartTask(ctx, firstTask); err != nil {
		t.Fatalf("StartTask() error: %v", err)
	}
	sub, err := svc.Submit(ctx, firstTask, reference(t, cat, firstTask))
	if err != nil {
		t.Fatalf("Submit() error: %v", err)
	}

	if !sub.Result.Verdict.IsCorrect() {
		t.Fatalf("Verdict = %s, want CORRECT", sub.Result.Verdict)
	}
	if sub.Feedback != "Correct!" {
		t.Errorf("Feedback = %q", sub.Feedback)
	}
	if sub.Completion == nil || !sub.Completion.FirstCompletion {
		t.Fatalf("Completion = %+v, want first completion", sub.Completion)
	}
	// 10 base + 5 first try + 1 streak + 5 speed with no time elapsed
	if sub.Completion.XPAwarded != 21 {
		t.Errorf("XPAwarded = %d, want 21", sub.Completion.XPAwarded)
	}
	if sub.NextTaskID != "select_all_invoices" {
		t.Errorf("NextTaskID = %q, want select_all_invoices", sub.NextTaskID)
	}

	status := svc.State(ctx)
	if status.CompletedCount != 1 || status.State.TotalXP != 21 {
		t.Errorf("status = %d completed, %d XP", status.CompletedCount, status.State.TotalXP)
	}
	if status.TotalTasks != cat.Len() {
		t.Errorf("TotalTasks = %d, want %d", status.TotalTasks, cat.Len())
	}
	if len(status.Badges) == 0 || status.Badges[0].ID != game.BadgeFirstQuery {
		t.Errorf("Badges = %+v, want first_query first", status.Badges)
	}
}

func TestSubmit_WrongAndErrorCountAsAttempts(t *testing.T) {
	ctx := context.Background()
	svc, _, cat := newTestService(t, nil, Config{})

	sub, err := svc.Submit(ctx, firstTask, "SELECT 1")
	if err != nil {
		t.Fatalf("Submit() error: %v", err)
	}
	if sub.Result.Verdict.Status != domain.StatusIncorrect || sub.Completion != nil {
		t.Errorf("wrong answer: verdict %s, completion %+v", sub.Result.Verdict, sub.Completion)
	}

	sub, err = svc.Submit(ctx, firstTask, "SELECT * FROM nope")
	if err != nil {
		t.Fatalf("Submit() error: %v", err)
	}
	if sub.Result.Verdict.Status != domain.StatusExecutionError {
		t.Errorf("Verdict = %s, want EXECUTION_ERROR", sub.Result.Verdict)
	}
	if sub.Feedback != "no such table: nope" {
		t.Errorf("Feedback = %q", sub.Feedback)
	}

	status := svc.State(ctx)
	if got := status.State.TaskAttempts[firstTask].Attempts; got != 2 {
		t.Errorf("Attempts = %d, want 2", got)
	}

	sub, err = svc.Submit(ctx, firstTask, reference(t, cat, firstTask))
	if err != nil {
		t.Fatalf("Submit() error: %v", err)
	}
	// no first-try bonus: 10 + 1 streak + 5 speed
	if sub.Completion.XPAwarded != 16 {
		t.Errorf("XPAwarded = %d, want 16", sub.Completion.XPAwarded)
	}
}

func TestRevealHint_AppliesPenalty(t *testing.T) {
	ctx := context.Background()
	svc, _, cat := newTestService(t, nil, Config{})

	h, err := svc.RevealHint(ctx, firstTask, 1)
	if err != nil {
		t.Fatalf("RevealHint() error: %v", err)
	}
	if h.Level != 1 || h.PenaltyPercent != 25 || h.Text == "" {
		t.Errorf("hint = %+v", h)
	}

	sub, err := svc.Submit(ctx, firstTask, reference(t, cat, firstTask))
	if err != nil {
		t.Fatalf("Submit() error: %v", err)
	}
	// 21 * 75%
	if sub.Completion.XPAwarded != 15 {
		t.Errorf("XPAwarded = %d, want 15", sub.Completion.XPAwarded)
	}
}

func TestRevealHint_InvalidLevel(t *testing.T) {
	svc, _, _ := newTestService(t, nil, Config{})

	_, err := svc.RevealHint(context.Background(), firstTask, 4)
	if !errors.Is(err, domain.ErrInvalidHintLevel) {
		t.Errorf("RevealHint(4) error = %v, want ErrInvalidHintLevel", err)
	}
}

func TestRevealSolution(t *testing.T) {
	ctx := context.Background()
	svc, _, cat := newTestService(t, nil, Config{})

	solution, err := svc.RevealSolution(ctx, firstTask)
	if err != nil {
		t.Fatalf("RevealSolution() error: %v", err)
	}
	if solution != reference(t, cat, firstTask) {
		t.Errorf("solution = %q", solution)
	}

	sub, err := svc.Submit(ctx, firstTask, solution)
	if err != nil {
		t.Fatalf("Submit() error: %v", err)
	}
	if sub.Completion.XPAwarded != 0 {
		t.Errorf("XPAwarded = %d, want 0 after solution", sub.Completion.XPAwarded)
	}
	if svc.State(ctx).State.CurrentStreak != 0 {
		t.Error("streak should stay 0 after a revealed solution")
	}
}

func TestSubmit_Validation(t *testing.T) {
	ctx := context.Background()
	svc, checker, _ := newTestService(t, nil, Config{})

	if _, err := svc.Submit(ctx, "no_such_task", "SELECT 1"); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Errorf("unknown task error = %v, want ErrTaskNotFound", err)
	}
	if _, err := svc.Submit(ctx, firstTask, "   "); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("empty query error = %v, want ErrInvalidInput", err)
	}
	if checker.calls != 0 {
		t.Errorf("checker called %d times for invalid submissions", checker.calls)
	}
}

func TestSubmit_RateLimited(t *testing.T) {
	ctx := context.Background()
	svc, checker, _ := newTestService(t, nil, Config{SubmissionsPerMinute: 2})

	for i := range 2 {
		if _, err := svc.Submit(ctx, firstTask, "SELECT 1"); err != nil {
			t.Fatalf("submission %d error: %v", i+1, err)
		}
	}
	_, err := svc.Submit(ctx, firstTask, "SELECT 1")
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Errorf("third submission error = %v, want ErrRateLimited", err)
	}
	if checker.calls != 2 {
		t.Errorf("checker calls = %d, want 2", checker.calls)
	}
}

func TestService_PersistsAndRestores(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc, _, cat := newTestService(t, store, Config{LearnerID: "ada"})

	if _, err := svc.StartSession(ctx); err != nil {
		t.Fatalf("StartSession() error: %v", err)
	}
	if _, err := svc.Submit(ctx, firstTask, reference(t, cat, firstTask)); err != nil {
		t.Fatalf("Submit() error: %v", err)
	}
	if store.saves < 2 {
		t.Errorf("saves = %d, want at least 2", store.saves)
	}

	restored, _, _ := newTestService(t, store, Config{LearnerID: "ada"})
	status := restored.State(ctx)
	if !status.State.IsCompleted(firstTask) {
		t.Error("restored state lost the completion")
	}
	if status.State.TotalXP != 21 {
		t.Errorf("restored TotalXP = %d, want 21", status.State.TotalXP)
	}

	other, _, _ := newTestService(t, store, Config{LearnerID: "grace"})
	if other.State(ctx).State.TotalXP != 0 {
		t.Error("another learner should start fresh")
	}
}

func TestService_SaveFailure(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc, _, _ := newTestService(t, store, Config{})

	store.fail = errors.New("disk full")
	_, err := svc.StartTask(ctx, firstTask)
	if err == nil || !strings.Contains(err.Error(), "save progress") {
		t.Errorf("StartTask() error = %v, want save progress failure", err)
	}
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	svc, _, cat := newTestService(t, newMemStore(), Config{})

	if _, err := svc.Submit(ctx, firstTask, reference(t, cat, firstTask)); err != nil {
		t.Fatalf("Submit() error: %v", err)
	}
	status, err := svc.Reset(ctx)
	if err != nil {
		t.Fatalf("Reset() error: %v", err)
	}
	if status.State.TotalXP != 0 || status.CompletedCount != 0 {
		t.Errorf("after reset: %d XP, %d completed", status.State.TotalXP, status.CompletedCount)
	}
}

func TestTasksAndNext(t *testing.T) {
	ctx := context.Background()
	svc, _, cat := newTestService(t, nil, Config{})

	if _, err := svc.Submit(ctx, firstTask, reference(t, cat, firstTask)); err != nil {
		t.Fatalf("Submit() error: %v", err)
	}

	views := svc.Tasks()
	if len(views) != cat.Len() {
		t.Fatalf("Tasks() = %d views, want %d", len(views), cat.Len())
	}
	if views[0].ID != firstTask || !views[0].Completed {
		t.Errorf("first view = %+v", views[0])
	}
	if views[1].Completed || views[1].Attempt != nil {
		t.Errorf("second view = %+v", views[1])
	}

	next, err := svc.NextTask(firstTask)
	if err != nil || next == nil || next.ID != views[1].ID {
		t.Errorf("NextTask() = %+v, %v", next, err)
	}

	last := views[len(views)-1].ID
	next, err = svc.NextTask(last)
	if err != nil || next != nil {
		t.Errorf("NextTask(last) = %+v, %v; want nil", next, err)
	}
}

type recordedSubmission struct {
	taskID string
	status domain.VerdictStatus
	xp     int
}

type fakeHistory struct {
	records []recordedSubmission
}

func (h *fakeHistory) RecordSubmission(_ context.Context, _, taskID, _ string, verdict domain.Verdict, xp int, _ time.Duration) error {
	h.records = append(h.records, recordedSubmission{taskID: taskID, status: verdict.Status, xp: xp})
	return nil
}

func TestSubmit_RecordsHistory(t *testing.T) {
	ctx := context.Background()
	svc, _, cat := newTestService(t, nil, Config{})
	history := &fakeHistory{}
	svc.SetHistory(history)

	if _, err := svc.Submit(ctx, firstTask, "SELECT 1"); err != nil {
		t.Fatalf("Submit() error: %v", err)
	}
	if _, err := svc.Submit(ctx, firstTask, reference(t, cat, firstTask)); err != nil {
		t.Fatalf("Submit() error: %v", err)
	}

	want := []recordedSubmission{
		{firstTask, domain.StatusIncorrect, 0},
		{firstTask, domain.StatusCorrect, 16},
	}
	if len(history.records) != len(want) {
		t.Fatalf("records = %+v, want %+v", history.records, want)
	}
	for i := range want {
		if history.records[i] != want[i] {
			t.Errorf("record %d = %+v, want %+v", i, history.records[i], want[i])
		}
	}
}

func TestImport_MergesSnapshot(t *testing.T) {
	ctx := context.Background()
	laptop, _, cat := newTestService(t, nil, Config{})
	if _, err := laptop.Submit(ctx, firstTask, reference(t, cat, firstTask)); err != nil {
		t.Fatalf("Submit() error: %v", err)
	}
	snapshot := laptop.Snapshot()

	store := newMemStore()
	desktop, _, _ := newTestService(t, store, Config{})
	if _, err := desktop.Submit(ctx, "select_all_invoices", reference(t, cat, "select_all_invoices")); err != nil {
		t.Fatalf("Submit() error: %v", err)
	}
	xp := desktop.State(ctx).State.TotalXP

	status, err := desktop.Import(ctx, &snapshot)
	if err != nil {
		t.Fatalf("Import() error: %v", err)
	}
	if status.CompletedCount != 2 {
		t.Errorf("CompletedCount = %d, want 2", status.CompletedCount)
	}
	if want := max(xp, snapshot.TotalXP); status.State.TotalXP != want {
		t.Errorf("TotalXP = %d, want %d", status.State.TotalXP, want)
	}
	if err := status.State.Validate(); err != nil {
		t.Errorf("merged state invalid: %v", err)
	}

	saved, err := store.Load(ctx, DefaultLearnerID)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !saved.IsCompleted(firstTask) {
		t.Error("merged progress was not persisted")
	}
}

func TestImport_RejectsInvalidSnapshot(t *testing.T) {
	svc, _, _ := newTestService(t, nil, Config{})

	bad := game.NewState()
	bad.TotalXP = 500
	bad.CurrentLevel = 1

	_, err := svc.Import(context.Background(), &bad)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("Import() error = %v, want ErrInvalidInput", err)
	}
	if svc.State(context.Background()).State.TotalXP != 0 {
		t.Error("rejected snapshot must not change progress")
	}
}
