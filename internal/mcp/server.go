package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	mcp "github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/mcp-go/server"
	"github.com/felixgeelhaar/sqlquest/internal/domain"
	"github.com/felixgeelhaar/sqlquest/internal/hint"
	"github.com/felixgeelhaar/sqlquest/internal/practice"
)

// Practice is the learner-facing service the tools drive
type Practice interface {
	Tasks() []practice.TaskView
	StartTask(ctx context.Context, taskID string) (*practice.TaskView, error)
	Submit(ctx context.Context, taskID, query string) (*practice.Submission, error)
	RevealHint(ctx context.Context, taskID string, level int) (hint.Hint, error)
	RevealSolution(ctx context.Context, taskID string) (string, error)
	State(ctx context.Context) *practice.Status
}

// Schemas resolves the tables visible in a task's database
type Schemas interface {
	Schema(id string) ([]domain.TableMeta, error)
}

// Server wraps the MCP server with SQLQuest functionality
type Server struct {
	mcpServer *server.Server
	practice  Practice
	schemas   Schemas
}

// Config contains configuration for the MCP server
type Config struct {
	Version  string
	Practice Practice
	Schemas  Schemas
}

// previewRows caps the result rows echoed back to the assistant
const previewRows = 10

// NewServer creates a new MCP server for SQLQuest
func NewServer(cfg Config) *Server {
	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	s := &Server{
		practice: cfg.Practice,
		schemas:  cfg.Schemas,
	}

	s.mcpServer = server.New(server.Info{
		Name:    "sqlquest",
		Version: version,
	}, server.WithInstructions(`
SQLQuest is a SQL practice trainer. Each task names a seed database and is
checked by running the learner's query next to a hidden reference query.

Available tools:
- sqlquest_tasks: List tasks with their completion state
- sqlquest_start: Start a task and show its schema
- sqlquest_check: Check a query against the task
- sqlquest_hint: Reveal hint level 1-3 (costs 25/50/75% of the task XP)
- sqlquest_solution: Reveal the reference query (the task then earns no XP)
- sqlquest_status: Show XP, level, streak and badges

Prefer hints over the solution, and lower hint levels over higher ones.
`))

	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	s.mcpServer.Tool("sqlquest_tasks").
		Description("List SQLQuest tasks, optionally filtered by topic.").
		Handler(s.handleTasks)

	s.mcpServer.Tool("sqlquest_start").
		Description("Start a task. Returns the task and the schema of its database.").
		Handler(s.handleStart)

	s.mcpServer.Tool("sqlquest_check").
		Description("Check a SQL query against a task's reference query.").
		Handler(s.handleCheck)

	s.mcpServer.Tool("sqlquest_hint").
		Description("Reveal a hint for a task. Higher levels cost more XP.").
		Handler(s.handleHint)

	s.mcpServer.Tool("sqlquest_solution").
		Description("Reveal the reference query. Completing the task afterwards earns no XP.").
		Handler(s.handleSolution)

	s.mcpServer.Tool("sqlquest_status").
		Description("Get the learner's XP, level, streak and badges.").
		Handler(s.handleStatus)
}

// Input/Output types for tools

type TasksInput struct {
	Topic string `json:"topic,omitempty" jsonschema:"description=Only list tasks of this topic,enum=select,enum=aggregate,enum=groupBy,enum=join,enum=subquery,enum=cte,enum=window,enum=advanced"`
}

type TaskSummary struct {
	ID         string `json:"id"`
	Title      string `json:"title,omitempty"`
	Topic      string `json:"topic"`
	Difficulty string `json:"difficulty"`
	Completed  bool   `json:"completed"`
}

type TasksOutput struct {
	Tasks     []TaskSummary `json:"tasks"`
	Completed int           `json:"completed"`
	Total     int           `json:"total"`
}

type TaskInput struct {
	TaskID string `json:"task_id" jsonschema:"description=Task ID from sqlquest_tasks"`
}

type StartOutput struct {
	Task   practice.TaskView  `json:"task"`
	Schema []domain.TableMeta `json:"schema"`
}

type CheckInput struct {
	TaskID string `json:"task_id" jsonschema:"description=Task ID from sqlquest_tasks"`
	Query  string `json:"query" jsonschema:"description=SQL text to check; may hold several statements"`
}

type CheckOutput struct {
	Status     string     `json:"status"`
	Reason     string     `json:"reason,omitempty"`
	Feedback   string     `json:"feedback"`
	Columns    []string   `json:"columns,omitempty"`
	Rows       [][]string `json:"rows,omitempty"`
	RowCount   int        `json:"row_count"`
	XPAwarded  int        `json:"xp_awarded"`
	NewBadges  []string   `json:"new_badges,omitempty"`
	LevelUp    bool       `json:"level_up,omitempty"`
	NextTaskID string     `json:"next_task_id,omitempty"`
}

type HintInput struct {
	TaskID string `json:"task_id" jsonschema:"description=Task ID from sqlquest_tasks"`
	Level  int    `json:"level" jsonschema:"description=Hint level,minimum=1,maximum=3"`
}

type HintOutput struct {
	Level        int    `json:"level"`
	Text         string `json:"text"`
	XPMultiplier int    `json:"xp_multiplier_percent"`
}

type SolutionOutput struct {
	TaskID   string `json:"task_id"`
	Solution string `json:"solution"`
}

type StatusInput struct{}

type StatusOutput struct {
	TotalXP       int      `json:"total_xp"`
	Level         int      `json:"level"`
	LevelName     string   `json:"level_name"`
	NextLevelXP   int      `json:"next_level_xp"`
	CurrentStreak int      `json:"current_streak"`
	BestStreak    int      `json:"best_streak"`
	Completed     int      `json:"completed"`
	Total         int      `json:"total"`
	Badges        []string `json:"badges"`
}

// Tool handlers

func (s *Server) handleTasks(ctx context.Context, input TasksInput) (TasksOutput, error) {
	topic := domain.Topic(input.Topic)
	if topic != "" && !topic.Valid() {
		return TasksOutput{}, fmt.Errorf("%w: unknown topic %q", domain.ErrInvalidInput, input.Topic)
	}

	all := s.practice.Tasks()
	out := TasksOutput{Tasks: []TaskSummary{}, Total: len(all)}
	for _, t := range all {
		if t.Completed {
			out.Completed++
		}
		if topic != "" && t.Topic != topic {
			continue
		}
		out.Tasks = append(out.Tasks, TaskSummary{
			ID:         t.ID,
			Title:      t.Title,
			Topic:      string(t.Topic),
			Difficulty: string(t.Difficulty),
			Completed:  t.Completed,
		})
	}
	return out, nil
}

func (s *Server) handleStart(ctx context.Context, input TaskInput) (StartOutput, error) {
	task, err := s.practice.StartTask(ctx, input.TaskID)
	if err != nil {
		return StartOutput{}, fmt.Errorf("failed to start task: %w", err)
	}

	out := StartOutput{Task: *task}
	if s.schemas != nil {
		schema, err := s.schemas.Schema(task.DatabaseID)
		if err != nil {
			return StartOutput{}, fmt.Errorf("failed to load schema: %w", err)
		}
		out.Schema = schema
	}
	return out, nil
}

func (s *Server) handleCheck(ctx context.Context, input CheckInput) (CheckOutput, error) {
	sub, err := s.practice.Submit(ctx, input.TaskID, input.Query)
	if err != nil {
		return CheckOutput{}, fmt.Errorf("check failed: %w", err)
	}

	v := sub.Result.Verdict
	out := CheckOutput{
		Status:     string(v.Status),
		Reason:     string(v.Reason),
		Feedback:   sub.Feedback,
		Columns:    sub.Result.Learner.Columns,
		RowCount:   sub.Result.Learner.RowCount(),
		NextTaskID: sub.NextTaskID,
	}
	for i, row := range sub.Result.Learner.Rows {
		if i == previewRows {
			break
		}
		cells := make([]string, len(row))
		for j, cell := range row {
			cells[j] = cell.String()
		}
		out.Rows = append(out.Rows, cells)
	}
	if c := sub.Completion; c != nil {
		out.XPAwarded = c.XPAwarded
		out.NewBadges = c.NewBadges
		out.LevelUp = c.LevelUp
	}
	slog.Debug("mcp check", "task_id", input.TaskID, "result", summarize(out))
	return out, nil
}

func (s *Server) handleHint(ctx context.Context, input HintInput) (HintOutput, error) {
	h, err := s.practice.RevealHint(ctx, input.TaskID, input.Level)
	if err != nil {
		return HintOutput{}, fmt.Errorf("failed to reveal hint: %w", err)
	}
	return HintOutput{
		Level:        h.Level,
		Text:         h.Text,
		XPMultiplier: hint.XPMultiplierPercent(h.Level, false),
	}, nil
}

func (s *Server) handleSolution(ctx context.Context, input TaskInput) (SolutionOutput, error) {
	solution, err := s.practice.RevealSolution(ctx, input.TaskID)
	if err != nil {
		return SolutionOutput{}, fmt.Errorf("failed to reveal solution: %w", err)
	}
	return SolutionOutput{TaskID: input.TaskID, Solution: solution}, nil
}

func (s *Server) handleStatus(ctx context.Context, input StatusInput) (StatusOutput, error) {
	st := s.practice.State(ctx)

	badges := make([]string, 0, len(st.Badges))
	for _, b := range st.Badges {
		badges = append(badges, b.Name)
	}
	return StatusOutput{
		TotalXP:       st.State.TotalXP,
		Level:         st.Level.Number,
		LevelName:     st.Level.Name,
		NextLevelXP:   st.NextLevelXP,
		CurrentStreak: st.State.CurrentStreak,
		BestStreak:    st.State.BestStreak,
		Completed:     st.CompletedCount,
		Total:         st.TotalTasks,
		Badges:        badges,
	}, nil
}

// summarize renders a check result as one log line
func summarize(out CheckOutput) string {
	var b strings.Builder
	b.WriteString(out.Status)
	if out.Reason != "" {
		fmt.Fprintf(&b, " (%s)", out.Reason)
	}
	if out.XPAwarded > 0 {
		fmt.Fprintf(&b, " +%d XP", out.XPAwarded)
	}
	return b.String()
}

// ServeStdio starts the MCP server on stdio
func (s *Server) ServeStdio(ctx context.Context) error {
	return mcp.ServeStdio(ctx, s.mcpServer)
}

// ServeHTTP starts the MCP server on HTTP (alternative transport)
func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	return mcp.ServeHTTP(ctx, s.mcpServer, addr)
}

// GetMCPServer returns the underlying MCP server (for testing)
func (s *Server) GetMCPServer() *server.Server {
	return s.mcpServer
}
