// Package daemon serves the practice session over a local HTTP JSON API.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/felixgeelhaar/sqlquest/internal/catalog"
	"github.com/felixgeelhaar/sqlquest/internal/config"
	"github.com/felixgeelhaar/sqlquest/internal/domain"
	"github.com/felixgeelhaar/sqlquest/internal/game"
	"github.com/felixgeelhaar/sqlquest/internal/hint"
	"github.com/felixgeelhaar/sqlquest/internal/practice"
	"github.com/felixgeelhaar/sqlquest/internal/storage/sqlite"
)

// Catalog is the read side of the task and database catalog
type Catalog interface {
	Databases() []*domain.DatabaseDefinition
	Database(id string) (*domain.DatabaseDefinition, error)
	Schema(id string) ([]domain.TableMeta, error)
	Stats() catalog.Stats
}

// Practice is the learner session the API drives
type Practice interface {
	LearnerID() string
	Tasks() []practice.TaskView
	Task(taskID string) (*practice.TaskView, error)
	NextTask(taskID string) (*practice.TaskView, error)
	StartTask(ctx context.Context, taskID string) (*practice.TaskView, error)
	Submit(ctx context.Context, taskID, query string) (*practice.Submission, error)
	RevealHint(ctx context.Context, taskID string, level int) (hint.Hint, error)
	RevealSolution(ctx context.Context, taskID string) (string, error)
	StartSession(ctx context.Context) (*practice.Status, error)
	State(ctx context.Context) *practice.Status
	Reset(ctx context.Context) (*practice.Status, error)
	Snapshot() game.GameState
	Import(ctx context.Context, snapshot *game.GameState) (*practice.Status, error)
}

// History lists past submissions
type History interface {
	List(ctx context.Context, learnerID, taskID string, limit int) ([]sqlite.Submission, error)
}

var _ Practice = (*practice.Service)(nil)

// Server represents the SQLQuest daemon HTTP server
type Server struct {
	cfg     *config.LocalConfig
	server  *http.Server
	router  *http.ServeMux
	version string

	catalog  Catalog
	practice Practice
	history  History
}

// ServerConfig holds the dependencies of a server
type ServerConfig struct {
	Config   *config.LocalConfig
	Version  string
	Catalog  Catalog
	Practice Practice
	History  History // optional
}

// NewServer creates a daemon server
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Catalog == nil || cfg.Practice == nil {
		return nil, fmt.Errorf("%w: catalog and practice service are required", domain.ErrInvalidInput)
	}
	if cfg.Config == nil {
		cfg.Config = config.DefaultLocalConfig()
	}

	s := &Server{
		cfg:      cfg.Config,
		router:   http.NewServeMux(),
		version:  cfg.Version,
		catalog:  cfg.Catalog,
		practice: cfg.Practice,
		history:  cfg.History,
	}
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Config.Addr(),
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router.HandleFunc("GET /v1/health", s.handleHealth)
	s.router.HandleFunc("GET /v1/status", s.handleStatus)

	// Databases
	s.router.HandleFunc("GET /v1/databases", s.handleListDatabases)
	s.router.HandleFunc("GET /v1/databases/{id}", s.handleGetDatabase)

	// Tasks
	s.router.HandleFunc("GET /v1/tasks", s.handleListTasks)
	s.router.HandleFunc("GET /v1/tasks/{id}", s.handleGetTask)
	s.router.HandleFunc("GET /v1/tasks/{id}/next", s.handleNextTask)
	s.router.HandleFunc("POST /v1/tasks/{id}/start", s.handleStartTask)
	s.router.HandleFunc("POST /v1/tasks/{id}/check", s.handleCheck)
	s.router.HandleFunc("GET /v1/tasks/{id}/hints/{level}", s.handleHint)
	s.router.HandleFunc("POST /v1/tasks/{id}/solution", s.handleSolution)
	s.router.HandleFunc("GET /v1/tasks/{id}/submissions", s.handleSubmissions)

	// Game state
	s.router.HandleFunc("GET /v1/game", s.handleGetGame)
	s.router.HandleFunc("POST /v1/game/session", s.handleStartSession)
	s.router.HandleFunc("DELETE /v1/game", s.handleResetGame)
	s.router.HandleFunc("GET /v1/game/snapshot", s.handleExport)
	s.router.HandleFunc("POST /v1/game/snapshot", s.handleImport)
}

// Handler returns the router wrapped in the middleware chain
func (s *Server) Handler() http.Handler {
	return correlationIDMiddleware(recoveryMiddleware(loggingMiddleware(s.router)))
}

// Start starts the HTTP server
func (s *Server) Start() error {
	slog.Info("starting sqlquest daemon", "addr", s.server.Addr, "learner_id", s.practice.LearnerID())
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("shutting down daemon")
	return s.server.Shutdown(ctx)
}
