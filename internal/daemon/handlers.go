package daemon

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/felixgeelhaar/sqlquest/internal/domain"
	"github.com/felixgeelhaar/sqlquest/internal/game"
	"github.com/goccy/go-json"
)

// genericErrorMessage is all a client learns about an internal failure
const genericErrorMessage = "something went wrong, please reload"

// Request body bounds
const (
	maxBodyBytes     = 64 << 10
	maxSnapshotBytes = 4 << 20
)

type errorBody struct {
	Error   string `json:"error"`
	Status  int    `json:"status"`
	Details string `json:"details,omitempty"`
}

type checkRequest struct {
	Query string `json:"query"`
}

type databaseResponse struct {
	*domain.DatabaseDefinition
	Schema []domain.TableMeta `json:"schema"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// writeError maps err to a status. Learner-facing problems keep their
// message; anything else is logged and reported generically.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrTaskNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInvalidHintLevel):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrRateLimited):
		status = http.StatusTooManyRequests
	}

	if status == http.StatusInternalServerError {
		slog.Error("request failed",
			"correlation_id", GetCorrelationID(r.Context()),
			"path", r.URL.Path,
			"catalog_defect", domain.IsCatalogDefect(err),
			"error", err)
		writeJSON(w, status, errorBody{Error: genericErrorMessage, Status: status})
		return
	}
	writeJSON(w, status, errorBody{Error: http.StatusText(status), Status: status, Details: err.Error()})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "running",
		"version":    s.version,
		"learner_id": s.practice.LearnerID(),
		"catalog":    s.catalog.Stats(),
		"engine":     s.cfg.Engine,
	})
}

func (s *Server) handleListDatabases(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"databases": s.catalog.Databases(),
	})
}

func (s *Server) handleGetDatabase(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	db, err := s.catalog.Database(id)
	if errors.Is(err, domain.ErrDatabaseNotFound) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "database not found", Status: http.StatusNotFound, Details: id})
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	schema, err := s.catalog.Schema(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, databaseResponse{DatabaseDefinition: db, Schema: schema})
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"tasks": s.practice.Tasks(),
	})
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.practice.Task(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleNextTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.practice.Task(id); err != nil {
		s.writeError(w, r, err)
		return
	}
	next, err := s.practice.NextTask(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"next": next})
}

func (s *Server) handleStartTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.practice.StartTask(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body", Status: http.StatusBadRequest, Details: err.Error()})
		return
	}

	sub, err := s.practice.Submit(r.Context(), r.PathValue("id"), req.Query)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (s *Server) handleHint(w http.ResponseWriter, r *http.Request) {
	level, err := strconv.Atoi(r.PathValue("level"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "hint level must be a number", Status: http.StatusBadRequest})
		return
	}
	h, err := s.practice.RevealHint(r.Context(), r.PathValue("id"), level)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

func (s *Server) handleSolution(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	solution, err := s.practice.RevealSolution(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"task_id":       id,
		"solution":      solution,
		"xp_multiplier": 0,
	})
}

func (s *Server) handleSubmissions(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "submission history is disabled", Status: http.StatusNotFound})
		return
	}
	id := r.PathValue("id")
	if _, err := s.practice.Task(id); err != nil {
		s.writeError(w, r, err)
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "limit must be a positive number", Status: http.StatusBadRequest})
			return
		}
		limit = n
	}

	subs, err := s.history.List(r.Context(), s.practice.LearnerID(), id, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"submissions": subs})
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.practice.State(r.Context()))
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	status, err := s.practice.StartSession(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleResetGame(w http.ResponseWriter, r *http.Request) {
	status, err := s.practice.Reset(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"reset":  true,
		"levels": game.Levels,
		"status": status,
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.practice.Snapshot())
}

// handleImport merges a snapshot produced by handleExport
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var snapshot game.GameState
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSnapshotBytes)).Decode(&snapshot); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid snapshot", Status: http.StatusBadRequest, Details: err.Error()})
		return
	}
	status, err := s.practice.Import(r.Context(), &snapshot)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}
