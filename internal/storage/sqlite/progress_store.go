package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/sqlquest/internal/domain"
	"github.com/felixgeelhaar/sqlquest/internal/game"
	"github.com/goccy/go-json"
)

// ProgressStore persists ledger snapshots keyed by learner id.
type ProgressStore struct {
	db *DB
}

// NewProgressStore creates a SQLite-backed progress store.
func NewProgressStore(db *DB) *ProgressStore {
	return &ProgressStore{db: db}
}

// Save upserts the learner's snapshot.
func (s *ProgressStore) Save(ctx context.Context, learnerID string, state *game.GameState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal game state: %w", err)
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO progress (learner_id, state, total_xp, level, completed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(learner_id) DO UPDATE SET
			state=excluded.state,
			total_xp=excluded.total_xp,
			level=excluded.level,
			completed=excluded.completed,
			updated_at=excluded.updated_at`,
		learnerID, string(data), state.TotalXP, state.CurrentLevel, len(state.CompletedTasks), now, now,
	)
	if err != nil {
		return fmt.Errorf("upsert progress: %w", err)
	}
	return nil
}

// Load returns the learner's snapshot, or an error wrapping
// domain.ErrProgressNotFound.
func (s *ProgressStore) Load(ctx context.Context, learnerID string) (*game.GameState, error) {
	var data string
	err := s.db.QueryRowContext(ctx, "SELECT state FROM progress WHERE learner_id = ?", learnerID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrProgressNotFound, learnerID)
	}
	if err != nil {
		return nil, fmt.Errorf("query progress: %w", err)
	}

	var state game.GameState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, fmt.Errorf("unmarshal game state: %w", err)
	}
	if state.TaskAttempts == nil {
		state.TaskAttempts = make(map[string]game.TaskAttempt)
	}
	return &state, nil
}

// Delete removes the learner's snapshot.
func (s *ProgressStore) Delete(ctx context.Context, learnerID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM progress WHERE learner_id = ?", learnerID)
	if err != nil {
		return fmt.Errorf("delete progress: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrProgressNotFound, learnerID)
	}
	return nil
}

// LeaderboardEntry is one learner's headline numbers
type LeaderboardEntry struct {
	LearnerID string    `json:"learner_id"`
	TotalXP   int       `json:"total_xp"`
	Level     int       `json:"level"`
	Completed int       `json:"completed"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Leaderboard lists learners by XP, highest first.
func (s *ProgressStore) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT learner_id, total_xp, level, completed, updated_at
		FROM progress
		ORDER BY total_xp DESC, learner_id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []LeaderboardEntry
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.LearnerID, &e.TotalXP, &e.Level, &e.Completed, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan leaderboard entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
