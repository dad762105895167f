package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/sqlquest/internal/domain"
)

// Submission is one checked query in a learner's history.
type Submission struct {
	ID        int64         `json:"id"`
	LearnerID string        `json:"learner_id"`
	TaskID    string        `json:"task_id"`
	Query     string        `json:"query"`
	Status    string        `json:"status"`
	Reason    string        `json:"reason,omitempty"`
	XPAwarded int           `json:"xp_awarded"`
	Duration  time.Duration `json:"duration_ns"`
	CreatedAt time.Time     `json:"created_at"`
}

// SubmissionStore records submission history backed by SQLite.
type SubmissionStore struct {
	db *DB
}

// NewSubmissionStore creates a SQLite-backed submission store.
func NewSubmissionStore(db *DB) *SubmissionStore {
	return &SubmissionStore{db: db}
}

// Record appends a submission.
func (s *SubmissionStore) Record(ctx context.Context, sub Submission) error {
	var reason *string
	if sub.Reason != "" {
		reason = &sub.Reason
	}
	createdAt := sub.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO submissions (learner_id, task_id, query, status, reason, xp_awarded, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.LearnerID, sub.TaskID, sub.Query, sub.Status, reason, sub.XPAwarded, sub.Duration.Milliseconds(), createdAt,
	)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

// List returns a learner's submissions, newest first. An empty taskID
// matches every task.
func (s *SubmissionStore) List(ctx context.Context, learnerID, taskID string, limit int) ([]Submission, error) {
	query := `SELECT id, learner_id, task_id, query, status, reason, xp_awarded, duration_ms, created_at
		FROM submissions WHERE learner_id = ?`
	args := []any{learnerID}

	if taskID != "" {
		query += " AND task_id = ?"
		args = append(args, taskID)
	}
	query += " ORDER BY id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query submissions: %w", err)
	}
	defer rows.Close()

	var subs []Submission
	for rows.Next() {
		var sub Submission
		var reason *string
		var durationMs int64
		if err := rows.Scan(&sub.ID, &sub.LearnerID, &sub.TaskID, &sub.Query, &sub.Status,
			&reason, &sub.XPAwarded, &durationMs, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		if reason != nil {
			sub.Reason = *reason
		}
		sub.Duration = time.Duration(durationMs) * time.Millisecond
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// Count returns how many submissions a learner made with the given status.
// An empty status counts all of them.
func (s *SubmissionStore) Count(ctx context.Context, learnerID, status string) (int, error) {
	query := "SELECT COUNT(*) FROM submissions WHERE learner_id = ?"
	args := []any{learnerID}
	if status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}
	var count int
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&count)
	return count, err
}

// Prune deletes submissions older than the given duration.
func (s *SubmissionStore) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	result, err := s.db.ExecContext(ctx, "DELETE FROM submissions WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune submissions: %w", err)
	}
	return result.RowsAffected()
}

// RecordSubmission records a checked query with its verdict.
func (s *SubmissionStore) RecordSubmission(ctx context.Context, learnerID, taskID, query string, verdict domain.Verdict, xpAwarded int, duration time.Duration) error {
	return s.Record(ctx, Submission{
		LearnerID: learnerID,
		TaskID:    taskID,
		Query:     query,
		Status:    string(verdict.Status),
		Reason:    string(verdict.Reason),
		XPAwarded: xpAwarded,
		Duration:  duration,
	})
}
