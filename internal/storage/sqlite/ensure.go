package sqlite

import "github.com/felixgeelhaar/sqlquest/internal/practice"

// Ensure SQLite stores implement the practice storage interfaces.
var (
	_ practice.ProgressStore   = (*ProgressStore)(nil)
	_ practice.HistoryRecorder = (*SubmissionStore)(nil)
)
