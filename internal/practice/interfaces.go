package practice

import (
	"context"
	"time"

	"github.com/felixgeelhaar/sqlquest/internal/domain"
	"github.com/felixgeelhaar/sqlquest/internal/game"
	"github.com/felixgeelhaar/sqlquest/internal/oracle"
)

// TaskCatalog is the part of the catalog the service reads
type TaskCatalog interface {
	Task(id string) (*domain.TaskDefinition, error)
	Tasks() []*domain.TaskDefinition
	Len() int
	Next(id string) (*domain.TaskDefinition, error)
	TopicTaskIDs(topic domain.Topic) []string
}

// Checker judges a learner query
type Checker interface {
	Check(ctx context.Context, taskID, learnerQuery string) (*oracle.Result, error)
}

// ProgressStore persists the ledger between runs. Load returns an error
// wrapping domain.ErrProgressNotFound for a learner with no saved state.
type ProgressStore interface {
	Load(ctx context.Context, learnerID string) (*game.GameState, error)
	Save(ctx context.Context, learnerID string, state *game.GameState) error
}

// HistoryRecorder keeps a log of checked submissions
type HistoryRecorder interface {
	RecordSubmission(ctx context.Context, learnerID, taskID, query string, verdict domain.Verdict, xpAwarded int, duration time.Duration) error
}
