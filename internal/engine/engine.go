// Package engine provisions private in-memory SQLite databases seeded from
// the catalog and runs arbitrary SQL text against them.
package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/felixgeelhaar/sqlquest/internal/domain"
	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
)

// Defaults for Config
const (
	DefaultQueryTimeout = 3 * time.Second
	DefaultMaxRows      = 10000
)

// Catalog resolves database definitions
type Catalog interface {
	Database(id string) (*domain.DatabaseDefinition, error)
}

// Config bounds query execution
type Config struct {
	QueryTimeout time.Duration
	MaxRows      int
}

// DefaultConfig returns the default execution bounds
func DefaultConfig() Config {
	return Config{
		QueryTimeout: DefaultQueryTimeout,
		MaxRows:      DefaultMaxRows,
	}
}

// Engine provisions isolated database instances
type Engine struct {
	catalog Catalog
	cfg     Config
}

// New creates an engine. Zero config fields fall back to the defaults.
func New(catalog Catalog, cfg Config) *Engine {
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = DefaultQueryTimeout
	}
	if cfg.MaxRows <= 0 {
		cfg.MaxRows = DefaultMaxRows
	}
	return &Engine{catalog: catalog, cfg: cfg}
}

// Config returns the effective execution bounds
func (e *Engine) Config() Config {
	return e.cfg
}

// Instance is one private database. It must be closed by whoever provisioned it.
type Instance struct {
	ID         uuid.UUID
	DatabaseID string

	db   *sql.DB
	conn *sql.Conn
	cfg  Config

	mu     sync.Mutex
	closed bool
}

// Provision creates a fresh in-memory database and applies the init script of
// databaseID, preceded by its base database's script when it extends one.
func (e *Engine) Provision(ctx context.Context, databaseID string) (*Instance, error) {
	def, err := e.catalog.Database(databaseID)
	if err != nil {
		return nil, err
	}

	scripts := []*domain.DatabaseDefinition{def}
	if def.Extends != "" {
		base, err := e.catalog.Database(def.Extends)
		if err != nil {
			return nil, fmt.Errorf("%w: base of %s: %w", domain.ErrProvision, databaseID, err)
		}
		scripts = []*domain.DatabaseDefinition{base, def}
	}

	id := uuid.New()
	// Without cache=shared the named memory database is private to its connection.
	dsn := fmt.Sprintf("file:sqlquest-%s?mode=memory&_foreign_keys=ON", id)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open: %w", domain.ErrProvision, err)
	}
	db.SetMaxOpenConns(1)

	conn, err := db.Conn(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: connect: %w", domain.ErrProvision, err)
	}

	// Learner SQL must not reach the filesystem through ATTACH.
	err = conn.Raw(func(driverConn any) error {
		if c, ok := driverConn.(*sqlite3.SQLiteConn); ok {
			c.SetLimit(sqlite3.SQLITE_LIMIT_ATTACHED, 0)
		}
		return nil
	})
	if err != nil {
		conn.Close()
		db.Close()
		return nil, fmt.Errorf("%w: limits: %w", domain.ErrProvision, err)
	}

	for _, s := range scripts {
		if _, err := conn.ExecContext(ctx, s.InitScript); err != nil {
			conn.Close()
			db.Close()
			return nil, fmt.Errorf("%w: apply %s script: %w", domain.ErrProvision, s.ID, err)
		}
	}

	slog.Debug("provisioned database instance", "instance_id", id, "database", databaseID)

	return &Instance{
		ID:         id,
		DatabaseID: databaseID,
		db:         db,
		conn:       conn,
		cfg:        e.cfg,
	}, nil
}

// Execute runs SQL text, a single statement or a script, and returns the
// result of the last statement. Engine errors are returned inside the
// outcome, never as Go errors.
func (in *Instance) Execute(ctx context.Context, query string) domain.QueryOutcome {
	in.mu.Lock()
	defer in.mu.Unlock()

	if in.closed {
		return domain.FailedOutcome(domain.ErrInstanceClosed.Error())
	}

	stmts := Split(query)
	if len(stmts) == 0 {
		return domain.FailedOutcome("empty query")
	}

	ctx, cancel := context.WithTimeout(ctx, in.cfg.QueryTimeout)
	defer cancel()

	// The driver only steps the final statement of a multi-statement query,
	// so everything before it is executed on its own.
	for _, stmt := range stmts[:len(stmts)-1] {
		if _, err := in.conn.ExecContext(ctx, stmt); err != nil {
			return in.failure(ctx, err)
		}
	}

	rows, err := in.conn.QueryContext(ctx, stmts[len(stmts)-1])
	if err != nil {
		return in.failure(ctx, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return in.failure(ctx, err)
	}

	outcome := domain.QueryOutcome{Columns: columns, Rows: [][]domain.Value{}}
	raw := make([]any, len(columns))
	dest := make([]any, len(columns))
	for i := range raw {
		dest[i] = &raw[i]
	}

	for rows.Next() {
		if len(outcome.Rows) >= in.cfg.MaxRows {
			return domain.FailedOutcome(fmt.Sprintf("result exceeds %d rows", in.cfg.MaxRows))
		}
		if err := rows.Scan(dest...); err != nil {
			return in.failure(ctx, err)
		}
		row := make([]domain.Value, len(columns))
		for i, v := range raw {
			row[i] = toValue(v)
		}
		outcome.Rows = append(outcome.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return in.failure(ctx, err)
	}

	return outcome
}

// failure turns a driver error into an error outcome
func (in *Instance) failure(ctx context.Context, err error) domain.QueryOutcome {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return domain.FailedOutcome(fmt.Sprintf("query timed out after %s", in.cfg.QueryTimeout))
	case errors.Is(ctx.Err(), context.Canceled):
		return domain.FailedOutcome("query cancelled")
	default:
		return domain.FailedOutcome(err.Error())
	}
}

// Close releases the database. It is safe to call more than once.
func (in *Instance) Close() error {
	in.mu.Lock()
	defer in.mu.Unlock()

	if in.closed {
		return nil
	}
	in.closed = true

	connErr := in.conn.Close()
	dbErr := in.db.Close()
	slog.Debug("disposed database instance", "instance_id", in.ID, "database", in.DatabaseID)

	return errors.Join(connErr, dbErr)
}
