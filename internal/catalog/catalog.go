package catalog

import (
	"fmt"
	"sync"

	"github.com/felixgeelhaar/sqlquest/internal/domain"
)

// Catalog provides read-only access to the databases and the ordered task list.
// It is built once at startup and passed to whoever needs it.
type Catalog struct {
	loader *Loader

	mu        sync.RWMutex
	databases map[string]*domain.DatabaseDefinition
	dbOrder   []string
	tasks     []*domain.TaskDefinition
	index     map[string]int
}

// New creates a catalog backed by loader. Call Load before use.
func New(loader *Loader) *Catalog {
	return &Catalog{
		loader:    loader,
		databases: make(map[string]*domain.DatabaseDefinition),
		index:     make(map[string]int),
	}
}

// Default loads the built-in catalog
func Default() (*Catalog, error) {
	c := New(NewEmbeddedLoader())
	if err := c.Load(); err != nil {
		return nil, err
	}
	return c, nil
}

// Load reads and validates every definition
func (c *Catalog) Load() error {
	databases, err := c.loader.LoadDatabases()
	if err != nil {
		return fmt.Errorf("load databases: %w", err)
	}
	tasks, err := c.loader.LoadTasks()
	if err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}

	byID := make(map[string]*domain.DatabaseDefinition, len(databases))
	order := make([]string, 0, len(databases))
	for _, db := range databases {
		if db.ID == "" {
			return fmt.Errorf("database without id: %w", domain.ErrInvalidCatalog)
		}
		if _, dup := byID[db.ID]; dup {
			return fmt.Errorf("duplicate database %s: %w", db.ID, domain.ErrInvalidCatalog)
		}
		byID[db.ID] = db
		order = append(order, db.ID)
	}
	for _, db := range databases {
		if db.Extends == "" {
			continue
		}
		base, ok := byID[db.Extends]
		if !ok {
			return fmt.Errorf("database %s extends unknown %s: %w", db.ID, db.Extends, domain.ErrInvalidCatalog)
		}
		// Only one level of extension is applied by the engine.
		if base.Extends != "" {
			return fmt.Errorf("database %s extends %s which itself extends %s: %w",
				db.ID, base.ID, base.Extends, domain.ErrInvalidCatalog)
		}
	}

	index := make(map[string]int, len(tasks))
	for i, task := range tasks {
		if err := validateTask(task, byID); err != nil {
			return err
		}
		if _, dup := index[task.ID]; dup {
			return fmt.Errorf("duplicate task %s: %w", task.ID, domain.ErrInvalidCatalog)
		}
		index[task.ID] = i
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.databases = byID
	c.dbOrder = order
	c.tasks = tasks
	c.index = index
	return nil
}

func validateTask(task *domain.TaskDefinition, databases map[string]*domain.DatabaseDefinition) error {
	switch {
	case task.ID == "":
		return fmt.Errorf("task without id: %w", domain.ErrInvalidCatalog)
	case !task.Topic.Valid():
		return fmt.Errorf("task %s: unknown topic %q: %w", task.ID, task.Topic, domain.ErrInvalidCatalog)
	case !task.Difficulty.Valid():
		return fmt.Errorf("task %s: unknown difficulty %q: %w", task.ID, task.Difficulty, domain.ErrInvalidCatalog)
	case task.ReferenceQuery == "":
		return fmt.Errorf("task %s: empty reference query: %w", task.ID, domain.ErrInvalidCatalog)
	}

	db, ok := databases[task.DatabaseID]
	if !ok {
		return fmt.Errorf("task %s: database %s: %w", task.ID, task.DatabaseID, domain.ErrDatabaseNotFound)
	}
	for _, table := range task.TablesInvolved {
		if _, ok := lookupTable(db, databases, table); !ok {
			return fmt.Errorf("task %s: table %s not in database %s: %w",
				task.ID, table, db.ID, domain.ErrInvalidCatalog)
		}
	}
	return nil
}

// lookupTable finds a table in db or, for an extending database, its base
func lookupTable(db *domain.DatabaseDefinition, databases map[string]*domain.DatabaseDefinition, name string) (domain.TableMeta, bool) {
	if t, ok := db.Table(name); ok {
		return t, true
	}
	if base, ok := databases[db.Extends]; ok {
		return base.Table(name)
	}
	return domain.TableMeta{}, false
}

// Database returns a database definition by ID
func (c *Catalog) Database(id string) (*domain.DatabaseDefinition, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	db, ok := c.databases[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrDatabaseNotFound, id)
	}
	return db, nil
}

// Databases returns all databases in catalog order
func (c *Catalog) Databases() []*domain.DatabaseDefinition {
	c.mu.RLock()
	defer c.mu.RUnlock()

	dbs := make([]*domain.DatabaseDefinition, 0, len(c.dbOrder))
	for _, id := range c.dbOrder {
		dbs = append(dbs, c.databases[id])
	}
	return dbs
}

// Schema returns the tables visible in a database, base tables first for an
// extending database.
func (c *Catalog) Schema(id string) ([]domain.TableMeta, error) {
	db, err := c.Database(id)
	if err != nil {
		return nil, err
	}
	if db.Extends == "" {
		return db.Tables, nil
	}
	base, err := c.Database(db.Extends)
	if err != nil {
		return nil, err
	}
	tables := make([]domain.TableMeta, 0, len(base.Tables)+len(db.Tables))
	tables = append(tables, base.Tables...)
	return append(tables, db.Tables...), nil
}

// Task returns a task by ID
func (c *Catalog) Task(id string) (*domain.TaskDefinition, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i, ok := c.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrTaskNotFound, id)
	}
	return c.tasks[i], nil
}

// IndexOf returns the position of a task in the learning path, or -1
func (c *Catalog) IndexOf(id string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i, ok := c.index[id]
	if !ok {
		return -1
	}
	return i
}

// Tasks returns all tasks in order. The definitions are shared; callers must
// not modify them.
func (c *Catalog) Tasks() []*domain.TaskDefinition {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tasks := make([]*domain.TaskDefinition, len(c.tasks))
	copy(tasks, c.tasks)
	return tasks
}

// Len returns the number of tasks
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tasks)
}

// Next returns the task after id in the learning path.
// Returns nil if id is the last task.
func (c *Catalog) Next(id string) (*domain.TaskDefinition, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i, ok := c.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrTaskNotFound, id)
	}
	if i+1 >= len(c.tasks) {
		return nil, nil
	}
	return c.tasks[i+1], nil
}

// TopicTaskIDs returns the ids of every task in the given topic, in order
func (c *Catalog) TopicTaskIDs(topic domain.Topic) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var ids []string
	for _, t := range c.tasks {
		if t.Topic == topic {
			ids = append(ids, t.ID)
		}
	}
	return ids
}

// Stats summarizes the catalog
type Stats struct {
	DatabaseCount int                  `json:"database_count"`
	TaskCount     int                  `json:"task_count"`
	ByTopic       map[domain.Topic]int `json:"by_topic"`
}

// Stats returns catalog statistics
func (c *Catalog) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := Stats{
		DatabaseCount: len(c.databases),
		TaskCount:     len(c.tasks),
		ByTopic:       make(map[domain.Topic]int),
	}
	for _, t := range c.tasks {
		stats.ByTopic[t.Topic]++
	}
	return stats
}
