package catalog

import (
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/felixgeelhaar/sqlquest/internal/domain"
	"gopkg.in/yaml.v3"
)

const (
	databasesFile = "databases.yaml"
	tasksFile     = "tasks.yaml"
)

// DatabasesFile represents the YAML structure of the database catalog
type DatabasesFile struct {
	Databases []struct {
		ID          string `yaml:"id"`
		DisplayName string `yaml:"display_name"`
		Extends     string `yaml:"extends"`
		Script      string `yaml:"script"`
		Tables      []struct {
			Name    string `yaml:"name"`
			Columns []struct {
				Name       string `yaml:"name"`
				PrimaryKey bool   `yaml:"primary_key"`
				References string `yaml:"references"`
			} `yaml:"columns"`
		} `yaml:"tables"`
	} `yaml:"databases"`
}

// TasksFile represents the YAML structure of the task catalog
type TasksFile struct {
	Tasks []struct {
		ID         string   `yaml:"id"`
		Title      string   `yaml:"title"`
		Topic      string   `yaml:"topic"`
		Difficulty string   `yaml:"difficulty"`
		Database   string   `yaml:"database"`
		Tables     []string `yaml:"tables"`
		Reference  string   `yaml:"reference"`
	} `yaml:"tasks"`
}

// Loader reads catalog definitions from a filesystem rooted at the catalog
// directory (the one holding databases.yaml and tasks.yaml).
type Loader struct {
	fsys fs.FS
}

// NewLoader creates a loader over fsys
func NewLoader(fsys fs.FS) *Loader {
	return &Loader{fsys: fsys}
}

// NewEmbeddedLoader creates a loader over the built-in catalog
func NewEmbeddedLoader() *Loader {
	sub, err := fs.Sub(DataFS, "data")
	if err != nil {
		// data/ is embedded at build time
		panic(fmt.Sprintf("catalog: embedded data: %v", err))
	}
	return NewLoader(sub)
}

// LoadDatabases loads every database definition and its init script
func (l *Loader) LoadDatabases() ([]*domain.DatabaseDefinition, error) {
	data, err := fs.ReadFile(l.fsys, databasesFile)
	if err != nil {
		return nil, fmt.Errorf("read databases file: %w", err)
	}

	var file DatabasesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse databases file: %w", err)
	}

	databases := make([]*domain.DatabaseDefinition, 0, len(file.Databases))
	for _, d := range file.Databases {
		if d.Script == "" {
			return nil, fmt.Errorf("database %s: no script: %w", d.ID, domain.ErrInvalidCatalog)
		}
		script, err := fs.ReadFile(l.fsys, path.Clean(d.Script))
		if err != nil {
			return nil, fmt.Errorf("read script for database %s: %w", d.ID, err)
		}

		def := &domain.DatabaseDefinition{
			ID:          d.ID,
			DisplayName: d.DisplayName,
			Extends:     d.Extends,
			InitScript:  string(script),
			Tables:      make([]domain.TableMeta, len(d.Tables)),
		}
		for i, t := range d.Tables {
			table := domain.TableMeta{Name: t.Name, Columns: make([]domain.ColumnMeta, len(t.Columns))}
			for j, c := range t.Columns {
				col := domain.ColumnMeta{Name: c.Name, PrimaryKey: c.PrimaryKey}
				if c.References != "" {
					ref, err := parseColumnRef(c.References)
					if err != nil {
						return nil, fmt.Errorf("database %s column %s.%s: %w", d.ID, t.Name, c.Name, err)
					}
					col.References = ref
				}
				table.Columns[j] = col
			}
			def.Tables[i] = table
		}
		databases = append(databases, def)
	}

	return databases, nil
}

// LoadTasks loads the ordered task list
func (l *Loader) LoadTasks() ([]*domain.TaskDefinition, error) {
	data, err := fs.ReadFile(l.fsys, tasksFile)
	if err != nil {
		return nil, fmt.Errorf("read tasks file: %w", err)
	}

	var file TasksFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse tasks file: %w", err)
	}

	tasks := make([]*domain.TaskDefinition, 0, len(file.Tasks))
	for _, t := range file.Tasks {
		difficulty := domain.Difficulty(t.Difficulty)
		if difficulty == "" {
			difficulty = domain.DifficultyBeginner
		}
		tables := t.Tables
		if tables == nil {
			tables = []string{}
		}
		tasks = append(tasks, &domain.TaskDefinition{
			ID:             t.ID,
			Title:          t.Title,
			Topic:          domain.Topic(t.Topic),
			Difficulty:     difficulty,
			DatabaseID:     t.Database,
			ReferenceQuery: strings.TrimSpace(t.Reference),
			TablesInvolved: tables,
		})
	}

	return tasks, nil
}

// parseColumnRef parses "table.column"
func parseColumnRef(s string) (*domain.ColumnRef, error) {
	table, column, ok := strings.Cut(s, ".")
	if !ok || table == "" || column == "" {
		return nil, fmt.Errorf("invalid reference %q: %w", s, domain.ErrInvalidCatalog)
	}
	return &domain.ColumnRef{Table: table, Column: column}, nil
}
