package domain

// Topic groups tasks by the SQL concept they exercise
type Topic string

const (
	TopicSelect    Topic = "select"
	TopicGroupBy   Topic = "groupBy"
	TopicJoin      Topic = "join"
	TopicSubquery  Topic = "subquery"
	TopicCTE       Topic = "cte"
	TopicWindow    Topic = "window"
	TopicAdvanced  Topic = "advanced"
	TopicAggregate Topic = "aggregate"
)

// Topics lists every known topic in catalog order
var Topics = []Topic{
	TopicSelect,
	TopicAggregate,
	TopicGroupBy,
	TopicJoin,
	TopicSubquery,
	TopicCTE,
	TopicWindow,
	TopicAdvanced,
}

// Valid reports whether t is one of the known topics
func (t Topic) Valid() bool {
	for _, known := range Topics {
		if t == known {
			return true
		}
	}
	return false
}

// Difficulty represents task difficulty level
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// Valid reports whether d is one of the known difficulties
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	default:
		return false
	}
}

// TaskDefinition is a single exercise: a database, a reference query and the
// tables the learner is expected to touch.
type TaskDefinition struct {
	ID             string     `json:"id"`
	Title          string     `json:"title,omitempty"`
	Topic          Topic      `json:"topic"`
	Difficulty     Difficulty `json:"difficulty"`
	DatabaseID     string     `json:"database_id"`
	ReferenceQuery string     `json:"reference_query"`
	TablesInvolved []string   `json:"tables_involved"`
}

// DatabaseDefinition is a named seed database
type DatabaseDefinition struct {
	ID          string      `json:"id"`
	DisplayName string      `json:"display_name"`
	Extends     string      `json:"extends,omitempty"` // base database applied first
	InitScript  string      `json:"-"`
	Tables      []TableMeta `json:"tables"`
}

// TableMeta describes a table for schema display
type TableMeta struct {
	Name    string       `json:"name"`
	Columns []ColumnMeta `json:"columns"`
}

// ColumnMeta describes a column and its key attributes
type ColumnMeta struct {
	Name       string     `json:"name"`
	PrimaryKey bool       `json:"primary_key,omitempty"`
	References *ColumnRef `json:"references,omitempty"`
}

// ColumnRef points at the column a foreign key references
type ColumnRef struct {
	Table  string `json:"table"`
	Column string `json:"column"`
}

// Table returns the table metadata with the given name
func (d *DatabaseDefinition) Table(name string) (TableMeta, bool) {
	for _, t := range d.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return TableMeta{}, false
}
