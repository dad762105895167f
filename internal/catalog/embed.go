package catalog

import "embed"

// DataFS holds the built-in databases and tasks.
//
//go:embed data/databases.yaml data/tasks.yaml data/sql/*.sql
var DataFS embed.FS
