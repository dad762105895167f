package migrations

import "embed"

// FS embeds the progress database migrations.
//
//go:embed *.sql
var FS embed.FS
