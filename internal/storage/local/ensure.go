package local

import "github.com/felixgeelhaar/sqlquest/internal/practice"

var _ practice.ProgressStore = (*Store)(nil)
