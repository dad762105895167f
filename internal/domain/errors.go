package domain

import "errors"

// -----------------------------------------------------------------------------
// Domain Errors
// These errors represent catalog and internal failures. Learner mistakes are
// never reported through them; those travel inside a Verdict.
// -----------------------------------------------------------------------------

// Catalog errors
var (
	ErrTaskNotFound     = errors.New("task not found")
	ErrDatabaseNotFound = errors.New("database not found")
	ErrInvalidCatalog   = errors.New("invalid catalog")
)

// Engine errors
var (
	ErrProvision       = errors.New("provision database instance")
	ErrInstanceClosed  = errors.New("database instance closed")
	ErrReferenceFailed = errors.New("reference query failed")
)

// Ledger errors
var (
	ErrInvalidHintLevel = errors.New("invalid hint level")
	ErrProgressNotFound = errors.New("progress not found")
	ErrRateLimited      = errors.New("too many submissions")
)

// General errors
var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrInternalError = errors.New("internal error")
)

// IsCatalogDefect reports whether err indicates a broken deployment rather
// than anything the learner did.
func IsCatalogDefect(err error) bool {
	return errors.Is(err, ErrTaskNotFound) ||
		errors.Is(err, ErrDatabaseNotFound) ||
		errors.Is(err, ErrInvalidCatalog) ||
		errors.Is(err, ErrProvision) ||
		errors.Is(err, ErrReferenceFailed)
}
