package oracle

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/sqlquest/internal/domain"
)

const rowMismatchDetail = "Results are not in the expected order or contain different values. Check your ORDER BY clause."

// Compare judges a learner result against the reference result. Checks run
// in a fixed order and stop at the first mismatch: column names (exact and
// ordered), row count, then every cell in row order.
func Compare(learner, reference domain.QueryOutcome) domain.Verdict {
	if !sameColumns(learner.Columns, reference.Columns) {
		return domain.Incorrect(domain.ReasonColumnMismatch, fmt.Sprintf(
			"Wrong columns. Expected: [%s], got: [%s]",
			strings.Join(reference.Columns, ", "), strings.Join(learner.Columns, ", ")))
	}

	if learner.RowCount() != reference.RowCount() {
		return domain.Incorrect(domain.ReasonRowCountMismatch, fmt.Sprintf(
			"Wrong number of rows. Expected %d rows, got %d rows",
			reference.RowCount(), learner.RowCount()))
	}

	for i := range reference.Rows {
		if !sameRow(learner.Rows[i], reference.Rows[i]) {
			return domain.Incorrect(domain.ReasonRowOrderOrValueMismatch, rowMismatchDetail)
		}
	}

	return domain.Correct()
}

func sameColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sameRow(a, b []domain.Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
