package oracle

import (
	"testing"

	"github.com/felixgeelhaar/sqlquest/internal/domain"
	"github.com/stretchr/testify/assert"
)

func outcome(cols []string, rows ...[]domain.Value) domain.QueryOutcome {
	return domain.QueryOutcome{Columns: cols, Rows: rows}
}

func TestCompare(t *testing.T) {
	ref := outcome([]string{"id", "name"},
		[]domain.Value{domain.Integer(1), domain.Text("a")},
		[]domain.Value{domain.Integer(2), domain.Null()},
	)

	tests := []struct {
		name    string
		learner domain.QueryOutcome
		want    domain.VerdictStatus
		reason  domain.MismatchReason
	}{
		{"identical", ref, domain.StatusCorrect, ""},
		{
			"real for integer",
			outcome([]string{"id", "name"},
				[]domain.Value{domain.Real(1), domain.Text("a")},
				[]domain.Value{domain.Real(2), domain.Null()}),
			domain.StatusCorrect, "",
		},
		{
			"column case differs",
			outcome([]string{"ID", "name"}, ref.Rows...),
			domain.StatusIncorrect, domain.ReasonColumnMismatch,
		},
		{
			"extra column",
			outcome([]string{"id", "name", "x"}),
			domain.StatusIncorrect, domain.ReasonColumnMismatch,
		},
		{
			"columns checked before rows",
			outcome([]string{"name", "id"}),
			domain.StatusIncorrect, domain.ReasonColumnMismatch,
		},
		{
			"missing row",
			outcome([]string{"id", "name"}, ref.Rows[0]),
			domain.StatusIncorrect, domain.ReasonRowCountMismatch,
		},
		{
			"swapped rows",
			outcome([]string{"id", "name"}, ref.Rows[1], ref.Rows[0]),
			domain.StatusIncorrect, domain.ReasonRowOrderOrValueMismatch,
		},
		{
			"null versus empty text",
			outcome([]string{"id", "name"}, ref.Rows[0], []domain.Value{domain.Integer(2), domain.Text("")}),
			domain.StatusIncorrect, domain.ReasonRowOrderOrValueMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compare(tt.learner, ref)
			assert.Equal(t, tt.want, got.Status)
			assert.Equal(t, tt.reason, got.Reason)
		})
	}
}

func TestCompare_EmptyResults(t *testing.T) {
	empty := outcome([]string{"a"})
	assert.True(t, Compare(empty, empty).IsCorrect())
}

func TestNormalizeError(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"no such table: nonexistent_table", "no such table: nonexistent_table"},
		{"no such column: nope", "no such column: nope"},
		{`near "SELEC": syntax error`, `SQL syntax error: near "SELEC": syntax error`},
		{"UNIQUE constraint failed: t.id", "UNIQUE constraint failed: t.id"},
		{"query timed out after 3s", "query timed out after 3s"},
		{"result exceeds 10000 rows", "result exceeds 10000 rows"},
		{"sql: no rows in result set", "Error executing query. Please check your SQL syntax: sql: no rows in result set"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeError(tt.in), tt.in)
	}
}
