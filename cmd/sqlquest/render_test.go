package main

import (
	"strings"
	"testing"

	"github.com/felixgeelhaar/sqlquest/internal/domain"
)

func TestRenderOutcome(t *testing.T) {
	out := domain.QueryOutcome{
		Columns: []string{"artist_id", "name"},
		Rows: [][]domain.Value{
			{domain.Integer(1), domain.Text("AC/DC")},
			{domain.Integer(2), domain.Null()},
		},
	}

	got := renderOutcome(out)
	for _, want := range []string{"artist_id", "AC/DC", "NULL", "2 rows"} {
		if !strings.Contains(got, want) {
			t.Errorf("renderOutcome() missing %q:\n%s", want, got)
		}
	}

	if got := renderOutcome(domain.FailedOutcome("no such table: x")); got != "" {
		t.Errorf("renderOutcome(failed) = %q, want empty", got)
	}
}

func TestRenderOutcome_Truncates(t *testing.T) {
	out := domain.QueryOutcome{Columns: []string{"n"}}
	for i := 0; i < maxDisplayRows+5; i++ {
		out.Rows = append(out.Rows, []domain.Value{domain.Integer(int64(i))})
	}

	got := renderOutcome(out)
	if !strings.Contains(got, "25 rows (showing first 20)") {
		t.Errorf("summary missing:\n%s", got)
	}
	if strings.Contains(got, "24") {
		t.Error("rows beyond the display cap should be omitted")
	}
}

func TestRowSummary(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "0 rows"},
		{1, "1 row"},
		{7, "7 rows"},
		{21, "21 rows (showing first 20)"},
	}
	for _, tt := range tests {
		if got := rowSummary(tt.n); got != tt.want {
			t.Errorf("rowSummary(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestRenderVerdict(t *testing.T) {
	if got := renderVerdict(domain.Correct()); !strings.Contains(got, "Correct") {
		t.Errorf("renderVerdict(correct) = %q", got)
	}
	got := renderVerdict(domain.Incorrect(domain.ReasonRowCountMismatch, "Wrong number of rows"))
	if !strings.Contains(got, "row_count_mismatch") {
		t.Errorf("renderVerdict(incorrect) = %q", got)
	}
}

func TestRenderSchema(t *testing.T) {
	got := renderSchema([]domain.TableMeta{{
		Name: "albums",
		Columns: []domain.ColumnMeta{
			{Name: "album_id", PrimaryKey: true},
			{Name: "artist_id", References: &domain.ColumnRef{Table: "artists", Column: "artist_id"}},
		},
	}})
	for _, want := range []string{"albums", "album_id", "PK", "artists.artist_id"} {
		if !strings.Contains(got, want) {
			t.Errorf("renderSchema() missing %q:\n%s", want, got)
		}
	}
}

func TestRenderProgressBar(t *testing.T) {
	tests := []struct {
		value float64
		want  string
	}{
		{0, "[░░░░]"},
		{0.5, "[██░░]"},
		{1, "[████]"},
		{2, "[████]"},
		{-1, "[░░░░]"},
	}
	for _, tt := range tests {
		if got := renderProgressBar(tt.value, 4); got != tt.want {
			t.Errorf("renderProgressBar(%v) = %q, want %q", tt.value, got, tt.want)
		}
	}
}
