package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/felixgeelhaar/sqlquest/internal/domain"
)

// maxDisplayRows caps rows printed for a result table
const maxDisplayRows = 20

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	correctStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	wrongStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	xpStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

// renderVerdict renders the verdict headline
func renderVerdict(v domain.Verdict) string {
	switch v.Status {
	case domain.StatusCorrect:
		return correctStyle.Render("✓ Correct!")
	case domain.StatusIncorrect:
		return wrongStyle.Render("✗ Incorrect") + " " + mutedStyle.Render(string(v.Reason))
	default:
		return wrongStyle.Render("✗ Error")
	}
}

// renderOutcome renders a result table, truncated to maxDisplayRows
func renderOutcome(o domain.QueryOutcome) string {
	if o.Failed() {
		return ""
	}
	if len(o.Columns) == 0 {
		return mutedStyle.Render("(no result set)")
	}

	rows := make([][]string, 0, min(len(o.Rows), maxDisplayRows))
	for i, row := range o.Rows {
		if i == maxDisplayRows {
			break
		}
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = v.String()
		}
		rows = append(rows, cells)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers(o.Columns...).
		Rows(rows...)

	var b strings.Builder
	b.WriteString(t.Render())
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(rowSummary(o.RowCount())))
	return b.String()
}

func rowSummary(n int) string {
	switch {
	case n == 1:
		return "1 row"
	case n > maxDisplayRows:
		return fmt.Sprintf("%d rows (showing first %d)", n, maxDisplayRows)
	default:
		return fmt.Sprintf("%d rows", n)
	}
}

// renderSchema renders the tables of a database with their keys
func renderSchema(tables []domain.TableMeta) string {
	var b strings.Builder
	for i, t := range tables {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(titleStyle.Render(t.Name))
		b.WriteString("\n")
		for _, c := range t.Columns {
			line := "  " + c.Name
			if c.PrimaryKey {
				line += mutedStyle.Render(" PK")
			}
			if c.References != nil {
				line += mutedStyle.Render(fmt.Sprintf(" → %s.%s", c.References.Table, c.References.Column))
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	return b.String()
}
