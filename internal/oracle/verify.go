package oracle

import (
	"context"
	"log/slog"
)

// CatalogIssue is a task whose reference query does not validate against itself
type CatalogIssue struct {
	TaskID  string `json:"task_id"`
	Verdict string `json:"verdict,omitempty"`
	Detail  string `json:"detail,omitempty"`
	Error   string `json:"error,omitempty"`
}

// VerifyCatalog checks every task's reference query against itself. A
// healthy catalog yields no issues.
func (o *Oracle) VerifyCatalog(ctx context.Context) []CatalogIssue {
	var issues []CatalogIssue

	for _, task := range o.tasks.Tasks() {
		if ctx.Err() != nil {
			issues = append(issues, CatalogIssue{TaskID: task.ID, Error: ctx.Err().Error()})
			break
		}

		result, err := o.Check(ctx, task.ID, task.ReferenceQuery)
		switch {
		case err != nil:
			issues = append(issues, CatalogIssue{TaskID: task.ID, Error: err.Error()})
		case !result.Verdict.IsCorrect():
			issues = append(issues, CatalogIssue{
				TaskID:  task.ID,
				Verdict: result.Verdict.String(),
				Detail:  result.Verdict.Feedback(),
			})
		}
	}

	slog.Info("catalog verified", "tasks", len(o.tasks.Tasks()), "issues", len(issues))
	return issues
}
