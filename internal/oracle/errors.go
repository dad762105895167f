package oracle

import (
	"regexp"
	"strings"
)

// Engine messages that already read well to a learner
var sqlErrorPatterns = []*regexp.Regexp{
	regexp.MustCompile(`no such (table|column|function)`),
	regexp.MustCompile(`ambiguous column name`),
	regexp.MustCompile(`constraint failed`),
	regexp.MustCompile(`misuse of (aggregate|window) function`),
	regexp.MustCompile(`wrong number of arguments`),
	regexp.MustCompile(`(SELECTs|VALUES clauses) .* do not have the same number of result columns`),
	regexp.MustCompile(`incomplete input`),
	regexp.MustCompile(`unrecognized token`),
	regexp.MustCompile(`SQLITE`),
	regexp.MustCompile(`^query timed out after `),
	regexp.MustCompile(`^result exceeds \d+ rows$`),
	regexp.MustCompile(`^empty query$`),
}

// NormalizeError applies the cosmetic filter to an engine error message
// before it is shown to the learner.
func NormalizeError(message string) string {
	message = strings.TrimSpace(message)

	if strings.Contains(message, "syntax error") {
		return "SQL syntax error: " + message
	}
	for _, p := range sqlErrorPatterns {
		if p.MatchString(message) {
			return message
		}
	}
	return "Error executing query. Please check your SQL syntax: " + message
}
