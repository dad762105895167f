// Package hint derives graduated hints from a task's reference query and
// holds the XP penalty attached to each disclosure.
package hint

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/felixgeelhaar/sqlquest/internal/domain"
)

// MaxLevel is the most detailed hint
const MaxLevel = 3

// Hint is one disclosure step
type Hint struct {
	Level          int    `json:"level"`
	Text           string `json:"text"`
	PenaltyPercent int    `json:"penalty_percent"`
}

// penalties by hint level; index 0 means no hint used
var penalties = [MaxLevel + 1]int{0, 25, 50, 75}

var topicHints = map[domain.Topic]string{
	domain.TopicSelect:    "This exercise requires a SELECT statement to retrieve data from the database.",
	domain.TopicGroupBy:   "You'll need to use GROUP BY to aggregate data by specific columns.",
	domain.TopicJoin:      "This exercise requires joining multiple tables together. Think about which columns connect them.",
	domain.TopicSubquery:  "Consider using a subquery (a query inside another query) to solve this.",
	domain.TopicCTE:       "A Common Table Expression (WITH clause) will help organize this complex query.",
	domain.TopicWindow:    "Window functions like ROW_NUMBER(), RANK(), or aggregate functions with OVER() are needed.",
	domain.TopicAggregate: "Aggregate functions like SUM(), COUNT(), AVG(), MIN(), or MAX() are required.",
	domain.TopicAdvanced:  "This is an advanced query combining multiple SQL concepts.",
}

const defaultTopicHint = "Think about the SQL fundamentals for this query."

// For determines the three hints of a task. The result depends only on the
// task definition.
func For(task *domain.TaskDefinition) []Hint {
	sql := strings.ToUpper(task.ReferenceQuery)
	return []Hint{
		{Level: 1, Text: topicHint(task.Topic), PenaltyPercent: penalties[1]},
		{Level: 2, Text: keywordsHint(sql), PenaltyPercent: penalties[2]},
		{Level: 3, Text: structureHint(sql, task.TablesInvolved), PenaltyPercent: penalties[3]},
	}
}

// XPMultiplierPercent returns the share of XP kept after disclosures.
// Levels outside 0..3 are clamped.
func XPMultiplierPercent(level int, solutionShown bool) int {
	if solutionShown {
		return 0
	}
	return 100 - penalties[clamp(level)]
}

// ApplyPenalty scales base XP by the disclosure multiplier, rounding down
func ApplyPenalty(base, level int, solutionShown bool) int {
	return base * XPMultiplierPercent(level, solutionShown) / 100
}

// ValidLevel reports whether level names a hint
func ValidLevel(level int) bool {
	return level >= 1 && level <= MaxLevel
}

func clamp(level int) int {
	switch {
	case level < 0:
		return 0
	case level > MaxLevel:
		return MaxLevel
	default:
		return level
	}
}

func topicHint(topic domain.Topic) string {
	if h, ok := topicHints[topic]; ok {
		return h
	}
	return defaultTopicHint
}

// keyword checks in the order they are reported
var keywordChecks = []struct {
	label string
	match func(sql string) bool
}{
	{"SELECT", contains("SELECT")},
	{"DISTINCT", contains("DISTINCT")},
	{"FROM", contains("FROM")},
	{"WHERE", contains("WHERE")},
	{"", nil}, // join variant, see joinKeyword
	{"GROUP BY", contains("GROUP BY")},
	{"HAVING", contains("HAVING")},
	{"ORDER BY", contains("ORDER BY")},
	{"LIMIT", contains("LIMIT")},
	{"UNION", contains("UNION")},
	{"WITH (CTE)", contains("WITH ")},
	{"Window Function", func(sql string) bool {
		return strings.Contains(sql, "OVER(") || strings.Contains(sql, "OVER (")
	}},
	{"CASE", contains("CASE")},
	{"COALESCE", contains("COALESCE")},
	{"COUNT()", contains("COUNT(")},
	{"SUM()", contains("SUM(")},
	{"AVG()", contains("AVG(")},
	{"MIN()", contains("MIN(")},
	{"MAX()", contains("MAX(")},
}

func contains(keyword string) func(string) bool {
	return func(sql string) bool { return strings.Contains(sql, keyword) }
}

func joinKeyword(sql string) string {
	switch {
	case !strings.Contains(sql, "JOIN"):
		return ""
	case strings.Contains(sql, "LEFT JOIN"):
		return "LEFT JOIN"
	case strings.Contains(sql, "RIGHT JOIN"):
		return "RIGHT JOIN"
	case strings.Contains(sql, "INNER JOIN"):
		return "INNER JOIN"
	case strings.Contains(sql, "FULL"):
		return "FULL OUTER JOIN"
	default:
		return "JOIN"
	}
}

func keywordsHint(sql string) string {
	var keywords []string
	for _, k := range keywordChecks {
		if k.match == nil {
			if j := joinKeyword(sql); j != "" {
				keywords = append(keywords, j)
			}
			continue
		}
		if k.match(sql) {
			keywords = append(keywords, k.label)
		}
	}

	if len(keywords) == 0 {
		return "This query uses basic SQL syntax."
	}
	return "Keywords to use: " + strings.Join(keywords, ", ")
}

var (
	selectListRe = regexp.MustCompile(`(?s)SELECT\s+(.*?)\s+FROM`)
	whereRe      = regexp.MustCompile(`(?s)\bWHERE\b(.*?)(?:\bGROUP BY\b|\bORDER BY\b|\bLIMIT\b|$)`)
	connectiveRe = regexp.MustCompile(`\b(AND|OR)\b`)
	joinRe       = regexp.MustCompile(`\bJOIN\b`)
	groupByRe    = regexp.MustCompile(`(?s)GROUP BY\s+(.*?)(?:\bHAVING\b|\bORDER\b|\bLIMIT\b|\)|;|$)`)
	limitRe      = regexp.MustCompile(`LIMIT\s+(\d+)`)
)

func structureHint(sql string, tables []string) string {
	var parts []string

	if m := selectListRe.FindStringSubmatch(sql); m != nil {
		if strings.TrimSpace(m[1]) == "*" {
			parts = append(parts, "SELECT all columns (*)")
		} else {
			parts = append(parts, fmt.Sprintf("SELECT %d column(s)", len(strings.Split(m[1], ","))))
		}
	}

	parts = append(parts, "FROM table(s): "+strings.Join(tables, ", "))

	if m := whereRe.FindStringSubmatch(sql); m != nil {
		conditions := len(connectiveRe.FindAllString(m[1], -1)) + 1
		parts = append(parts, fmt.Sprintf("WHERE with %d condition(s)", conditions))
	}

	if joins := len(joinRe.FindAllString(sql, -1)); joins > 0 {
		parts = append(parts, fmt.Sprintf("%d JOIN(s)", joins))
	}

	if m := groupByRe.FindStringSubmatch(sql); m != nil {
		parts = append(parts, fmt.Sprintf("GROUP BY %d column(s)", len(strings.Split(m[1], ","))))
	}

	if strings.Contains(sql, "ORDER BY") {
		switch {
		case strings.Contains(sql, "DESC"):
			parts = append(parts, "ORDER BY ... DESC")
		case strings.Contains(sql, "ASC"):
			parts = append(parts, "ORDER BY ... ASC")
		default:
			parts = append(parts, "ORDER BY ...")
		}
	}

	if m := limitRe.FindStringSubmatch(sql); m != nil {
		parts = append(parts, "LIMIT "+m[1])
	}

	return "Query structure: " + strings.Join(parts, " → ")
}
