package game

import "github.com/felixgeelhaar/sqlquest/internal/domain"

// Badge is an achievement a learner can unlock once
type Badge struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Badge identifiers
const (
	BadgeFirstQuery      = "first_query"
	BadgePerfect10       = "perfect_10"
	BadgeStreak5         = "streak_5"
	BadgeStreak10        = "streak_10"
	BadgeStreak20        = "streak_20"
	BadgeSpeedDemon      = "speed_demon"
	BadgeHalfWay         = "half_way"
	BadgeCompletionist   = "completionist"
	BadgeSelectMaster    = "select_master"
	BadgeJoinMaster      = "join_master"
	BadgeAggregateMaster = "aggregate_master"
	BadgeNightOwl        = "night_owl"
	BadgeEarlyBird       = "early_bird"
	BadgePersistent      = "persistent"
	BadgeLevel5          = "level_5"
	BadgeLevel10         = "level_10"
)

// Badges lists every badge
var Badges = []Badge{
	{BadgeFirstQuery, "First Steps", "Complete your first SQL query"},
	{BadgePerfect10, "Perfect 10", "Complete 10 queries on first try"},
	{BadgeStreak5, "On Fire!", "5 correct answers in a row"},
	{BadgeStreak10, "Unstoppable", "10 correct answers in a row"},
	{BadgeStreak20, "SQL Master", "20 correct answers in a row"},
	{BadgeSpeedDemon, "Speed Demon", "Complete a query in under 10 seconds"},
	{BadgeHalfWay, "Halfway There", "Complete 50% of all exercises"},
	{BadgeCompletionist, "Completionist", "Complete all exercises"},
	{BadgeSelectMaster, "SELECT Master", "Complete all SELECT exercises"},
	{BadgeJoinMaster, "JOIN Master", "Complete all JOIN exercises"},
	{BadgeAggregateMaster, "Aggregate Pro", "Complete all aggregate exercises"},
	{BadgeNightOwl, "Night Owl", "Practice SQL after midnight"},
	{BadgeEarlyBird, "Early Bird", "Practice SQL before 7 AM"},
	{BadgePersistent, "Persistent", "Try a query 5 times before succeeding"},
	{BadgeLevel5, "Rising Star", "Reach level 5"},
	{BadgeLevel10, "SQL Expert", "Reach level 10"},
}

// BadgeByID looks up a badge definition
func BadgeByID(id string) (Badge, bool) {
	for _, b := range Badges {
		if b.ID == id {
			return b, true
		}
	}
	return Badge{}, false
}

// topicBadges maps topics whose full completion unlocks a badge
var topicBadges = map[domain.Topic]string{
	domain.TopicSelect:    BadgeSelectMaster,
	domain.TopicJoin:      BadgeJoinMaster,
	domain.TopicAggregate: BadgeAggregateMaster,
}

// TopicProgress is how much of one topic the learner has completed,
// counting the task being completed.
type TopicProgress struct {
	Topic     domain.Topic `json:"topic"`
	Total     int          `json:"total"`
	Completed int          `json:"completed"`
}

// completionFacts is what badge predicates look at besides the state
type completionFacts struct {
	timeSpent  int
	attempts   int
	hour       int
	totalTasks int
	topic      *TopicProgress
}

// evaluateBadges returns badges newly earned by the state after a first
// completion, in a stable order. Already-unlocked badges are never returned.
func evaluateBadges(s *GameState, f completionFacts) []string {
	var earned []string
	award := func(id string, ok bool) {
		if ok && !s.HasBadge(id) {
			earned = append(earned, id)
		}
	}

	award(BadgeFirstQuery, len(s.CompletedTasks) == 1)
	award(BadgePerfect10, perfectCompletions(s) >= 10)
	award(BadgeStreak5, s.CurrentStreak >= 5)
	award(BadgeStreak10, s.CurrentStreak >= 10)
	award(BadgeStreak20, s.CurrentStreak >= 20)
	award(BadgeSpeedDemon, f.timeSpent < 10)

	if f.totalTasks > 0 {
		done := len(s.CompletedTasks)
		award(BadgeHalfWay, 2*done >= f.totalTasks)
		award(BadgeCompletionist, done >= f.totalTasks)
	}

	award(BadgeLevel5, s.CurrentLevel >= 5)
	award(BadgeLevel10, s.CurrentLevel >= 10)
	award(BadgePersistent, f.attempts >= 5)
	award(BadgeNightOwl, f.hour >= 0 && f.hour < 5)
	award(BadgeEarlyBird, f.hour >= 5 && f.hour < 7)

	if p := f.topic; p != nil && p.Total > 0 && p.Completed >= p.Total {
		if id, ok := topicBadges[p.Topic]; ok {
			award(id, true)
		}
	}
	return earned
}

// perfectCompletions counts completed tasks solved on the first try with no
// hints and no solution
func perfectCompletions(s *GameState) int {
	n := 0
	for _, a := range s.TaskAttempts {
		if a.Completed && a.FirstTry && a.HintsUsed == 0 && !a.SolutionShown {
			n++
		}
	}
	return n
}
