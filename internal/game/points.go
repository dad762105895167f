package game

import "github.com/felixgeelhaar/sqlquest/internal/domain"

const (
	// speedWindowSeconds is the completion time under which a speed bonus applies
	speedWindowSeconds = 30
	// maxStreakBonusSteps caps the streak bonus at 100% of base
	maxStreakBonusSteps = 10
)

// BasePoints returns the points a task of the given difficulty is worth
// before bonuses. Unknown difficulties count as beginner.
func BasePoints(d domain.Difficulty) int {
	switch d {
	case domain.DifficultyIntermediate:
		return 20
	case domain.DifficultyAdvanced:
		return 35
	default:
		return 10
	}
}

// Points computes the pre-penalty award for a completion. streak is the
// streak including this completion.
//
//	base
//	+ floor(base * 0.5)                       on first try
//	+ floor(base * min(streak * 0.1, 1.0))
//	+ floor(base * ((30 - t) / 30) * 0.5)     when t < 30s
func Points(firstTry bool, streak, timeSpentSeconds int, d domain.Difficulty) int {
	base := BasePoints(d)
	points := base

	if firstTry {
		points += base / 2
	}

	steps := min(max(streak, 0), maxStreakBonusSteps)
	points += base * steps / maxStreakBonusSteps

	t := max(timeSpentSeconds, 0)
	if t < speedWindowSeconds {
		points += base * (speedWindowSeconds - t) / (2 * speedWindowSeconds)
	}

	return points
}
