package game

// Level is a rung on the XP ladder
type Level struct {
	Number     int    `json:"number"`
	Name       string `json:"name"`
	XPRequired int    `json:"xp_required"`
}

// Levels is the fixed ladder, lowest first
var Levels = []Level{
	{1, "SQL Novice", 0},
	{2, "Query Learner", 100},
	{3, "Data Explorer", 250},
	{4, "Table Tamer", 500},
	{5, "Join Journeyman", 800},
	{6, "Aggregate Ace", 1200},
	{7, "Subquery Sage", 1700},
	{8, "Index Wizard", 2300},
	{9, "Database Guru", 3000},
	{10, "SQL Master", 4000},
}

// LevelFor returns the highest level whose threshold xp reaches
func LevelFor(xp int) Level {
	for i := len(Levels) - 1; i >= 0; i-- {
		if xp >= Levels[i].XPRequired {
			return Levels[i]
		}
	}
	return Levels[0]
}

// NextLevelXP returns the XP needed for the level after n. At the top of the
// ladder it returns the top threshold.
func NextLevelXP(n int) int {
	if n >= len(Levels) {
		return Levels[len(Levels)-1].XPRequired
	}
	if n < 1 {
		n = 1
	}
	return Levels[n].XPRequired
}

// LevelInfo returns the ladder entry for level n, or level 1 when n is unknown
func LevelInfo(n int) Level {
	for _, l := range Levels {
		if l.Number == n {
			return l
		}
	}
	return Levels[0]
}
