package game

import "slices"

// Merge combines a local and a remote copy of the same learner's progress.
// Completed tasks and badges are unioned, XP and best streak take the
// maximum, and a remote attempt replaces the local one unless only the local
// one is completed. Transient current-task fields come from local. The
// result satisfies Validate when both inputs do.
func Merge(local, remote GameState) GameState {
	out := local.Clone()
	r := remote.Clone()

	for id, ra := range r.TaskAttempts {
		la, ok := out.TaskAttempts[id]
		if ra.Completed || !ok || !la.Completed {
			if ok {
				ra.HintsUsed = max(ra.HintsUsed, la.HintsUsed)
				ra.SolutionShown = ra.SolutionShown || la.SolutionShown
			}
			out.TaskAttempts[id] = ra
		}
	}

	out.CompletedTasks = union(out.CompletedTasks, r.CompletedTasks)
	for _, id := range out.CompletedTasks {
		a, ok := out.TaskAttempts[id]
		if !ok {
			a = TaskAttempt{TaskID: id}
		}
		a.Completed = true
		out.TaskAttempts[id] = a
	}
	out.UnlockedBadges = union(out.UnlockedBadges, r.UnlockedBadges)

	out.TotalXP = max(out.TotalXP, r.TotalXP)
	out.CurrentLevel = LevelFor(out.TotalXP).Number
	out.BestStreak = max(out.BestStreak, r.BestStreak, out.CurrentStreak)
	out.TotalAttempts = max(out.TotalAttempts, r.TotalAttempts)
	out.CorrectAttempts = max(out.CorrectAttempts, r.CorrectAttempts)
	out.TotalTimeSpentSeconds = max(out.TotalTimeSpentSeconds, r.TotalTimeSpentSeconds)
	out.DaysPlayed = max(out.DaysPlayed, r.DaysPlayed)

	return out
}

// union appends the members of b missing from a, keeping a's order
func union(a, b []string) []string {
	out := append([]string{}, a...)
	for _, id := range b {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
