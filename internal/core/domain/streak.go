package domain

// StreakEvaluation is the outcome of a single streak evaluation.
type StreakEvaluation struct {
	Streak         int
	LastStreakDate string
	JustAchieved   bool
	JustLost       bool
}

// EvaluateStreak derives the new streak from today's step count. Pure: no
// clock, no I/O — today and yesterday are passed in as DateLayout keys.
//
// A day qualifies when steps reach streakGoal. Qualifying the day after the
// last qualifying day extends the streak; re-evaluating an already-counted
// day changes nothing; qualifying after a gap starts over at one. A streak is
// only declared lost once the last qualifying day has slipped strictly before
// yesterday — while today is still in progress nothing is taken away, and a
// loss fires at most once per calendar transition (afterwards LastStreakDate
// is empty, so re-evaluation lands in the no-change branch).
func EvaluateStreak(steps, streakGoal, currentStreak int, lastStreakDate, today, yesterday string) StreakEvaluation {
	out := StreakEvaluation{
		Streak:         currentStreak,
		LastStreakDate: lastStreakDate,
	}

	if steps >= streakGoal {
		switch lastStreakDate {
		case today:
			// Already counted today.
		case yesterday:
			out.Streak = currentStreak + 1
			out.LastStreakDate = today
			out.JustAchieved = true
		default:
			out.Streak = 1
			out.LastStreakDate = today
			out.JustAchieved = true
		}
		return out
	}

	if lastStreakDate != "" && lastStreakDate < yesterday && currentStreak > 0 {
		out.Streak = 0
		out.LastStreakDate = ""
		out.JustLost = true
	}

	return out
}
