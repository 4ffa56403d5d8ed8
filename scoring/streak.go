package scoring

import "time"

// StreakState is the part of a profile the streak calculator reads and writes.
type StreakState struct {
	Streak        int        `json:"streak"`
	LongestStreak int        `json:"longest_streak"`
	LastTaskDate  *time.Time `json:"last_task_date"`
}

// StreakCalculator advances daily streaks. Calendar days are taken in Location.
type StreakCalculator struct {
	Location *time.Location
}

func (c StreakCalculator) location() *time.Location {
	if c.Location == nil {
		return time.Local
	}
	return c.Location
}

// Midnight normalizes t to the start of its calendar day.
func (c StreakCalculator) Midnight(t time.Time) time.Time {
	t = t.In(c.location())
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, c.location())
}

// Update computes the streak after a completion at now. It must run once per
// completion: a second completion on the same day leaves the streak as is.
func (c StreakCalculator) Update(prior StreakState, completedOnTime bool, now time.Time) StreakState {
	today := c.Midnight(now)

	var streak int
	switch {
	case prior.LastTaskDate == nil:
		streak = onTimeStart(completedOnTime)
	default:
		switch daysBetween(c.Midnight(*prior.LastTaskDate), today) {
		case 0:
			streak = prior.Streak
		case 1:
			if completedOnTime {
				streak = prior.Streak + 1
			}
		default:
			streak = onTimeStart(completedOnTime)
		}
	}

	longest := prior.LongestStreak
	if streak > longest {
		longest = streak
	}

	return StreakState{
		Streak:        streak,
		LongestStreak: longest,
		LastTaskDate:  &today,
	}
}

func onTimeStart(onTime bool) int {
	if onTime {
		return 1
	}
	return 0
}

// daysBetween counts calendar days from a to b using the civil date only, so a
// 23 or 25 hour DST day still counts as one.
func daysBetween(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bd.Sub(ad).Hours() / 24)
}
