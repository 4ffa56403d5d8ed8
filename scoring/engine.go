package scoring

import (
	"time"

	"github.com/OmChannawar/Listify/domain"
)

const (
	// BasePoints is awarded for every completion.
	BasePoints = 5
	// OnTimeBonus is added when the completion is at or before the deadline.
	OnTimeBonus = 15
)

// Result is everything a single completion changes.
type Result struct {
	Task         domain.Task    `json:"task"`
	PointsEarned int            `json:"points_earned"`
	OnTime       bool           `json:"on_time"`
	Profile      domain.Profile `json:"profile"`
	Streak       StreakState    `json:"streak"`
}

// Engine applies the completion rules. It holds no state and never mutates its
// inputs.
type Engine struct {
	Ranks   RankTable
	Streaks StreakCalculator
}

// NewEngine builds an engine with the default rank table.
func NewEngine(loc *time.Location) *Engine {
	return &Engine{
		Ranks:   DefaultRanks,
		Streaks: StreakCalculator{Location: loc},
	}
}

func (e *Engine) ranks() RankTable {
	if len(e.Ranks) == 0 {
		return DefaultRanks
	}
	return e.Ranks
}

// IsOnTime reports whether completing at now meets the deadline. A completion
// at the exact deadline instant counts; no deadline is always on time.
func IsOnTime(deadline *time.Time, now time.Time) bool {
	return deadline == nil || !now.After(*deadline)
}

// PointsFor returns the award for a completion.
func PointsFor(onTime bool) int {
	if onTime {
		return BasePoints + OnTimeBonus
	}
	return BasePoints
}

// Complete computes the completed task and updated profile. Either every field
// of the result reflects the completion or an error is returned.
func (e *Engine) Complete(task domain.Task, profile domain.Profile, now time.Time) (Result, error) {
	if task.Completed {
		return Result{}, domain.ErrAlreadyCompleted
	}
	if task.OwnerID != profile.ID {
		return Result{}, domain.ErrNotOwner
	}

	onTime := IsOnTime(task.Deadline, now)
	earned := PointsFor(onTime)

	updatedTask := task.Clone()
	completedAt := now
	updatedTask.Completed = true
	updatedTask.CompletedAt = &completedAt
	updatedTask.UpdatedAt = now

	streak := e.Streaks.Update(StreakState{
		Streak:        profile.Streak,
		LongestStreak: profile.LongestStreak,
		LastTaskDate:  profile.LastTaskDate,
	}, onTime, now)

	updated := profile.Clone()
	updated.Points = profile.Points + earned
	updated.Rank = e.ranks().Derive(updated.Points)
	updated.TotalTasksCompleted++
	if onTime {
		updated.TasksCompletedOnTime++
	}
	updated.Streak = streak.Streak
	updated.LongestStreak = streak.LongestStreak
	updated.LastTaskDate = streak.LastTaskDate
	updated.UpdatedAt = now

	return Result{
		Task:         updatedTask,
		PointsEarned: earned,
		OnTime:       onTime,
		Profile:      updated,
		Streak:       streak,
	}, nil
}

// Rerank recomputes the rank after a balance change outside of completion.
func (e *Engine) Rerank(p *domain.Profile) {
	if p == nil {
		return
	}
	if p.Points < 0 {
		p.Points = 0
	}
	p.Rank = e.ranks().Derive(p.Points)
}

// LowestRank is the tier new profiles start at.
func (e *Engine) LowestRank() string {
	return e.ranks().Lowest()
}

// NextTier returns the tier above points and how many points it still needs.
// ok is false at the top tier.
func (e *Engine) NextTier(points int) (tier Tier, remaining int, ok bool) {
	tier, ok = e.ranks().Next(points)
	if !ok {
		return Tier{}, 0, false
	}
	return tier, tier.MinPoints - points, true
}
