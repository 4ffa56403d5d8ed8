package analytics

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/OmChannawar/Listify/domain"
	"github.com/OmChannawar/Listify/pkg/logger"
	"github.com/OmChannawar/Listify/repository"
	"github.com/OmChannawar/Listify/scoring"
	"github.com/OmChannawar/Listify/usecase"
)

// Days is the length of the daily completion series.
const Days = 7

type DailyStat struct {
	Date      string `json:"date"`
	Completed int    `json:"completed"`
	OnTime    int    `json:"on_time"`
}

type Summary struct {
	TotalTasks     int         `json:"total_tasks"`
	CompletedTasks int         `json:"completed_tasks"`
	CompletionRate float64     `json:"completion_rate"`
	OnTimeRate     float64     `json:"on_time_rate"`
	Streak         int         `json:"streak"`
	LongestStreak  int         `json:"longest_streak"`
	Rank           string      `json:"rank"`
	// NextRank is empty at the top tier.
	NextRank         string      `json:"next_rank,omitempty"`
	PointsToNextRank int         `json:"points_to_next_rank"`
	DailyData        []DailyStat `json:"daily_data"`
}

type UseCase struct {
	store  repository.Store
	engine *scoring.Engine
	index  repository.LeaderboardIndex
	loc    *time.Location
	logger *zap.Logger
}

// New builds the analytics reader. Days are bucketed in loc. index may be nil;
// it only learns about profiles this reader creates on first access.
func New(store repository.Store, engine *scoring.Engine, index repository.LeaderboardIndex, loc *time.Location, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}
	if engine == nil {
		engine = scoring.NewEngine(loc)
	}
	return &UseCase{
		store:  store,
		engine: engine,
		index:  index,
		loc:    loc,
		logger: logger,
	}
}

// Summary reports completion statistics for ownerID as of now. Rates are
// percentages in [0, 100]; the on-time rate comes from the profile counters so
// it survives task deletion.
func (uc *UseCase) Summary(ctx context.Context, ownerID string, now time.Time) (*Summary, error) {
	profile, created, err := usecase.EnsureProfile(ctx, uc.store.Profiles(), ownerID, uc.engine.LowestRank())
	if err != nil {
		return nil, err
	}
	if created {
		usecase.RecordScore(ctx, uc.index, logger.WithRequestID(ctx, uc.logger), profile)
	}
	tasks, err := uc.store.Tasks().List(ctx, repository.TaskFilter{OwnerID: ownerID})
	if err != nil {
		return nil, err
	}

	out := &Summary{
		TotalTasks:    len(tasks),
		Streak:        profile.Streak,
		LongestStreak: profile.LongestStreak,
		Rank:          profile.Rank,
		DailyData:     uc.daily(tasks, now),
	}
	if next, remaining, ok := uc.engine.NextTier(profile.Points); ok {
		out.NextRank = next.Name
		out.PointsToNextRank = remaining
	}
	for i := range tasks {
		if tasks[i].Completed {
			out.CompletedTasks++
		}
	}
	if out.TotalTasks > 0 {
		out.CompletionRate = percent(out.CompletedTasks, out.TotalTasks)
	}
	if profile.TotalTasksCompleted > 0 {
		out.OnTimeRate = percent(profile.TasksCompletedOnTime, profile.TotalTasksCompleted)
	}
	return out, nil
}

// daily buckets completions into the last Days calendar days, oldest first.
func (uc *UseCase) daily(tasks []domain.Task, now time.Time) []DailyStat {
	local := now.In(uc.loc)
	index := make(map[string]int, Days)
	stats := make([]DailyStat, Days)
	for i := 0; i < Days; i++ {
		day := local.AddDate(0, 0, i-(Days-1)).Format("2006-01-02")
		stats[i].Date = day
		index[day] = i
	}

	for i := range tasks {
		t := tasks[i]
		if !t.Completed || t.CompletedAt == nil {
			continue
		}
		pos, ok := index[t.CompletedAt.In(uc.loc).Format("2006-01-02")]
		if !ok {
			continue
		}
		stats[pos].Completed++
		// Only tasks that had a deadline can be on time here.
		if t.Deadline != nil && scoring.IsOnTime(t.Deadline, *t.CompletedAt) {
			stats[pos].OnTime++
		}
	}
	return stats
}

func percent(part, whole int) float64 {
	return float64(part) / float64(whole) * 100
}
