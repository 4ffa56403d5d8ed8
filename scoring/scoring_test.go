package scoring

import (
	"errors"
	"testing"
	"time"

	"github.com/OmChannawar/Listify/domain"
)

func TestDeriveRankThresholds(t *testing.T) {
	cases := []struct {
		points int
		want   string
	}{
		{0, "Bronze"},
		{249, "Bronze"},
		{250, "Iron"},
		{749, "Iron"},
		{750, "Copper"},
		{1500, "Silver"},
		{2999, "Silver"},
		{3000, "Gold"},
		{5000, "Platinum"},
		{7499, "Platinum"},
		{7500, "Ruby"},
		{9999, "Ruby"},
		{10000, "Legendary"},
		{1 << 30, "Legendary"},
		{-5, "Bronze"},
	}
	for _, tc := range cases {
		if got := DeriveRank(tc.points); got != tc.want {
			t.Errorf("DeriveRank(%d) = %q, want %q", tc.points, got, tc.want)
		}
	}
}

func TestDeriveRankMonotonic(t *testing.T) {
	order := make(map[string]int, len(DefaultRanks))
	for i, tier := range DefaultRanks {
		order[tier.Name] = len(DefaultRanks) - i
	}
	prev := order[DeriveRank(0)]
	for p := 1; p <= 12000; p++ {
		cur, ok := order[DeriveRank(p)]
		if !ok {
			t.Fatalf("DeriveRank(%d) returned unknown tier", p)
		}
		if cur < prev {
			t.Fatalf("rank decreased at %d points", p)
		}
		prev = cur
	}
}

func TestRankTableNext(t *testing.T) {
	next, ok := DefaultRanks.Next(2990)
	if !ok || next.Name != "Gold" {
		t.Errorf("Next(2990) = %v, %v, want Gold", next, ok)
	}
	if _, ok := DefaultRanks.Next(10000); ok {
		t.Error("expected no tier above Legendary")
	}
}

func day(d int, hour int) time.Time {
	return time.Date(2024, time.March, d, hour, 0, 0, 0, time.UTC)
}

func TestStreakSequence(t *testing.T) {
	calc := StreakCalculator{Location: time.UTC}
	steps := []struct {
		name   string
		at     time.Time
		onTime bool
		want   int
	}{
		{"first on-time completion", day(1, 9), true, 1},
		{"next day on time", day(2, 10), true, 2},
		{"same day again", day(2, 22), true, 2},
		{"late next day breaks", day(3, 8), false, 0},
		{"gap then on time", day(5, 12), true, 1},
	}

	var state StreakState
	for _, step := range steps {
		state = calc.Update(state, step.onTime, step.at)
		if state.Streak != step.want {
			t.Fatalf("%s: streak = %d, want %d", step.name, state.Streak, step.want)
		}
		if state.LongestStreak < state.Streak {
			t.Fatalf("%s: longest %d < streak %d", step.name, state.LongestStreak, state.Streak)
		}
		want := time.Date(step.at.Year(), step.at.Month(), step.at.Day(), 0, 0, 0, 0, time.UTC)
		if !state.LastTaskDate.Equal(want) {
			t.Fatalf("%s: last task date = %v, want %v", step.name, state.LastTaskDate, want)
		}
	}
	if state.LongestStreak != 2 {
		t.Errorf("longest streak = %d, want 2", state.LongestStreak)
	}
}

func TestStreakFirstLateCompletion(t *testing.T) {
	calc := StreakCalculator{Location: time.UTC}
	state := calc.Update(StreakState{}, false, day(1, 9))
	if state.Streak != 0 || state.LongestStreak != 0 {
		t.Errorf("got %+v, want zero streak", state)
	}
	if state.LastTaskDate == nil {
		t.Error("expected last task date to be set")
	}
}

func TestStreakSameDayLateKeepsStreak(t *testing.T) {
	calc := StreakCalculator{Location: time.UTC}
	state := calc.Update(StreakState{}, true, day(1, 9))
	state = calc.Update(state, false, day(1, 23))
	if state.Streak != 1 {
		t.Errorf("streak = %d, want 1", state.Streak)
	}
}

func TestStreakClockBackwardsResets(t *testing.T) {
	calc := StreakCalculator{Location: time.UTC}
	last := day(10, 0)
	state := calc.Update(StreakState{Streak: 4, LongestStreak: 6, LastTaskDate: &last}, true, day(8, 12))
	if state.Streak != 1 || state.LongestStreak != 6 {
		t.Errorf("got %+v, want streak 1 longest 6", state)
	}
}

func TestStreakAcrossDSTUsesCalendarDays(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	calc := StreakCalculator{Location: loc}
	state := calc.Update(StreakState{}, true, time.Date(2024, time.March, 9, 20, 0, 0, 0, loc))
	state = calc.Update(state, true, time.Date(2024, time.March, 10, 20, 0, 0, 0, loc))
	if state.Streak != 2 {
		t.Errorf("streak across DST = %d, want 2", state.Streak)
	}
}

func TestStreakLocalMidnightBoundary(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*60*60)
	calc := StreakCalculator{Location: loc}
	// 20:00 UTC on the 1st is already the 2nd in UTC+5.
	state := calc.Update(StreakState{}, true, time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC))
	state = calc.Update(state, true, time.Date(2024, time.March, 1, 20, 0, 0, 0, time.UTC))
	if state.Streak != 2 {
		t.Errorf("streak = %d, want 2", state.Streak)
	}
}

func newTask(owner string, deadline *time.Time) domain.Task {
	return domain.Task{ID: "task-1", OwnerID: owner, Title: "write report", Deadline: deadline, DeadlineLocked: deadline != nil}
}

func TestCompleteOnTimeFromZero(t *testing.T) {
	engine := NewEngine(time.UTC)
	now := day(1, 9)
	deadline := now.Add(time.Hour)

	res, err := engine.Complete(newTask("u1", &deadline), domain.Profile{ID: "u1", Rank: "Bronze"}, now)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if res.PointsEarned != 20 || !res.OnTime {
		t.Errorf("points = %d on time = %v, want 20 true", res.PointsEarned, res.OnTime)
	}
	if res.Profile.Points != 20 || res.Profile.Rank != "Bronze" {
		t.Errorf("profile = %d/%s, want 20/Bronze", res.Profile.Points, res.Profile.Rank)
	}
	if !res.Task.Completed || res.Task.CompletedAt == nil || !res.Task.CompletedAt.Equal(now) {
		t.Errorf("task not marked completed at %v: %+v", now, res.Task)
	}
	if res.Profile.TotalTasksCompleted != 1 || res.Profile.TasksCompletedOnTime != 1 {
		t.Errorf("counters = %d/%d, want 1/1", res.Profile.TotalTasksCompleted, res.Profile.TasksCompletedOnTime)
	}
	if res.Profile.Streak != 1 || res.Streak.Streak != 1 {
		t.Errorf("streak = %d, want 1", res.Profile.Streak)
	}
}

func TestCompleteCrossesGold(t *testing.T) {
	engine := NewEngine(time.UTC)
	now := day(1, 9)
	deadline := now.Add(time.Hour)

	res, err := engine.Complete(newTask("u1", &deadline), domain.Profile{ID: "u1", Points: 2990, Rank: "Silver"}, now)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if res.Profile.Points != 3010 || res.Profile.Rank != "Gold" {
		t.Errorf("profile = %d/%s, want 3010/Gold", res.Profile.Points, res.Profile.Rank)
	}
}

func TestCompleteAtExactDeadlineIsOnTime(t *testing.T) {
	engine := NewEngine(time.UTC)
	deadline := day(1, 9)
	res, err := engine.Complete(newTask("u1", &deadline), domain.Profile{ID: "u1"}, deadline)
	if err != nil {
		t.Fatal(err)
	}
	if !res.OnTime || res.PointsEarned != 20 {
		t.Errorf("got on time %v points %d, want true 20", res.OnTime, res.PointsEarned)
	}
}

func TestCompleteLate(t *testing.T) {
	engine := NewEngine(time.UTC)
	deadline := day(1, 9)
	res, err := engine.Complete(newTask("u1", &deadline), domain.Profile{ID: "u1"}, deadline.Add(time.Nanosecond))
	if err != nil {
		t.Fatal(err)
	}
	if res.OnTime || res.PointsEarned != 5 {
		t.Errorf("got on time %v points %d, want false 5", res.OnTime, res.PointsEarned)
	}
	if res.Profile.TasksCompletedOnTime != 0 || res.Profile.TotalTasksCompleted != 1 {
		t.Errorf("counters = %d/%d, want 1/0", res.Profile.TotalTasksCompleted, res.Profile.TasksCompletedOnTime)
	}
	if res.Profile.Streak != 0 {
		t.Errorf("streak = %d, want 0", res.Profile.Streak)
	}
}

func TestCompleteWithoutDeadlineIsOnTime(t *testing.T) {
	engine := NewEngine(time.UTC)
	res, err := engine.Complete(newTask("u1", nil), domain.Profile{ID: "u1"}, day(1, 9))
	if err != nil {
		t.Fatal(err)
	}
	if !res.OnTime {
		t.Error("expected completion without deadline to be on time")
	}
}

func TestCompleteRejections(t *testing.T) {
	engine := NewEngine(time.UTC)
	now := day(1, 9)

	done := newTask("u1", nil)
	done.Completed = true
	if _, err := engine.Complete(done, domain.Profile{ID: "u1"}, now); !errors.Is(err, domain.ErrAlreadyCompleted) {
		t.Errorf("expected ErrAlreadyCompleted, got %v", err)
	}

	if _, err := engine.Complete(newTask("u1", nil), domain.Profile{ID: "u2"}, now); !errors.Is(err, domain.ErrNotOwner) {
		t.Errorf("expected ErrNotOwner, got %v", err)
	}
}

func TestCompleteDoesNotMutateInputs(t *testing.T) {
	engine := NewEngine(time.UTC)
	task := newTask("u1", nil)
	task.Subtasks = []domain.Subtask{{ID: "s1", Text: "draft"}}
	profile := domain.Profile{ID: "u1", PurchasedItems: []string{"badge_star"}}

	res, err := engine.Complete(task, profile, day(1, 9))
	if err != nil {
		t.Fatal(err)
	}
	res.Task.Subtasks[0].Completed = true
	res.Profile.PurchasedItems[0] = "changed"

	if task.Completed || task.CompletedAt != nil || task.Subtasks[0].Completed {
		t.Error("input task was mutated")
	}
	if profile.Points != 0 || profile.PurchasedItems[0] != "badge_star" {
		t.Error("input profile was mutated")
	}
}

func TestRerankAfterSpend(t *testing.T) {
	engine := NewEngine(time.UTC)
	p := &domain.Profile{Points: 3010, Rank: "Gold"}
	p.Points -= 100
	engine.Rerank(p)
	if p.Rank != "Silver" {
		t.Errorf("rank = %q, want Silver", p.Rank)
	}
}
