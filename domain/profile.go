package domain

import "time"

// Profile holds a user's cumulative progression state. Points, rank and the
// streak counters are only ever changed by task completion and reward purchase.
type Profile struct {
	ID                   string     `json:"id"`
	Name                 string     `json:"name"`
	Email                string     `json:"email,omitempty"`
	Points               int        `json:"points"`
	Rank                 string     `json:"rank"`
	Streak               int        `json:"streak"`
	LongestStreak        int        `json:"longest_streak"`
	LastTaskDate         *time.Time `json:"last_task_date"`
	TotalTasksCompleted  int        `json:"total_tasks_completed"`
	TasksCompletedOnTime int        `json:"tasks_completed_on_time"`
	PurchasedItems       []string   `json:"purchased_items"`
	Friends              []string   `json:"friends"`
	// Version increases by one on every stored write. Stores assign it.
	Version              int64      `json:"version"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// DefaultProfileName is used for profiles created lazily on first access.
const DefaultProfileName = "New User"

// NewProfile returns a zeroed profile at the lowest tier.
func NewProfile(id string, lowestRank string) *Profile {
	now := time.Now()
	return &Profile{
		ID:             id,
		Name:           DefaultProfileName,
		Rank:           lowestRank,
		PurchasedItems: []string{},
		Friends:        []string{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func (p *Profile) Owns(rewardID string) bool {
	return p != nil && containsString(p.PurchasedItems, rewardID)
}

// Follows reports whether userID is in the profile's friends list. The relation
// is one-directional.
func (p *Profile) Follows(userID string) bool {
	return p != nil && containsString(p.Friends, userID)
}

func (p *Profile) Touch() {
	if p == nil {
		return
	}
	p.UpdatedAt = time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = p.UpdatedAt
	}
}

// Clone returns a deep copy of the profile.
func (p Profile) Clone() Profile {
	out := p
	if p.LastTaskDate != nil {
		d := *p.LastTaskDate
		out.LastTaskDate = &d
	}
	out.PurchasedItems = append([]string{}, p.PurchasedItems...)
	out.Friends = append([]string{}, p.Friends...)
	return out
}

// LeaderboardEntry is the public projection of a profile used by rankings.
type LeaderboardEntry struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Points int    `json:"points"`
	Rank   string `json:"rank"`
	Streak int    `json:"streak"`
}

func (p *Profile) Entry() LeaderboardEntry {
	return LeaderboardEntry{
		ID:     p.ID,
		Name:   p.Name,
		Points: p.Points,
		Rank:   p.Rank,
		Streak: p.Streak,
	}
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
