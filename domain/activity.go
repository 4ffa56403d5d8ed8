package domain

import "time"

// ActivityKind names the reason a profile balance changed.
type ActivityKind string

const (
	ActivityTaskCompleted   ActivityKind = "task_completed"
	ActivityRewardPurchased ActivityKind = "reward_purchased"
)

// Activity records a single points movement on a profile. It is written in the
// same transaction as the change it describes.
type Activity struct {
	ID        string       `json:"id"`
	ProfileID string       `json:"profile_id"`
	Kind      ActivityKind `json:"kind"`
	Points    int          `json:"points"`
	RefID     string       `json:"ref_id"`
	Balance   int          `json:"balance"`
	CreatedAt time.Time    `json:"created_at"`
}
