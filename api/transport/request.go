package transport

import (
	"strings"
	"time"

	"github.com/OmChannawar/Listify/domain"
)

// DeadlineLocalLayout is the browser datetime-local format.
const DeadlineLocalLayout = "2006-01-02T15:04"

type SubtaskRequest struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

type TaskCreateRequest struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Link        string           `json:"link"`
	Deadline    string           `json:"deadline"`
	Subtasks    []SubtaskRequest `json:"subtasks"`
}

// TaskUpdateRequest uses pointers so absent fields stay untouched. Identity,
// owner and completion fields are not decoded.
type TaskUpdateRequest struct {
	Title       *string           `json:"title"`
	Description *string           `json:"description"`
	Link        *string           `json:"link"`
	Deadline    *string           `json:"deadline"`
	Subtasks    *[]SubtaskRequest `json:"subtasks"`
}

type ProfileUpdateRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

type PurchaseRequest struct {
	RewardID string `json:"reward_id"`
	// Price defaults to the catalog price when omitted.
	Price *int `json:"price"`
}

type AddFriendRequest struct {
	Email string `json:"email"`
}

// ParseDeadline accepts RFC 3339 or datetime-local, the latter read in loc.
func ParseDeadline(raw string, loc *time.Location) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DeadlineLocalLayout, raw, loc)
	if err != nil {
		return nil, domain.Invalid("invalid deadline %q", raw)
	}
	return &t, nil
}

func ToSubtasks(in []SubtaskRequest) []domain.Subtask {
	out := make([]domain.Subtask, 0, len(in))
	for _, s := range in {
		out = append(out, domain.Subtask{ID: s.ID, Text: s.Text, Completed: s.Completed})
	}
	return out
}
