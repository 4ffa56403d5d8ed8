package domain

// RewardKind tags the category of a store item.
type RewardKind string

const (
	RewardBadge      RewardKind = "badge"
	RewardTheme      RewardKind = "theme"
	RewardBackground RewardKind = "background"
)

func (k RewardKind) Valid() bool {
	switch k {
	case RewardBadge, RewardTheme, RewardBackground:
		return true
	}
	return false
}

// Reward is an item in the points store. Icon is a rendering hint only.
type Reward struct {
	ID          string     `json:"id" yaml:"id"`
	Kind        RewardKind `json:"type" yaml:"type"`
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description" yaml:"description"`
	Price       int        `json:"price" yaml:"price"`
	Icon        string     `json:"icon,omitempty" yaml:"icon,omitempty"`
}
