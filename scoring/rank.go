package scoring

// Tier is a named rank with the minimum points required to hold it.
type Tier struct {
	Name      string `json:"name"`
	MinPoints int    `json:"min_points"`
}

// RankTable is ordered from the highest threshold to the lowest. The last tier
// must have a threshold of zero so every non-negative balance maps to a tier.
type RankTable []Tier

// DefaultRanks is the production tier list.
var DefaultRanks = RankTable{
	{Name: "Legendary", MinPoints: 10000},
	{Name: "Ruby", MinPoints: 7500},
	{Name: "Platinum", MinPoints: 5000},
	{Name: "Gold", MinPoints: 3000},
	{Name: "Silver", MinPoints: 1500},
	{Name: "Copper", MinPoints: 750},
	{Name: "Iron", MinPoints: 250},
	{Name: "Bronze", MinPoints: 0},
}

// Derive returns the highest tier whose threshold is at or below points.
func (t RankTable) Derive(points int) string {
	for _, tier := range t {
		if points >= tier.MinPoints {
			return tier.Name
		}
	}
	return t.Lowest()
}

// Lowest returns the entry tier assigned to new profiles.
func (t RankTable) Lowest() string {
	if len(t) == 0 {
		return ""
	}
	return t[len(t)-1].Name
}

// Next returns the tier above the one points currently qualifies for, and
// whether such a tier exists.
func (t RankTable) Next(points int) (Tier, bool) {
	var next Tier
	found := false
	for _, tier := range t {
		if tier.MinPoints > points {
			next = tier
			found = true
			continue
		}
		break
	}
	return next, found
}

// DeriveRank derives a rank using DefaultRanks.
func DeriveRank(points int) string {
	return DefaultRanks.Derive(points)
}
