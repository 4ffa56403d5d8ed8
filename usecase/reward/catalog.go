package reward

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/OmChannawar/Listify/domain"
)

// DefaultCatalog is served when no catalog file is configured.
var DefaultCatalog = []domain.Reward{
	{ID: "badge_champion", Kind: domain.RewardBadge, Name: "Champion Badge", Price: 100, Description: "Show off your champion status", Icon: "🏆"},
	{ID: "badge_star", Kind: domain.RewardBadge, Name: "Star Performer", Price: 150, Description: "You're a star!", Icon: "⭐"},
	{ID: "badge_fire", Kind: domain.RewardBadge, Name: "On Fire", Price: 200, Description: "Your streak is blazing", Icon: "🔥"},
	{ID: "theme_dark", Kind: domain.RewardTheme, Name: "Dark Mode Theme", Price: 250, Description: "Sleek dark interface", Icon: "🌙"},
	{ID: "theme_ocean", Kind: domain.RewardTheme, Name: "Ocean Theme", Price: 300, Description: "Calming blue waves", Icon: "🌊"},
	{ID: "theme_sunset", Kind: domain.RewardTheme, Name: "Sunset Theme", Price: 300, Description: "Warm sunset colors", Icon: "🌅"},
	{ID: "bg_gradient", Kind: domain.RewardBackground, Name: "Gradient Background", Price: 400, Description: "Colorful gradient background", Icon: "🎨"},
	{ID: "bg_galaxy", Kind: domain.RewardBackground, Name: "Galaxy Background", Price: 500, Description: "Stunning space background", Icon: "🌌"},
}

type catalogFile struct {
	Rewards []domain.Reward `yaml:"rewards"`
}

// LoadCatalog reads a YAML catalog of the form
//
//	rewards:
//	  - id: badge_star
//	    type: badge
//	    name: Star Performer
//	    price: 150
//
// An empty path returns DefaultCatalog.
func LoadCatalog(path string) ([]domain.Reward, error) {
	if path == "" {
		return DefaultCatalog, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and validates catalog YAML.
func ParseCatalog(data []byte) ([]domain.Reward, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := validateCatalog(file.Rewards); err != nil {
		return nil, err
	}
	return file.Rewards, nil
}

func validateCatalog(rewards []domain.Reward) error {
	if len(rewards) == 0 {
		return fmt.Errorf("catalog is empty")
	}
	seen := make(map[string]bool, len(rewards))
	for _, r := range rewards {
		switch {
		case r.ID == "":
			return fmt.Errorf("catalog entry %q has no id", r.Name)
		case seen[r.ID]:
			return fmt.Errorf("duplicate catalog id %q", r.ID)
		case !r.Kind.Valid():
			return fmt.Errorf("catalog entry %q has unknown type %q", r.ID, r.Kind)
		case r.Price < 0:
			return fmt.Errorf("catalog entry %q has a negative price", r.ID)
		}
		seen[r.ID] = true
	}
	return nil
}
