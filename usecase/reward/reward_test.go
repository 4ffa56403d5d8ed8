package reward

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/OmChannawar/Listify/domain"
	"github.com/OmChannawar/Listify/repository/bolt"
	"github.com/OmChannawar/Listify/scoring"
)

func newTestUseCase(t *testing.T, points int) (*UseCase, *bolt.Store) {
	t.Helper()
	store, err := bolt.Open(filepath.Join(t.TempDir(), "listify.db"), "")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	p := domain.NewProfile("u1", "Bronze")
	p.Points = points
	p.Rank = scoring.DeriveRank(points)
	if err := store.Profiles().Save(context.Background(), p); err != nil {
		t.Fatal(err)
	}
	return New(store, scoring.NewEngine(time.UTC), nil, nil, nil), store
}

func TestDefaultCatalog(t *testing.T) {
	uc, _ := newTestUseCase(t, 0)
	items := uc.Catalog()
	if len(items) != 8 {
		t.Fatalf("catalog size = %d, want 8", len(items))
	}
	if err := validateCatalog(items); err != nil {
		t.Errorf("default catalog invalid: %v", err)
	}
	items[0].Price = 0
	if again, _ := uc.Reward(items[0].ID); again.Price == 0 {
		t.Error("Catalog must return a copy")
	}
}

func TestPurchaseDebitsAndReranks(t *testing.T) {
	uc, store := newTestUseCase(t, 1600)
	ctx := context.Background()

	p, err := uc.Purchase(ctx, "u1", "bg_galaxy", 500)
	if err != nil {
		t.Fatalf("Purchase: %v", err)
	}
	if p.Points != 1100 || p.Rank != "Copper" || !p.Owns("bg_galaxy") {
		t.Errorf("profile = %+v, want 1100 Copper owning bg_galaxy", p)
	}

	stored, _ := store.Profiles().GetByID(ctx, "u1")
	if stored.Points != 1100 || stored.Rank != "Copper" {
		t.Errorf("stored = %d %s", stored.Points, stored.Rank)
	}
	items, _ := store.Activities().List(ctx, "u1", 0)
	if len(items) != 1 || items[0].Points != -500 || items[0].Balance != 1100 || items[0].Kind != domain.ActivityRewardPurchased {
		t.Errorf("activity = %+v", items)
	}
}

func TestPurchaseRejections(t *testing.T) {
	tests := []struct {
		name     string
		points   int
		owned    []string
		rewardID string
		price    int
		check    func(error) bool
	}{
		{"unknown reward", 1000, nil, "nope", 100, func(err error) bool { return errors.Is(err, domain.ErrRewardNotFound) }},
		{"negative price", 1000, nil, "badge_star", -1, func(err error) bool { return domain.IsDomainError(err, domain.ErrCodeInvalid) }},
		{"price mismatch", 1000, nil, "badge_star", 1, func(err error) bool { return domain.IsDomainError(err, domain.ErrCodeInvalid) }},
		{"insufficient balance", 100, nil, "badge_star", 150, func(err error) bool { return errors.Is(err, domain.ErrInsufficientBalance) }},
		{"already owned", 1000, []string{"badge_star"}, "badge_star", 150, func(err error) bool { return errors.Is(err, domain.ErrAlreadyPurchased) }},
		{"balance checked before ownership", 100, []string{"badge_star"}, "badge_star", 150, func(err error) bool { return errors.Is(err, domain.ErrInsufficientBalance) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, store := newTestUseCase(t, tt.points)
			ctx := context.Background()
			if tt.owned != nil {
				p, _ := store.Profiles().GetByID(ctx, "u1")
				p.PurchasedItems = tt.owned
				if err := store.Profiles().Save(ctx, p); err != nil {
					t.Fatal(err)
				}
			}

			_, err := uc.Purchase(ctx, "u1", tt.rewardID, tt.price)
			if !tt.check(err) {
				t.Fatalf("unexpected error %v", err)
			}
			p, _ := store.Profiles().GetByID(ctx, "u1")
			if p.Points != tt.points {
				t.Errorf("points = %d, rejected purchase must not debit", p.Points)
			}
			if items, _ := store.Activities().List(ctx, "u1", 0); len(items) != 0 {
				t.Errorf("rejected purchase wrote activity %+v", items)
			}
		})
	}
}

func TestPurchaseExactBalance(t *testing.T) {
	uc, _ := newTestUseCase(t, 150)
	p, err := uc.Purchase(context.Background(), "u1", "badge_star", 150)
	if err != nil {
		t.Fatalf("Purchase: %v", err)
	}
	if p.Points != 0 || p.Rank != "Bronze" {
		t.Errorf("profile = %d %s", p.Points, p.Rank)
	}
}

func TestParseCatalog(t *testing.T) {
	good := `
rewards:
  - id: badge_owl
    type: badge
    name: Night Owl
    description: Finished after midnight
    price: 120
  - id: theme_forest
    type: theme
    name: Forest
    price: 220
`
	items, err := ParseCatalog([]byte(good))
	if err != nil {
		t.Fatalf("ParseCatalog: %v", err)
	}
	if len(items) != 2 || items[0].Kind != domain.RewardBadge || items[1].Price != 220 {
		t.Errorf("items = %+v", items)
	}

	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"empty", "rewards: []", "empty"},
		{"duplicate", "rewards:\n  - {id: a, type: badge, price: 1}\n  - {id: a, type: theme, price: 2}", "duplicate"},
		{"bad type", "rewards:\n  - {id: a, type: sticker, price: 1}", "unknown type"},
		{"negative", "rewards:\n  - {id: a, type: badge, price: -5}", "negative"},
		{"malformed", "rewards: [", "parse catalog"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tt.yaml))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadCatalogFromFile(t *testing.T) {
	items, err := LoadCatalog("")
	if err != nil || len(items) != len(DefaultCatalog) {
		t.Fatalf("empty path: %v, %d items", err, len(items))
	}

	path := filepath.Join(t.TempDir(), "rewards.yaml")
	if err := os.WriteFile(path, []byte("rewards:\n  - {id: bg_space, type: background, name: Space, price: 900}\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	items, err = LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	if len(items) != 1 || items[0].ID != "bg_space" {
		t.Errorf("items = %+v", items)
	}

	if _, err := LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
