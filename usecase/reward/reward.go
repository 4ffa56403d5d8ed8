package reward

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

type UseCase struct {
	store   repository.Store
	engine  *scoring.Engine
	index   repository.LeaderboardIndex
	catalog []domain.Reward
	byID    map[string]domain.Reward
	logger  *zap.Logger
}

// New wires the reward ledger. A nil catalog falls back to DefaultCatalog.
func New(store repository.Store, engine *scoring.Engine, catalog []domain.Reward, index repository.LeaderboardIndex, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if engine == nil {
		engine = scoring.NewEngine(time.Local)
	}
	if len(catalog) == 0 {
		catalog = DefaultCatalog
	}
	byID := make(map[string]domain.Reward, len(catalog))
	for _, r := range catalog {
		byID[r.ID] = r
	}
	return &UseCase{
		store:   store,
		engine:  engine,
		index:   index,
		catalog: catalog,
		byID:    byID,
		logger:  logger,
	}
}

// Catalog returns a copy of the store items.
func (uc *UseCase) Catalog() []domain.Reward {
	return append([]domain.Reward(nil), uc.catalog...)
}

func (uc *UseCase) Reward(id string) (domain.Reward, error) {
	r, ok := uc.byID[id]
	if !ok {
		return domain.Reward{}, domain.ErrRewardNotFound
	}
	return r, nil
}

// Purchase debits price from the owner's balance and records the item. The
// balance is checked before ownership.
func (uc *UseCase) Purchase(ctx context.Context, ownerID, rewardID string, price int) (*domain.Profile, error) {
	if ownerID == "" {
		return nil, domain.ErrUnauthorized
	}
	item, err := uc.Reward(rewardID)
	if err != nil {
		return nil, err
	}
	if price < 0 {
		return nil, domain.Invalid("price cannot be negative")
	}
	if price != item.Price {
		return nil, domain.Invalid("price %d does not match %q (%d)", price, item.ID, item.Price)
	}

	var updated *domain.Profile
	err = uc.store.WithinTx(ctx, func(tx repository.Tx) error {
		p, _, err := usecase.EnsureProfile(ctx, tx.Profiles(), ownerID, uc.engine.LowestRank())
		if err != nil {
			return err
		}
		if p.Points < price {
			return domain.ErrInsufficientBalance
		}
		if p.Owns(item.ID) {
			return domain.ErrAlreadyPurchased
		}

		p.Points -= price
		p.PurchasedItems = append(p.PurchasedItems, item.ID)
		uc.engine.Rerank(p)
		if err := tx.Profiles().Save(ctx, p); err != nil {
			return err
		}
		if err := tx.Activities().Append(ctx, &domain.Activity{
			ProfileID: ownerID,
			Kind:      domain.ActivityRewardPurchased,
			Points:    -price,
			RefID:     item.ID,
			Balance:   p.Points,
			CreatedAt: time.Now(),
		}); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	log := logger.WithRequestID(ctx, uc.logger)
	log.Info("reward purchased",
		zap.String("profile_id", ownerID),
		zap.String("reward_id", item.ID),
		zap.Int("price", price),
		zap.Int("balance", updated.Points),
		zap.String("rank", updated.Rank))
	usecase.RecordScore(ctx, uc.index, log, updated)
	return updated, nil
}
