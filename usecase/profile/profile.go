package profile

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/OmChannawar/Listify/domain"
	"github.com/OmChannawar/Listify/pkg/logger"
	"github.com/OmChannawar/Listify/repository"
	"github.com/OmChannawar/Listify/scoring"
	"github.com/OmChannawar/Listify/usecase"
)

// Patch holds the free-text fields a user may edit. Points, rank, streaks and
// every other counter are not representable here.
type Patch struct {
	Name  *string
	Email *string
}

type UseCase struct {
	store  repository.Store
	engine *scoring.Engine
	index  repository.LeaderboardIndex
	logger *zap.Logger
}

// New wires the profile aggregate. index may be nil; when set, every profile
// this use case writes is pushed to it after commit.
func New(store repository.Store, engine *scoring.Engine, index repository.LeaderboardIndex, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if engine == nil {
		engine = scoring.NewEngine(time.Local)
	}
	return &UseCase{
		store:  store,
		engine: engine,
		index:  index,
		logger: logger,
	}
}

// GetProfile returns the caller's profile, creating it on first access.
func (uc *UseCase) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	p, created, err := usecase.EnsureProfile(ctx, uc.store.Profiles(), userID, uc.engine.LowestRank())
	if err != nil {
		return nil, err
	}
	if created {
		usecase.RecordScore(ctx, uc.index, logger.WithRequestID(ctx, uc.logger), p)
	}
	return p, nil
}

func (uc *UseCase) UpdateProfile(ctx context.Context, userID string, patch Patch) (*domain.Profile, error) {
	var updated *domain.Profile
	err := uc.store.WithinTx(ctx, func(tx repository.Tx) error {
		p, _, err := usecase.EnsureProfile(ctx, tx.Profiles(), userID, uc.engine.LowestRank())
		if err != nil {
			return err
		}

		if patch.Name != nil {
			name := strings.TrimSpace(*patch.Name)
			if name == "" {
				return domain.Invalid("name cannot be empty")
			}
			p.Name = name
		}
		if patch.Email != nil {
			email := strings.TrimSpace(*patch.Email)
			if email != "" {
				if !strings.Contains(email, "@") {
					return domain.Invalid("invalid email %q", email)
				}
				other, err := tx.Profiles().GetByEmail(ctx, email)
				switch {
				case err == nil && other.ID != p.ID:
					return domain.ErrEmailTaken
				case err != nil && !errors.Is(err, domain.ErrProfileNotFound):
					return err
				}
			}
			p.Email = email
		}

		if err := tx.Profiles().Save(ctx, p); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	usecase.RecordScore(ctx, uc.index, logger.WithRequestID(ctx, uc.logger), updated)
	return updated, nil
}

// AddFriend makes userID follow the profile registered under email. The edge
// is one-directional.
func (uc *UseCase) AddFriend(ctx context.Context, userID, email string) (*domain.LeaderboardEntry, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, domain.Invalid("email is required")
	}

	var (
		entry domain.LeaderboardEntry
		saved *domain.Profile
	)
	err := uc.store.WithinTx(ctx, func(tx repository.Tx) error {
		p, _, err := usecase.EnsureProfile(ctx, tx.Profiles(), userID, uc.engine.LowestRank())
		if err != nil {
			return err
		}
		friend, err := tx.Profiles().GetByEmail(ctx, email)
		if err != nil {
			return err
		}
		if friend.ID == p.ID {
			return domain.Invalid("cannot follow yourself")
		}
		if p.Follows(friend.ID) {
			return domain.ErrAlreadyFriends
		}
		p.Friends = append(p.Friends, friend.ID)
		if err := tx.Profiles().Save(ctx, p); err != nil {
			return err
		}
		entry = friend.Entry()
		saved = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	log := logger.WithRequestID(ctx, uc.logger)
	log.Info("friend added",
		zap.String("profile_id", userID),
		zap.String("friend_id", entry.ID))
	usecase.RecordScore(ctx, uc.index, log, saved)
	return &entry, nil
}

// ListFriends returns the followed profiles ordered like the leaderboard.
func (uc *UseCase) ListFriends(ctx context.Context, userID string) ([]domain.LeaderboardEntry, error) {
	p, err := uc.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	entries := []domain.LeaderboardEntry{}
	if len(p.Friends) == 0 {
		return entries, nil
	}
	friends, err := uc.store.Profiles().List(ctx, repository.ProfileFilter{IDs: p.Friends})
	if err != nil {
		return nil, err
	}
	for i := range friends {
		entries = append(entries, friends[i].Entry())
	}
	return entries, nil
}

// Activity returns the caller's most recent points movements, newest first.
func (uc *UseCase) Activity(ctx context.Context, userID string, limit int) ([]domain.Activity, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	items, err := uc.store.Activities().List(ctx, userID, repository.ClampLimit(limit, 100))
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Activity{}
	}
	return items, nil
}
