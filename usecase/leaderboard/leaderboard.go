package leaderboard

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/OmChannawar/Listify/domain"
	"github.com/OmChannawar/Listify/pkg/logger"
	"github.com/OmChannawar/Listify/repository"
	"github.com/OmChannawar/Listify/scoring"
	"github.com/OmChannawar/Listify/usecase"
)

const (
	DefaultLimit = 50
	MaxLimit     = 100

	// friendLoadConcurrency bounds parallel profile reads for a friends board.
	friendLoadConcurrency = 8
)

type UseCase struct {
	store  repository.Store
	index  repository.LeaderboardIndex
	engine *scoring.Engine
	logger *zap.Logger

	// ready is set once Rebuild has filled the index.
	ready atomic.Bool
}

// New wires the leaderboards. index may be nil, in which case every request
// is served from the store. The index is consulted only after a successful
// Rebuild.
func New(store repository.Store, index repository.LeaderboardIndex, engine *scoring.Engine, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if engine == nil {
		engine = scoring.NewEngine(time.Local)
	}
	return &UseCase{
		store:  store,
		index:  index,
		engine: engine,
		logger: logger,
	}
}

// Global returns the top profiles by points, ties broken by name then id.
func (uc *UseCase) Global(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	limit = repository.ClampLimit(limit, MaxLimit)

	if uc.index != nil && uc.ready.Load() {
		entries, err := uc.fromIndex(ctx, limit)
		switch {
		case err != nil:
			logger.WithRequestID(ctx, uc.logger).Warn("leaderboard index unavailable, reading store", zap.Error(err))
		case len(entries) == limit:
			return entries, nil
		}
	}

	profiles, err := uc.store.Profiles().List(ctx, repository.ProfileFilter{Limit: limit})
	if err != nil {
		return nil, err
	}
	return toEntries(profiles), nil
}

func (uc *UseCase) fromIndex(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	ids, err := uc.index.Top(ctx, limit)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []domain.LeaderboardEntry{}, nil
	}
	profiles, err := uc.store.Profiles().List(ctx, repository.ProfileFilter{IDs: ids})
	if err != nil {
		return nil, err
	}
	return toEntries(profiles), nil
}

// Friends ranks the caller together with everyone they follow.
func (uc *UseCase) Friends(ctx context.Context, ownerID string) ([]domain.LeaderboardEntry, error) {
	owner, created, err := usecase.EnsureProfile(ctx, uc.store.Profiles(), ownerID, uc.engine.LowestRank())
	if err != nil {
		return nil, err
	}
	if created {
		usecase.RecordScore(ctx, uc.index, logger.WithRequestID(ctx, uc.logger), owner)
	}

	var (
		mu       sync.Mutex
		profiles = []domain.Profile{*owner}
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(friendLoadConcurrency)
	for _, id := range owner.Friends {
		id := id
		g.Go(func() error {
			p, err := uc.store.Profiles().GetByID(gctx, id)
			if err != nil {
				// A followed account that no longer exists just drops off the board.
				if errors.Is(err, domain.ErrProfileNotFound) {
					return nil
				}
				return err
			}
			mu.Lock()
			profiles = append(profiles, *p)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	SortProfiles(profiles)
	return toEntries(profiles), nil
}

// Rebuild replaces the index contents with the points held in the store. Until
// it succeeds Global reads the store directly.
func (uc *UseCase) Rebuild(ctx context.Context) error {
	if uc.index == nil {
		return nil
	}
	profiles, err := uc.store.Profiles().List(ctx, repository.ProfileFilter{})
	if err != nil {
		return err
	}
	scores := make(map[string]repository.Score, len(profiles))
	for _, p := range profiles {
		scores[p.ID] = repository.Score{Points: p.Points, Version: p.Version}
	}
	if err := uc.index.Reset(ctx, scores); err != nil {
		return err
	}
	uc.ready.Store(true)
	uc.logger.Info("leaderboard index rebuilt", zap.Int("profiles", len(scores)))
	return nil
}

// SortProfiles orders by points descending, then name, then id.
func SortProfiles(profiles []domain.Profile) {
	sort.SliceStable(profiles, func(i, j int) bool {
		a, b := profiles[i], profiles[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})
}

func toEntries(profiles []domain.Profile) []domain.LeaderboardEntry {
	entries := make([]domain.LeaderboardEntry, 0, len(profiles))
	for i := range profiles {
		entries = append(entries, profiles[i].Entry())
	}
	return entries
}
