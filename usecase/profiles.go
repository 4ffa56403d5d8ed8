package usecase

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/OmChannawar/Listify/domain"
	"github.com/OmChannawar/Listify/repository"
)

// EnsureProfile loads the profile with the given id, creating a zeroed one at
// lowestRank on first access. created is true only for the caller whose
// insert won; concurrent first accesses converge on one row.
func EnsureProfile(ctx context.Context, profiles repository.ProfileRepository, id, lowestRank string) (p *domain.Profile, created bool, err error) {
	if id == "" {
		return nil, false, domain.ErrUnauthorized
	}
	p, err = profiles.GetByID(ctx, id)
	if err == nil {
		return p, false, nil
	}
	if !errors.Is(err, domain.ErrProfileNotFound) {
		return nil, false, err
	}

	fresh := domain.NewProfile(id, lowestRank)
	if err := profiles.Create(ctx, fresh); err != nil {
		if errors.Is(err, domain.ErrProfileExists) {
			p, err = profiles.GetByID(ctx, id)
			return p, false, err
		}
		return nil, false, err
	}
	return fresh, true, nil
}

// RecordScore pushes a committed balance to the leaderboard index. Call it
// after commit with the profile as saved, for every points change and for
// every newly created profile. Failures are logged and otherwise ignored; the
// index is rebuilt at start-up.
func RecordScore(ctx context.Context, index repository.LeaderboardIndex, logger *zap.Logger, profile *domain.Profile) {
	if index == nil || profile == nil {
		return
	}
	score := repository.Score{Points: profile.Points, Version: profile.Version}
	if err := index.Record(ctx, profile.ID, score); err != nil && logger != nil {
		logger.Warn("leaderboard index update failed",
			zap.String("profile_id", profile.ID),
			zap.Int("points", profile.Points),
			zap.Int64("version", profile.Version),
			zap.Error(err))
	}
}
