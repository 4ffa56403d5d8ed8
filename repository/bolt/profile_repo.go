package bolt

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	bolt "go.etcd.io/bbolt"

	"github.com/OmChannawar/Listify/domain"
	"github.com/OmChannawar/Listify/repository"
)

type profileRepository struct {
	kv kv
}

func profileKey(id string) string { return prefixProfile + id }

func (r *profileRepository) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	var profile domain.Profile
	var found bool
	err := r.kv.view(func(b *bolt.Bucket) error {
		var err error
		found, err = getJSON(b, profileKey(id), &profile)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, domain.ErrProfileNotFound
	}
	return &profile, nil
}

func (r *profileRepository) GetByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, domain.ErrProfileNotFound
	}

	var match *domain.Profile
	err := r.kv.view(func(b *bolt.Bucket) error {
		return scanPrefix(b, prefixProfile, func(k, v []byte) error {
			var p domain.Profile
			if err := json.Unmarshal(v, &p); err != nil {
				return decodeError(string(k), err)
			}
			if match == nil && strings.EqualFold(p.Email, email) {
				match = &p
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if match == nil {
		return nil, domain.ErrProfileNotFound
	}
	return match, nil
}

func (r *profileRepository) List(ctx context.Context, filter repository.ProfileFilter) ([]domain.Profile, error) {
	var wanted map[string]bool
	if len(filter.IDs) > 0 {
		wanted = make(map[string]bool, len(filter.IDs))
		for _, id := range filter.IDs {
			wanted[id] = true
		}
	}

	var profiles []domain.Profile
	err := r.kv.view(func(b *bolt.Bucket) error {
		if wanted != nil {
			for id := range wanted {
				var p domain.Profile
				found, err := getJSON(b, profileKey(id), &p)
				if err != nil {
					return err
				}
				if found {
					profiles = append(profiles, p)
				}
			}
			return nil
		}
		return scanPrefix(b, prefixProfile, func(k, v []byte) error {
			var p domain.Profile
			if err := json.Unmarshal(v, &p); err != nil {
				return decodeError(string(k), err)
			}
			profiles = append(profiles, p)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

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
	return profiles[:head(len(profiles), filter.Limit)], nil
}

func (r *profileRepository) Create(ctx context.Context, profile *domain.Profile) error {
	if profile == nil || profile.ID == "" {
		return domain.ErrInvalidPayload
	}
	profile.Touch()
	return r.kv.update(func(b *bolt.Bucket) error {
		if b.Get([]byte(profileKey(profile.ID))) != nil {
			return domain.ErrProfileExists
		}
		profile.Version = 1
		return putJSON(b, profileKey(profile.ID), profile)
	})
}

func (r *profileRepository) Save(ctx context.Context, profile *domain.Profile) error {
	if profile == nil || profile.ID == "" {
		return domain.ErrInvalidPayload
	}
	profile.Touch()
	return r.kv.update(func(b *bolt.Bucket) error {
		var stored struct {
			Version int64 `json:"version"`
		}
		if _, err := getJSON(b, profileKey(profile.ID), &stored); err != nil {
			return err
		}
		profile.Version = stored.Version + 1
		return putJSON(b, profileKey(profile.ID), profile)
	})
}
