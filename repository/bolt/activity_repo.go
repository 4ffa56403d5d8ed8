package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/OmChannawar/Listify/domain"
)

type activityRepository struct {
	kv kv
}

func activityPrefix(profileID string) string {
	return prefixActivity + profileID + ":"
}

func activityKey(a *domain.Activity) string {
	return fmt.Sprintf("%s%020d_%s", activityPrefix(a.ProfileID), a.CreatedAt.UnixNano(), a.ID)
}

func (r *activityRepository) Append(ctx context.Context, activity *domain.Activity) error {
	if activity == nil || activity.ProfileID == "" {
		return domain.ErrInvalidPayload
	}
	if activity.ID == "" {
		activity.ID = uuid.NewString()
	}
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = time.Now()
	}
	return r.kv.update(func(b *bolt.Bucket) error {
		return putJSON(b, activityKey(activity), activity)
	})
}

func (r *activityRepository) List(ctx context.Context, profileID string, limit int) ([]domain.Activity, error) {
	var items []domain.Activity
	err := r.kv.view(func(b *bolt.Bucket) error {
		return scanPrefix(b, activityPrefix(profileID), func(k, v []byte) error {
			var a domain.Activity
			if err := json.Unmarshal(v, &a); err != nil {
				return decodeError(string(k), err)
			}
			items = append(items, a)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}
