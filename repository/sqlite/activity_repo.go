package sqlite

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/OmChannawar/Listify/domain"
)

type activityRepository struct {
	db DBTX
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

	_, err := r.db.ExecContext(ctx, `
	INSERT INTO activities (id, profile_id, kind, points, ref_id, balance, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)`,
		activity.ID,
		activity.ProfileID,
		string(activity.Kind),
		activity.Points,
		activity.RefID,
		activity.Balance,
		formatTime(activity.CreatedAt),
	)
	return err
}

func (r *activityRepository) List(ctx context.Context, profileID string, limit int) ([]domain.Activity, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, profile_id, kind, points, ref_id, balance, created_at
	FROM activities
	WHERE profile_id = ?
	ORDER BY created_at DESC, rowid DESC
	LIMIT ?`, profileID, limitArg(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Activity
	for rows.Next() {
		var (
			a         domain.Activity
			kind      string
			createdAt string
		)
		if err := rows.Scan(&a.ID, &a.ProfileID, &kind, &a.Points, &a.RefID, &a.Balance, &createdAt); err != nil {
			return nil, err
		}
		if a.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		a.Kind = domain.ActivityKind(kind)
		items = append(items, a)
	}
	return items, rows.Err()
}
