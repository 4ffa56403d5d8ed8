package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/OmChannawar/Listify/domain"
)

type activityRepository struct {
	db querier
}

func (r *activityRepository) Append(ctx context.Context, activity *domain.Activity) error {
	if activity == nil || activity.ProfileID == "" {
		return domain.ErrInvalidPayload
	}
	if activity.ID == "" {
		activity.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO activities (id, profile_id, kind, points, ref_id, balance, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, NOW()))
	RETURNING created_at
	`

	return r.db.QueryRow(ctx, query,
		activity.ID,
		activity.ProfileID,
		string(activity.Kind),
		activity.Points,
		activity.RefID,
		activity.Balance,
		nullTime(activity.CreatedAt),
	).Scan(&activity.CreatedAt)
}

func (r *activityRepository) List(ctx context.Context, profileID string, limit int) ([]domain.Activity, error) {
	const query = `
	SELECT id, profile_id, kind, points, ref_id, balance, created_at
	FROM activities
	WHERE profile_id = $1
	ORDER BY created_at DESC, id DESC
	LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, profileID, limitArg(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Activity
	for rows.Next() {
		var a domain.Activity
		var kind string
		if err := rows.Scan(&a.ID, &a.ProfileID, &kind, &a.Points, &a.RefID, &a.Balance, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Kind = domain.ActivityKind(kind)
		items = append(items, a)
	}
	return items, rows.Err()
}
