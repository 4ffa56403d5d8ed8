package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/OmChannawar/Listify/domain"
	"github.com/OmChannawar/Listify/repository"
)

type profileRepository struct {
	db        querier
	forUpdate bool
}

const profileColumns = `id, name, email, points, rank, streak, longest_streak, last_task_date,
	total_tasks_completed, tasks_completed_on_time, purchased_items, friends, version, created_at, updated_at`

func (r *profileRepository) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`
	if r.forUpdate {
		query += ` FOR UPDATE`
	}
	row := r.db.QueryRow(ctx, query, id)
	return scanProfile(row)
}

func (r *profileRepository) GetByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, domain.ErrProfileNotFound
	}
	const query = `SELECT ` + profileColumns + ` FROM profiles WHERE lower(email) = lower($1) LIMIT 1`
	row := r.db.QueryRow(ctx, query, email)
	return scanProfile(row)
}

func (r *profileRepository) List(ctx context.Context, filter repository.ProfileFilter) ([]domain.Profile, error) {
	const query = `
	SELECT ` + profileColumns + `
	FROM profiles
	WHERE (cardinality($1::text[]) = 0 OR id = ANY($1))
	ORDER BY points DESC, name ASC, id ASC
	LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, nonNil(filter.IDs), limitArg(filter.Limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []domain.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}

func (r *profileRepository) Create(ctx context.Context, profile *domain.Profile) error {
	if profile == nil || profile.ID == "" {
		return domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO profiles (id, name, email, points, rank, streak, longest_streak, last_task_date,
		total_tasks_completed, tasks_completed_on_time, purchased_items, friends, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
	ON CONFLICT (id) DO NOTHING
	RETURNING version, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		profile.ID,
		profile.Name,
		profile.Email,
		profile.Points,
		profile.Rank,
		profile.Streak,
		profile.LongestStreak,
		nullTimePtr(profile.LastTaskDate),
		profile.TotalTasksCompleted,
		profile.TasksCompletedOnTime,
		nonNil(profile.PurchasedItems),
		nonNil(profile.Friends),
	).Scan(&profile.Version, &profile.CreatedAt, &profile.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrProfileExists
	}
	return mapWriteError(err)
}

func (r *profileRepository) Save(ctx context.Context, profile *domain.Profile) error {
	if profile == nil || profile.ID == "" {
		return domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO profiles (id, name, email, points, rank, streak, longest_streak, last_task_date,
		total_tasks_completed, tasks_completed_on_time, purchased_items, friends, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, COALESCE($13, NOW()), NOW())
	ON CONFLICT (id) DO UPDATE
	SET name = EXCLUDED.name,
		email = EXCLUDED.email,
		points = EXCLUDED.points,
		rank = EXCLUDED.rank,
		streak = EXCLUDED.streak,
		longest_streak = EXCLUDED.longest_streak,
		last_task_date = EXCLUDED.last_task_date,
		total_tasks_completed = EXCLUDED.total_tasks_completed,
		tasks_completed_on_time = EXCLUDED.tasks_completed_on_time,
		purchased_items = EXCLUDED.purchased_items,
		friends = EXCLUDED.friends,
		version = profiles.version + 1,
		updated_at = NOW()
	RETURNING version, created_at, updated_at
	`

	var (
		version              int64
		createdAt, updatedAt time.Time
	)
	if err := r.db.QueryRow(ctx, query,
		profile.ID,
		profile.Name,
		profile.Email,
		profile.Points,
		profile.Rank,
		profile.Streak,
		profile.LongestStreak,
		nullTimePtr(profile.LastTaskDate),
		profile.TotalTasksCompleted,
		profile.TasksCompletedOnTime,
		nonNil(profile.PurchasedItems),
		nonNil(profile.Friends),
		nullTime(profile.CreatedAt),
	).Scan(&version, &createdAt, &updatedAt); err != nil {
		return mapWriteError(err)
	}

	profile.Version = version
	profile.CreatedAt = createdAt
	profile.UpdatedAt = updatedAt
	return nil
}

func scanProfile(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Profile, error) {
	var p domain.Profile
	var lastTaskDate *time.Time

	if err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Email,
		&p.Points,
		&p.Rank,
		&p.Streak,
		&p.LongestStreak,
		&lastTaskDate,
		&p.TotalTasksCompleted,
		&p.TasksCompletedOnTime,
		&p.PurchasedItems,
		&p.Friends,
		&p.Version,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, err
	}

	p.LastTaskDate = lastTaskDate
	p.PurchasedItems = nonNil(p.PurchasedItems)
	p.Friends = nonNil(p.Friends)
	return &p, nil
}
