package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/OmChannawar/Listify/domain"
	"github.com/OmChannawar/Listify/repository"
)

type profileRepository struct {
	db DBTX
}

// writeColumns leaves out version, which the store assigns.
const writeColumns = `id, name, email, points, rank, streak, longest_streak, last_task_date,
	total_tasks_completed, tasks_completed_on_time, purchased_items, friends, created_at, updated_at`

const profileColumns = writeColumns + `, version`

func (r *profileRepository) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = ?`, id)
	return scanProfile(row)
}

func (r *profileRepository) GetByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, domain.ErrProfileNotFound
	}
	row := r.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE lower(email) = lower(?) LIMIT 1`, email)
	return scanProfile(row)
}

func (r *profileRepository) List(ctx context.Context, filter repository.ProfileFilter) ([]domain.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles`
	var args []any
	if len(filter.IDs) > 0 {
		marks := make([]string, len(filter.IDs))
		for i, id := range filter.IDs {
			marks[i] = "?"
			args = append(args, id)
		}
		query += ` WHERE id IN (` + strings.Join(marks, ", ") + `)`
	}
	query += ` ORDER BY points DESC, name ASC, id ASC LIMIT ?`
	args = append(args, limitArg(filter.Limit))

	rows, err := r.db.QueryContext(ctx, query, args...)
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
	profile.Touch()
	err := r.write(ctx, `INSERT INTO profiles (`+writeColumns+`)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO NOTHING
	RETURNING version`, profile)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrProfileExists
	}
	return err
}

func (r *profileRepository) Save(ctx context.Context, profile *domain.Profile) error {
	if profile == nil || profile.ID == "" {
		return domain.ErrInvalidPayload
	}
	profile.Touch()
	return r.write(ctx, `INSERT INTO profiles (`+writeColumns+`)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		name = excluded.name,
		email = excluded.email,
		points = excluded.points,
		rank = excluded.rank,
		streak = excluded.streak,
		longest_streak = excluded.longest_streak,
		last_task_date = excluded.last_task_date,
		total_tasks_completed = excluded.total_tasks_completed,
		tasks_completed_on_time = excluded.tasks_completed_on_time,
		purchased_items = excluded.purchased_items,
		friends = excluded.friends,
		version = profiles.version + 1,
		updated_at = excluded.updated_at
	RETURNING version`, profile)
}

// write runs an insert that returns the stored version and copies it onto p.
func (r *profileRepository) write(ctx context.Context, query string, p *domain.Profile) error {
	purchased, err := json.Marshal(nonNil(p.PurchasedItems))
	if err != nil {
		return err
	}
	friends, err := json.Marshal(nonNil(p.Friends))
	if err != nil {
		return err
	}
	var version int64
	err = r.db.QueryRowContext(ctx, query,
		p.ID,
		p.Name,
		p.Email,
		p.Points,
		p.Rank,
		p.Streak,
		p.LongestStreak,
		formatTimePtr(p.LastTaskDate),
		p.TotalTasksCompleted,
		p.TasksCompletedOnTime,
		string(purchased),
		string(friends),
		formatTime(p.CreatedAt),
		formatTime(p.UpdatedAt),
	).Scan(&version)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEmailTaken
		}
		return err
	}
	p.Version = version
	return nil
}

func scanProfile(row interface {
	Scan(dest ...any) error
}) (*domain.Profile, error) {
	var (
		p                    domain.Profile
		lastTaskDate         sql.NullString
		purchased, friends   string
		createdAt, updatedAt string
	)
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
		&purchased,
		&friends,
		&createdAt,
		&updatedAt,
		&p.Version,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, err
	}

	var err error
	if p.LastTaskDate, err = parseTimePtr(lastTaskDate); err != nil {
		return nil, err
	}
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(purchased), &p.PurchasedItems); err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "decode purchased items of profile "+p.ID, err)
	}
	if err := json.Unmarshal([]byte(friends), &p.Friends); err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "decode friends of profile "+p.ID, err)
	}
	p.PurchasedItems = nonNil(p.PurchasedItems)
	p.Friends = nonNil(p.Friends)
	return &p, nil
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}

