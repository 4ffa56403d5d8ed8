package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/OmChannawar/Listify/domain"
	"github.com/OmChannawar/Listify/repository"
)

type taskRepository struct {
	db querier
	// forUpdate locks fetched rows until the surrounding transaction ends.
	forUpdate bool
}

const taskColumns = `id, owner_id, title, description, link, deadline, deadline_locked, subtasks, completed, completed_at, created_at, updated_at`

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	if r.forUpdate {
		query += ` FOR UPDATE`
	}
	row := r.db.QueryRow(ctx, query, id)
	return scanTask(row)
}

func (r *taskRepository) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	const query = `
	SELECT ` + taskColumns + `
	FROM tasks
	WHERE ($1 = '' OR owner_id = $1)
	  AND ($2::boolean IS NULL OR completed = $2)
	  AND ($3::timestamptz IS NULL OR completed_at < $3)
	ORDER BY created_at DESC
	LIMIT $4
	`
	rows, err := r.db.Query(ctx, query,
		filter.OwnerID,
		filter.Completed,
		nullTime(filter.CompletedBefore),
		limitArg(filter.Limit),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO tasks (id, owner_id, title, description, link, deadline, deadline_locked, subtasks, completed, completed_at, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, COALESCE($11, NOW()), NOW())
	RETURNING created_at, updated_at
	`

	return r.db.QueryRow(ctx, query,
		task.ID,
		task.OwnerID,
		task.Title,
		task.Description,
		task.Link,
		nullTimePtr(task.Deadline),
		task.DeadlineLocked,
		marshalSubtasks(nonNilSubtasks(task.Subtasks)),
		task.Completed,
		nullTimePtr(task.CompletedAt),
		nullTime(task.CreatedAt),
	).Scan(&task.CreatedAt, &task.UpdatedAt)
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}

	// owner_id, deadline_locked and created_at are fixed at creation.
	const query = `
	UPDATE tasks
	SET title = $2,
		description = $3,
		link = $4,
		deadline = $5,
		subtasks = $6,
		completed = $7,
		completed_at = $8,
		updated_at = NOW()
	WHERE id = $1
	RETURNING updated_at
	`

	if err := r.db.QueryRow(ctx, query,
		task.ID,
		task.Title,
		task.Description,
		task.Link,
		nullTimePtr(task.Deadline),
		marshalSubtasks(nonNilSubtasks(task.Subtasks)),
		task.Completed,
		nullTimePtr(task.CompletedAt),
	).Scan(&task.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrTaskNotFound
		}
		return err
	}

	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM tasks WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func scanTask(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Task, error) {
	var task domain.Task
	var (
		deadline    *time.Time
		completedAt *time.Time
		subtasks    []byte
	)

	if err := row.Scan(
		&task.ID,
		&task.OwnerID,
		&task.Title,
		&task.Description,
		&task.Link,
		&deadline,
		&task.DeadlineLocked,
		&subtasks,
		&task.Completed,
		&completedAt,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}

	task.Deadline = deadline
	task.CompletedAt = completedAt
	task.Subtasks = []domain.Subtask{}
	if len(subtasks) > 0 {
		if err := json.Unmarshal(subtasks, &task.Subtasks); err != nil {
			return nil, domain.WrapError(domain.ErrCodeInternal, "decode subtasks of task "+task.ID, err)
		}
	}

	return &task, nil
}

func nonNilSubtasks(list []domain.Subtask) []domain.Subtask {
	if list == nil {
		return []domain.Subtask{}
	}
	return list
}
