package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/OmChannawar/Listify/domain"
	"github.com/OmChannawar/Listify/repository"
)

type taskRepository struct {
	db DBTX
}

const taskColumns = `id, owner_id, title, description, link, deadline, deadline_locked, subtasks, completed, completed_at, created_at, updated_at`

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	return scanTask(row)
}

func (r *taskRepository) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	var (
		where []string
		args  []any
	)
	if filter.OwnerID != "" {
		where = append(where, "owner_id = ?")
		args = append(args, filter.OwnerID)
	}
	if filter.Completed != nil {
		where = append(where, "completed = ?")
		args = append(args, boolInt(*filter.Completed))
	}
	if !filter.CompletedBefore.IsZero() {
		where = append(where, "completed_at IS NOT NULL AND completed_at < ?")
		args = append(args, formatTime(filter.CompletedBefore))
	}

	query := `SELECT ` + taskColumns + ` FROM tasks`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limitArg(filter.Limit))

	rows, err := r.db.QueryContext(ctx, query, args...)
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
	now := time.Now()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	task.UpdatedAt = now

	subtasks, err := json.Marshal(nonNilSubtasks(task.Subtasks))
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
	INSERT INTO tasks (`+taskColumns+`)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO NOTHING`,
		task.ID,
		task.OwnerID,
		task.Title,
		task.Description,
		task.Link,
		formatTimePtr(task.Deadline),
		boolInt(task.DeadlineLocked),
		string(subtasks),
		boolInt(task.Completed),
		formatTimePtr(task.CompletedAt),
		formatTime(task.CreatedAt),
		formatTime(task.UpdatedAt),
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NewError(domain.ErrCodeConflict, "task already exists")
	}
	return nil
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	if task == nil || task.ID == "" {
		return domain.ErrInvalidPayload
	}
	task.UpdatedAt = time.Now()

	subtasks, err := json.Marshal(nonNilSubtasks(task.Subtasks))
	if err != nil {
		return err
	}

	// owner_id, deadline_locked and created_at are fixed at creation.
	res, err := r.db.ExecContext(ctx, `
	UPDATE tasks
	SET title = ?, description = ?, link = ?, deadline = ?, subtasks = ?,
		completed = ?, completed_at = ?, updated_at = ?
	WHERE id = ?`,
		task.Title,
		task.Description,
		task.Link,
		formatTimePtr(task.Deadline),
		string(subtasks),
		boolInt(task.Completed),
		formatTimePtr(task.CompletedAt),
		formatTime(task.UpdatedAt),
		task.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func scanTask(row interface {
	Scan(dest ...any) error
}) (*domain.Task, error) {
	var (
		task                  domain.Task
		deadline, completedAt sql.NullString
		locked, completed     int
		subtasks              string
		createdAt, updatedAt  string
	)
	if err := row.Scan(
		&task.ID,
		&task.OwnerID,
		&task.Title,
		&task.Description,
		&task.Link,
		&deadline,
		&locked,
		&subtasks,
		&completed,
		&completedAt,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}

	var err error
	if task.Deadline, err = parseTimePtr(deadline); err != nil {
		return nil, err
	}
	if task.CompletedAt, err = parseTimePtr(completedAt); err != nil {
		return nil, err
	}
	if task.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if task.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	task.DeadlineLocked = locked != 0
	task.Completed = completed != 0
	task.Subtasks = []domain.Subtask{}
	if subtasks != "" {
		if err := json.Unmarshal([]byte(subtasks), &task.Subtasks); err != nil {
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
