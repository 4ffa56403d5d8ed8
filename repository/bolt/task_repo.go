package bolt

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/OmChannawar/Listify/domain"
	"github.com/OmChannawar/Listify/repository"
)

type taskRepository struct {
	kv kv
}

func taskKey(id string) string { return prefixTask + id }

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	var task domain.Task
	var found bool
	err := r.kv.view(func(b *bolt.Bucket) error {
		var err error
		found, err = getJSON(b, taskKey(id), &task)
		return err
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, domain.ErrTaskNotFound
	}
	return &task, nil
}

func (r *taskRepository) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	var tasks []domain.Task
	err := r.kv.view(func(b *bolt.Bucket) error {
		return scanPrefix(b, prefixTask, func(k, v []byte) error {
			var task domain.Task
			if err := json.Unmarshal(v, &task); err != nil {
				return decodeError(string(k), err)
			}
			if matchTask(task, filter) {
				tasks = append(tasks, task)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
	return tasks[:head(len(tasks), filter.Limit)], nil
}

func matchTask(task domain.Task, filter repository.TaskFilter) bool {
	if filter.OwnerID != "" && task.OwnerID != filter.OwnerID {
		return false
	}
	if filter.Completed != nil && task.Completed != *filter.Completed {
		return false
	}
	if !filter.CompletedBefore.IsZero() {
		if task.CompletedAt == nil || !task.CompletedAt.Before(filter.CompletedBefore) {
			return false
		}
	}
	return true
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

	return r.kv.update(func(b *bolt.Bucket) error {
		if b.Get([]byte(taskKey(task.ID))) != nil {
			return domain.NewError(domain.ErrCodeConflict, "task already exists")
		}
		return putJSON(b, taskKey(task.ID), task)
	})
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	if task == nil || task.ID == "" {
		return domain.ErrInvalidPayload
	}
	task.UpdatedAt = time.Now()
	return r.kv.update(func(b *bolt.Bucket) error {
		if b.Get([]byte(taskKey(task.ID))) == nil {
			return domain.ErrTaskNotFound
		}
		return putJSON(b, taskKey(task.ID), task)
	})
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	return r.kv.update(func(b *bolt.Bucket) error {
		key := []byte(taskKey(id))
		if b.Get(key) == nil {
			return domain.ErrTaskNotFound
		}
		return b.Delete(key)
	})
}
