package repository

import (
	"context"
	"time"

	"github.com/OmChannawar/Listify/domain"
)

type TaskFilter struct {
	OwnerID string
	// Completed narrows to completed (true) or open (false) tasks when set.
	Completed *bool
	// CompletedBefore keeps only tasks completed strictly before this instant.
	CompletedBefore time.Time
	Limit           int
}

type TaskRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	List(ctx context.Context, filter TaskFilter) ([]domain.Task, error)
	Create(ctx context.Context, task *domain.Task) error
	Update(ctx context.Context, task *domain.Task) error
	Delete(ctx context.Context, id string) error
}
