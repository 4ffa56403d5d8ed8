package repository

import (
	"context"

	"github.com/OmChannawar/Listify/domain"
)

type ProfileFilter struct {
	IDs   []string
	Limit int
}

type ProfileRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Profile, error)
	GetByEmail(ctx context.Context, email string) (*domain.Profile, error)
	// List returns profiles ordered by points descending.
	List(ctx context.Context, filter ProfileFilter) ([]domain.Profile, error)
	// Create inserts a new profile and fails with a conflict if the id exists.
	Create(ctx context.Context, profile *domain.Profile) error
	Save(ctx context.Context, profile *domain.Profile) error
}
