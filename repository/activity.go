package repository

import (
	"context"

	"github.com/OmChannawar/Listify/domain"
)

type ActivityRepository interface {
	Append(ctx context.Context, activity *domain.Activity) error
	// List returns a profile's activity, newest first.
	List(ctx context.Context, profileID string, limit int) ([]domain.Activity, error)
}
