package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/OmChannawar/Listify/repository"
)

type store struct {
	pool *pgxpool.Pool
}

// NewStore returns a Postgres-backed Store. Rows read through WithinTx are
// locked with SELECT ... FOR UPDATE until the transaction ends.
func NewStore(pool *pgxpool.Pool) repository.Store {
	return &store{pool: pool}
}

func (s *store) Tasks() repository.TaskRepository {
	return &taskRepository{db: s.pool}
}

func (s *store) Profiles() repository.ProfileRepository {
	return &profileRepository{db: s.pool}
}

func (s *store) Activities() repository.ActivityRepository {
	return &activityRepository{db: s.pool}
}

func (s *store) WithinTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&txScope{tx: tx})
	})
}

func (s *store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close is a no-op; the pool is owned and closed by the caller that opened it.
func (s *store) Close() error {
	return nil
}

type txScope struct {
	tx pgx.Tx
}

func (t *txScope) Tasks() repository.TaskRepository {
	return &taskRepository{db: t.tx, forUpdate: true}
}

func (t *txScope) Profiles() repository.ProfileRepository {
	return &profileRepository{db: t.tx, forUpdate: true}
}

func (t *txScope) Activities() repository.ActivityRepository {
	return &activityRepository{db: t.tx}
}
