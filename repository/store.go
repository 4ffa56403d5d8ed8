package repository

import "context"

// Tx exposes the repositories bound to one unit of work.
type Tx interface {
	Tasks() TaskRepository
	Profiles() ProfileRepository
	Activities() ActivityRepository
}

// Store is the persistence collaborator. Repositories returned directly by the
// store run each call on its own; WithinTx groups calls so they commit or roll
// back together. Implementations lock rows read inside WithinTx so that
// read-modify-write sequences on the same task or profile are serialized.
type Store interface {
	Tx
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
	Ping(ctx context.Context) error
	Close() error
}

// Score is a profile's points at a given stored version.
type Score struct {
	Points  int
	Version int64
}

// LeaderboardIndex keeps profile ids ordered by points outside the primary
// store. Record ignores a score whose version is not newer than the one held,
// so writes that arrive out of order cannot roll a balance back.
type LeaderboardIndex interface {
	Record(ctx context.Context, profileID string, score Score) error
	Top(ctx context.Context, limit int) ([]string, error)
	Reset(ctx context.Context, scores map[string]Score) error
}

// ClampLimit bounds page sizes for list queries.
func ClampLimit(limit, max int) int {
	if limit <= 0 || limit > max {
		return max
	}
	return limit
}
