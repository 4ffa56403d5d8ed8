package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/OmChannawar/Listify/domain"
	"github.com/OmChannawar/Listify/repository"
)

// SweeperConfig controls how often completed tasks are purged and how long
// they are kept.
type SweeperConfig struct {
	Retention time.Duration
	Interval  time.Duration
	BatchSize int
}

// Sweeper deletes completed tasks once they are older than the retention.
// It never touches open tasks and never changes profile counters.
type Sweeper struct {
	tasks  repository.TaskRepository
	logger *zap.Logger
	cron   *cron.Cron
	cfg    SweeperConfig
	now    func() time.Time
}

func NewSweeper(tasks repository.TaskRepository, logger *zap.Logger, cfg SweeperConfig) (*Sweeper, error) {
	if cfg.Retention <= 0 {
		cfg.Retention = 96 * time.Hour
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Sweeper{
		tasks:  tasks,
		logger: logger,
		cfg:    cfg,
		cron:   cron.New(cron.WithSeconds()),
		now:    time.Now,
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
		return nil, fmt.Errorf("schedule cleanup: %w", err)
	}
	return s, nil
}

func (s *Sweeper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Interval)
	defer cancel()
	removed, err := s.Sweep(ctx)
	if err != nil {
		s.logger.Error("task cleanup failed", zap.Int("removed", removed), zap.Error(err))
		return
	}
	if removed > 0 {
		s.logger.Info("completed tasks purged", zap.Int("removed", removed))
	}
}

// Start launches the cron scheduler.
func (s *Sweeper) Start() {
	if s == nil || s.cron == nil {
		return
	}
	s.cron.Start()
	s.logger.Info("task cleanup started",
		zap.Duration("interval", s.cfg.Interval),
		zap.Duration("retention", s.cfg.Retention))
}

// Stop waits for a running sweep to finish or for ctx to expire.
func (s *Sweeper) Stop(ctx context.Context) {
	if s == nil || s.cron == nil {
		return
	}
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	s.logger.Info("task cleanup stopped")
}

// Sweep deletes one batch of expired completed tasks and returns how many
// were removed.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	done := true
	cutoff := s.now().Add(-s.cfg.Retention)
	expired, err := s.tasks.List(ctx, repository.TaskFilter{
		Completed:       &done,
		CompletedBefore: cutoff,
		Limit:           s.cfg.BatchSize,
	})
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, task := range expired {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if err := s.tasks.Delete(ctx, task.ID); err != nil {
			if errors.Is(err, domain.ErrTaskNotFound) {
				continue
			}
			return removed, err
		}
		removed++
	}
	return removed, nil
}
