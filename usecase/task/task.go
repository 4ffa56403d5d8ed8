package task

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/OmChannawar/Listify/domain"
	"github.com/OmChannawar/Listify/pkg/logger"
	"github.com/OmChannawar/Listify/repository"
	"github.com/OmChannawar/Listify/scoring"
	"github.com/OmChannawar/Listify/usecase"
)

// CreateInput carries the client-settable fields of a new task.
type CreateInput struct {
	Title       string
	Description string
	Link        string
	Deadline    *time.Time
	Subtasks    []domain.Subtask
}

// Patch lists the fields a client may change. Nil means "leave as is".
// Identity, ownership and completion state are deliberately absent.
type Patch struct {
	Title       *string
	Description *string
	Link        *string
	Deadline    *time.Time
	Subtasks    *[]domain.Subtask
}

type UseCase struct {
	store  repository.Store
	engine *scoring.Engine
	index  repository.LeaderboardIndex
	logger *zap.Logger
}

// New wires the task ledger. index may be nil when no leaderboard cache is
// configured.
func New(store repository.Store, engine *scoring.Engine, index repository.LeaderboardIndex, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if engine == nil {
		engine = scoring.NewEngine(time.Local)
	}
	return &UseCase{
		store:  store,
		engine: engine,
		index:  index,
		logger: logger,
	}
}

// ListTasks returns the owner's tasks, newest first. completed narrows the
// result when set.
func (uc *UseCase) ListTasks(ctx context.Context, ownerID string, completed *bool) ([]domain.Task, error) {
	if ownerID == "" {
		return nil, domain.ErrUnauthorized
	}
	tasks, err := uc.store.Tasks().List(ctx, repository.TaskFilter{
		OwnerID:   ownerID,
		Completed: completed,
	})
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	return tasks, nil
}

func (uc *UseCase) CreateTask(ctx context.Context, ownerID string, in CreateInput) (*domain.Task, error) {
	if ownerID == "" {
		return nil, domain.ErrUnauthorized
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, domain.Invalid("title is required")
	}
	if in.Deadline == nil {
		return nil, domain.Invalid("deadline is required")
	}

	deadline := *in.Deadline
	task := &domain.Task{
		ID:             uuid.NewString(),
		OwnerID:        ownerID,
		Title:          title,
		Description:    in.Description,
		Link:           strings.TrimSpace(in.Link),
		Deadline:       &deadline,
		DeadlineLocked: true,
		Subtasks:       normalizeSubtasks(in.Subtasks),
	}
	if err := uc.store.Tasks().Create(ctx, task); err != nil {
		return nil, err
	}

	logger.WithRequestID(ctx, uc.logger).Debug("task created",
		zap.String("task_id", task.ID),
		zap.String("owner_id", ownerID))
	return task, nil
}

func (uc *UseCase) UpdateTask(ctx context.Context, ownerID, taskID string, patch Patch) (*domain.Task, error) {
	var updated *domain.Task
	err := uc.store.WithinTx(ctx, func(tx repository.Tx) error {
		task, err := loadOwned(ctx, tx, ownerID, taskID)
		if err != nil {
			return err
		}
		if task.Completed {
			return domain.ErrAlreadyCompleted
		}
		if err := applyPatch(task, patch); err != nil {
			return err
		}
		if err := tx.Tasks().Update(ctx, task); err != nil {
			return err
		}
		updated = task
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func applyPatch(task *domain.Task, patch Patch) error {
	if patch.Deadline != nil {
		if task.DeadlineLocked {
			return domain.ErrDeadlineLocked
		}
		d := *patch.Deadline
		task.Deadline = &d
		task.DeadlineLocked = true
	}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return domain.Invalid("title cannot be empty")
		}
		task.Title = title
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.Link != nil {
		task.Link = strings.TrimSpace(*patch.Link)
	}
	if patch.Subtasks != nil {
		task.Subtasks = normalizeSubtasks(*patch.Subtasks)
	}
	return nil
}

// CompleteTask marks the task done and credits the owner's profile in a
// single transaction.
func (uc *UseCase) CompleteTask(ctx context.Context, ownerID, taskID string, now time.Time) (*scoring.Result, error) {
	var result scoring.Result
	err := uc.store.WithinTx(ctx, func(tx repository.Tx) error {
		task, err := loadOwned(ctx, tx, ownerID, taskID)
		if err != nil {
			return err
		}
		profile, _, err := usecase.EnsureProfile(ctx, tx.Profiles(), ownerID, uc.engine.LowestRank())
		if err != nil {
			return err
		}

		res, err := uc.engine.Complete(*task, *profile, now)
		if err != nil {
			return err
		}
		if err := tx.Tasks().Update(ctx, &res.Task); err != nil {
			return err
		}
		if err := tx.Profiles().Save(ctx, &res.Profile); err != nil {
			return err
		}
		if err := tx.Activities().Append(ctx, &domain.Activity{
			ProfileID: ownerID,
			Kind:      domain.ActivityTaskCompleted,
			Points:    res.PointsEarned,
			RefID:     res.Task.ID,
			Balance:   res.Profile.Points,
			CreatedAt: now,
		}); err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	log := logger.WithRequestID(ctx, uc.logger)
	log.Info("task completed",
		zap.String("task_id", taskID),
		zap.String("owner_id", ownerID),
		zap.Int("points_earned", result.PointsEarned),
		zap.Bool("on_time", result.OnTime),
		zap.String("rank", result.Profile.Rank),
		zap.Int("streak", result.Profile.Streak))
	usecase.RecordScore(ctx, uc.index, log, &result.Profile)
	return &result, nil
}

func (uc *UseCase) DeleteTask(ctx context.Context, ownerID, taskID string) error {
	return uc.store.WithinTx(ctx, func(tx repository.Tx) error {
		if _, err := loadOwned(ctx, tx, ownerID, taskID); err != nil {
			return err
		}
		return tx.Tasks().Delete(ctx, taskID)
	})
}

// ToggleSubtask flips one checklist entry. Completion state, deadline lock and
// scoring are unaffected. A task owned by someone else reads as not found.
func (uc *UseCase) ToggleSubtask(ctx context.Context, ownerID, taskID, subtaskID string) (*domain.Task, error) {
	var updated *domain.Task
	err := uc.store.WithinTx(ctx, func(tx repository.Tx) error {
		task, err := tx.Tasks().GetByID(ctx, taskID)
		if err != nil {
			return err
		}
		if !task.OwnedBy(ownerID) {
			return domain.ErrTaskNotFound
		}
		idx := task.SubtaskIndex(subtaskID)
		if idx < 0 {
			return domain.ErrSubtaskNotFound
		}
		task.Subtasks[idx].Completed = !task.Subtasks[idx].Completed
		if err := tx.Tasks().Update(ctx, task); err != nil {
			return err
		}
		updated = task
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func loadOwned(ctx context.Context, tx repository.Tx, ownerID, taskID string) (*domain.Task, error) {
	if ownerID == "" {
		return nil, domain.ErrUnauthorized
	}
	task, err := tx.Tasks().GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !task.OwnedBy(ownerID) {
		return nil, domain.ErrNotOwner
	}
	return task, nil
}

func normalizeSubtasks(in []domain.Subtask) []domain.Subtask {
	out := make([]domain.Subtask, 0, len(in))
	for _, s := range in {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		if s.ID == "" {
			s.ID = uuid.NewString()
		}
		s.Text = text
		out = append(out, s)
	}
	return out
}
