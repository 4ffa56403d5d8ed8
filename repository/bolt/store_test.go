package bolt

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/OmChannawar/Listify/domain"
	"github.com/OmChannawar/Listify/repository"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "listify.db"), "")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestTaskCRUD(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	deadline := time.Date(2024, 5, 1, 18, 0, 0, 0, time.UTC)

	task := &domain.Task{OwnerID: "u1", Title: "ship it", Deadline: &deadline, DeadlineLocked: true}
	if err := s.Tasks().Create(ctx, task); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if task.ID == "" {
		t.Fatal("expected generated id")
	}

	got, err := s.Tasks().GetByID(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Title != "ship it" || got.Deadline == nil || !got.Deadline.Equal(deadline) {
		t.Errorf("unexpected task %+v", got)
	}

	got.Title = "ship it today"
	if err := s.Tasks().Update(ctx, got); err != nil {
		t.Fatalf("Update: %v", err)
	}
	again, _ := s.Tasks().GetByID(ctx, task.ID)
	if again.Title != "ship it today" {
		t.Errorf("title = %q, want updated", again.Title)
	}

	if err := s.Tasks().Delete(ctx, task.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Tasks().GetByID(ctx, task.ID); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Errorf("expected ErrTaskNotFound, got %v", err)
	}
	if err := s.Tasks().Delete(ctx, task.ID); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Errorf("expected ErrTaskNotFound on second delete, got %v", err)
	}
}

func TestTaskListFilters(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	old := base.Add(-5 * 24 * time.Hour)
	fresh := base.Add(-time.Hour)
	seed := []domain.Task{
		{ID: "a", OwnerID: "u1", Title: "a", CreatedAt: base.Add(1 * time.Minute)},
		{ID: "b", OwnerID: "u1", Title: "b", CreatedAt: base.Add(2 * time.Minute), Completed: true, CompletedAt: &old},
		{ID: "c", OwnerID: "u2", Title: "c", CreatedAt: base.Add(3 * time.Minute), Completed: true, CompletedAt: &fresh},
	}
	for i := range seed {
		if err := s.Tasks().Create(ctx, &seed[i]); err != nil {
			t.Fatal(err)
		}
	}

	mine, err := s.Tasks().List(ctx, repository.TaskFilter{OwnerID: "u1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(mine) != 2 || mine[0].ID != "b" || mine[1].ID != "a" {
		t.Errorf("owner list = %v, want [b a]", ids(mine))
	}

	done := true
	completed, _ := s.Tasks().List(ctx, repository.TaskFilter{Completed: &done})
	if len(completed) != 2 {
		t.Errorf("completed count = %d, want 2", len(completed))
	}

	stale, _ := s.Tasks().List(ctx, repository.TaskFilter{CompletedBefore: base.Add(-4 * 24 * time.Hour)})
	if len(stale) != 1 || stale[0].ID != "b" {
		t.Errorf("stale = %v, want [b]", ids(stale))
	}

	limited, _ := s.Tasks().List(ctx, repository.TaskFilter{Limit: 2})
	if len(limited) != 2 || limited[0].ID != "c" || limited[1].ID != "b" {
		t.Errorf("limited = %v, want [c b]", ids(limited))
	}
}

func ids(tasks []domain.Task) []string {
	out := make([]string, len(tasks))
	for i, task := range tasks {
		out[i] = task.ID
	}
	return out
}

func TestProfileSaveListAndEmailLookup(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for _, p := range []*domain.Profile{
		{ID: "u1", Name: "Alex", Email: "alex@example.com", Points: 40},
		{ID: "u2", Name: "Emma", Email: "emma@example.com", Points: 90},
		{ID: "u3", Name: "Chris", Points: 40},
	} {
		if err := s.Profiles().Save(ctx, p); err != nil {
			t.Fatal(err)
		}
	}

	all, err := s.Profiles().List(ctx, repository.ProfileFilter{})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"u2", "u1", "u3"}
	for i, p := range all {
		if p.ID != want[i] {
			t.Fatalf("order = %v, want %v", all, want)
		}
	}

	subset, _ := s.Profiles().List(ctx, repository.ProfileFilter{IDs: []string{"u3", "u1", "missing"}})
	if len(subset) != 2 || subset[0].ID != "u1" {
		t.Errorf("subset = %+v", subset)
	}

	p, err := s.Profiles().GetByEmail(ctx, "EMMA@example.com")
	if err != nil || p.ID != "u2" {
		t.Errorf("GetByEmail = %v, %v", p, err)
	}
	if _, err := s.Profiles().GetByEmail(ctx, "nobody@example.com"); !errors.Is(err, domain.ErrProfileNotFound) {
		t.Errorf("expected ErrProfileNotFound, got %v", err)
	}
}

func TestWithinTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	boom := errors.New("boom")

	err := s.WithinTx(ctx, func(tx repository.Tx) error {
		if err := tx.Profiles().Save(ctx, &domain.Profile{ID: "u1", Points: 10}); err != nil {
			return err
		}
		if err := tx.Tasks().Create(ctx, &domain.Task{ID: "t1", OwnerID: "u1", Title: "x"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	if _, err := s.Profiles().GetByID(ctx, "u1"); !errors.Is(err, domain.ErrProfileNotFound) {
		t.Errorf("profile should not exist after rollback, got %v", err)
	}
	if _, err := s.Tasks().GetByID(ctx, "t1"); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Errorf("task should not exist after rollback, got %v", err)
	}
}

func TestActivityNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		a := &domain.Activity{ProfileID: "u1", Kind: domain.ActivityTaskCompleted, Points: 20, Balance: 20 * (i + 1), CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := s.Activities().Append(ctx, a); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Activities().Append(ctx, &domain.Activity{ProfileID: "u2", Points: 5}); err != nil {
		t.Fatal(err)
	}

	items, err := s.Activities().List(ctx, "u1", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 || items[0].Balance != 60 || items[1].Balance != 40 {
		t.Errorf("activity = %+v", items)
	}
}

func TestProfileCreateRejectsExisting(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.Profiles().Create(ctx, domain.NewProfile("u1", "Bronze")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	err := s.Profiles().Create(ctx, &domain.Profile{ID: "u1", Points: 500})
	if !errors.Is(err, domain.ErrProfileExists) {
		t.Fatalf("expected ErrProfileExists, got %v", err)
	}
	p, _ := s.Profiles().GetByID(ctx, "u1")
	if p.Points != 0 {
		t.Errorf("points = %d, existing profile must be untouched", p.Points)
	}
}

func TestProfileVersionIncrementsOnWrite(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	p := domain.NewProfile("u1", "Bronze")
	if err := s.Profiles().Create(ctx, p); err != nil {
		t.Fatal(err)
	}
	if p.Version != 1 {
		t.Fatalf("created version = %d, want 1", p.Version)
	}
	for want := int64(2); want <= 3; want++ {
		p.Points += 10
		if err := s.Profiles().Save(ctx, p); err != nil {
			t.Fatal(err)
		}
		if p.Version != want {
			t.Fatalf("version = %d, want %d", p.Version, want)
		}
	}

	// A stale copy still moves the version forward from what is stored.
	stale := &domain.Profile{ID: "u1", Points: 5, Version: 1}
	if err := s.Profiles().Save(ctx, stale); err != nil {
		t.Fatal(err)
	}
	got, _ := s.Profiles().GetByID(ctx, "u1")
	if got.Version != 4 || stale.Version != 4 {
		t.Errorf("version = %d/%d, want 4", got.Version, stale.Version)
	}
}

func TestCorruptRecordsSurfaceErrors(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.Profiles().Save(ctx, &domain.Profile{ID: "u1", Email: "alex@example.com"}); err != nil {
		t.Fatal(err)
	}
	if err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		for _, key := range []string{taskKey("bad"), profileKey("bad"), prefixActivity + "u1:bad"} {
			if err := b.Put([]byte(key), []byte("{not json")); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	cases := map[string]func() error{
		"task list": func() error {
			_, err := s.Tasks().List(ctx, repository.TaskFilter{})
			return err
		},
		"task get": func() error {
			_, err := s.Tasks().GetByID(ctx, "bad")
			return err
		},
		"profile list": func() error {
			_, err := s.Profiles().List(ctx, repository.ProfileFilter{})
			return err
		},
		"profile by email": func() error {
			_, err := s.Profiles().GetByEmail(ctx, "nobody@example.com")
			return err
		},
		"activity list": func() error {
			_, err := s.Activities().List(ctx, "u1", 0)
			return err
		},
	}
	for name, run := range cases {
		err := run()
		if !domain.IsDomainError(err, domain.ErrCodeInternal) {
			t.Errorf("%s: expected INTERNAL error, got %v", name, err)
		}
	}
}
