package leaderboard

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/OmChannawar/Listify/domain"
	"github.com/OmChannawar/Listify/repository"
	"github.com/OmChannawar/Listify/repository/bolt"
	"github.com/OmChannawar/Listify/scoring"
	"github.com/OmChannawar/Listify/usecase"
)

// memoryIndex mirrors the Redis index: a write with a version at or below the
// stored one is ignored.
type memoryIndex struct {
	scores   map[string]repository.Score
	err      error
	resetErr error
	topCalls int
}

func (m *memoryIndex) Record(_ context.Context, id string, score repository.Score) error {
	if cur, ok := m.scores[id]; ok && cur.Version >= score.Version {
		return nil
	}
	m.scores[id] = score
	return nil
}

func (m *memoryIndex) Top(_ context.Context, limit int) ([]string, error) {
	m.topCalls++
	if m.err != nil {
		return nil, m.err
	}
	ids := make([]string, 0, len(m.scores))
	for id := range m.scores {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return m.scores[ids[i]].Points > m.scores[ids[j]].Points })
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (m *memoryIndex) Reset(_ context.Context, scores map[string]repository.Score) error {
	if m.resetErr != nil {
		return m.resetErr
	}
	m.scores = make(map[string]repository.Score, len(scores))
	for id, sc := range scores {
		m.scores[id] = sc
	}
	return nil
}

func newMemoryIndex() *memoryIndex {
	return &memoryIndex{scores: map[string]repository.Score{}}
}

func seedStore(t *testing.T) *bolt.Store {
	t.Helper()
	store, err := bolt.Open(filepath.Join(t.TempDir(), "listify.db"), "")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	for _, p := range []*domain.Profile{
		{ID: "u1", Name: "Alex", Points: 300, Rank: "Iron", Friends: []string{"u3", "gone"}},
		{ID: "u2", Name: "Emma", Points: 5200, Rank: "Platinum"},
		{ID: "u3", Name: "Chris", Points: 300, Rank: "Iron"},
		{ID: "u4", Name: "Dana", Points: 800, Rank: "Copper"},
	} {
		if err := store.Profiles().Save(ctx, p); err != nil {
			t.Fatal(err)
		}
	}
	return store
}

func entryIDs(entries []domain.LeaderboardEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestGlobalFromStore(t *testing.T) {
	uc := New(seedStore(t), nil, scoring.NewEngine(time.UTC), nil)

	entries, err := uc.Global(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"u2", "u4", "u1", "u3"}
	if got := entryIDs(entries); !equalIDs(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
	if entries[0].Rank != "Platinum" || entries[0].Points != 5200 {
		t.Errorf("top entry = %+v", entries[0])
	}

	top2, _ := uc.Global(context.Background(), 2)
	if got := entryIDs(top2); !equalIDs(got, []string{"u2", "u4"}) {
		t.Errorf("top2 = %v", got)
	}
}

func TestGlobalFromIndex(t *testing.T) {
	store := seedStore(t)
	index := newMemoryIndex()
	uc := New(store, index, scoring.NewEngine(time.UTC), nil)

	if err := uc.Rebuild(context.Background()); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if len(index.scores) != 4 || index.scores["u2"].Points != 5200 || index.scores["u2"].Version != 1 {
		t.Fatalf("index = %v", index.scores)
	}

	entries, err := uc.Global(context.Background(), 2)
	if err != nil {
		t.Fatal(err)
	}
	if got := entryIDs(entries); !equalIDs(got, []string{"u2", "u4"}) {
		t.Errorf("order = %v, want [u2 u4]", got)
	}
	if index.topCalls != 1 {
		t.Errorf("index reads = %d, want 1", index.topCalls)
	}
}

func TestGlobalFallsBackWhenIndexFails(t *testing.T) {
	index := newMemoryIndex()
	uc := New(seedStore(t), index, scoring.NewEngine(time.UTC), nil)
	if err := uc.Rebuild(context.Background()); err != nil {
		t.Fatal(err)
	}
	index.err = errors.New("connection refused")

	entries, err := uc.Global(context.Background(), 10)
	if err != nil {
		t.Fatalf("Global: %v", err)
	}
	if len(entries) != 4 {
		t.Errorf("entries = %d, want 4", len(entries))
	}
}

func TestGlobalReadsStoreUntilRebuilt(t *testing.T) {
	index := newMemoryIndex()
	index.resetErr = errors.New("connection refused")
	uc := New(seedStore(t), index, scoring.NewEngine(time.UTC), nil)

	if err := uc.Rebuild(context.Background()); err == nil {
		t.Fatal("Rebuild succeeded against a failing index")
	}
	entries, err := uc.Global(context.Background(), 2)
	if err != nil {
		t.Fatal(err)
	}
	if got := entryIDs(entries); !equalIDs(got, []string{"u2", "u4"}) {
		t.Errorf("order = %v, want [u2 u4]", got)
	}
	if index.topCalls != 0 {
		t.Errorf("index read %d times before a rebuild", index.topCalls)
	}
}

func TestGlobalIncludesLateProfiles(t *testing.T) {
	ctx := context.Background()
	store := seedStore(t)
	index := newMemoryIndex()
	uc := New(store, index, scoring.NewEngine(time.UTC), nil)
	if err := uc.Rebuild(ctx); err != nil {
		t.Fatal(err)
	}

	// First access through the use case indexes the new profile.
	if _, err := uc.Friends(ctx, "late"); err != nil {
		t.Fatal(err)
	}
	if sc, ok := index.scores["late"]; !ok || sc.Version != 1 {
		t.Fatalf("late profile not indexed: %+v", index.scores)
	}
	entries, err := uc.Global(ctx, 5)
	if err != nil {
		t.Fatal(err)
	}
	if got := entryIDs(entries); !equalIDs(got, []string{"u2", "u4", "u1", "u3", "late"}) {
		t.Errorf("board = %v", got)
	}

	// A profile the index never heard about still shows up when the index
	// comes back short.
	if err := store.Profiles().Create(ctx, &domain.Profile{ID: "quiet", Name: "Quinn", Rank: "Bronze"}); err != nil {
		t.Fatal(err)
	}
	entries, err = uc.Global(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 6 {
		t.Errorf("entries = %v, want 6", entryIDs(entries))
	}
}

func TestRecordScoreKeepsNewestVersion(t *testing.T) {
	ctx := context.Background()
	index := newMemoryIndex()

	usecase.RecordScore(ctx, index, nil, &domain.Profile{ID: "u1", Points: 20, Version: 3})
	usecase.RecordScore(ctx, index, nil, &domain.Profile{ID: "u1", Points: 40, Version: 2})

	if got := index.scores["u1"]; got.Points != 20 || got.Version != 3 {
		t.Errorf("score = %+v, want 20 at version 3", got)
	}
}

func TestFriendsIncludesOwnerAndSkipsMissing(t *testing.T) {
	uc := New(seedStore(t), nil, scoring.NewEngine(time.UTC), nil)

	entries, err := uc.Friends(context.Background(), "u1")
	if err != nil {
		t.Fatal(err)
	}
	if got := entryIDs(entries); !equalIDs(got, []string{"u1", "u3"}) {
		t.Errorf("friends board = %v, want [u1 u3]", got)
	}

	solo, err := uc.Friends(context.Background(), "newcomer")
	if err != nil {
		t.Fatal(err)
	}
	if len(solo) != 1 || solo[0].ID != "newcomer" || solo[0].Rank != "Bronze" {
		t.Errorf("solo board = %+v", solo)
	}
}
