package repositories

import (
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/playlog/internal/models"
	"github.com/desertthunder/playlog/internal/shared"
)

func newRun(storePath string) *models.SyncRun {
	return models.NewSyncRun(0, "https://docs.google.com/spreadsheets/d/x/edit", storePath, time.Now().Add(-time.Second))
}

func TestSyncRunRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSyncRunRepository(db)
		run := newRun("store.csv")

		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create sync run: %v", err)
		}
		if run.ID() == "" {
			t.Error("run ID should be set after creation")
		}
		if run.Sequence() != 1 {
			t.Errorf("expected sequence 1, got %d", run.Sequence())
		}
	})

	t.Run("Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSyncRunRepository(db)
		run := newRun("store.csv")
		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create sync run: %v", err)
		}

		got, err := repo.Get(run.ID())
		if err != nil {
			t.Fatalf("failed to get sync run: %v", err)
		}
		if got.Status() != models.SyncRunning {
			t.Errorf("expected status running, got %s", got.Status())
		}
		if got.StorePath() != "store.csv" {
			t.Errorf("expected store path store.csv, got %s", got.StorePath())
		}
		if got.FinishedAt() != nil {
			t.Error("running sync should have no finish time")
		}
	})

	t.Run("Update Succeeded", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSyncRunRepository(db)
		run := newRun("store.csv")
		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create sync run: %v", err)
		}

		run.Succeed(models.MergeReport{FetchedRows: 5, DroppedDuplicates: 2, TotalRows: 9}, time.Now())
		if err := repo.Update(run); err != nil {
			t.Fatalf("failed to update sync run: %v", err)
		}

		got, err := repo.Get(run.ID())
		if err != nil {
			t.Fatalf("failed to get sync run: %v", err)
		}
		if got.Status() != models.SyncOK {
			t.Errorf("expected status ok, got %s", got.Status())
		}
		if got.FetchedRows() != 5 || got.DroppedRows() != 2 || got.TotalRows() != 9 {
			t.Errorf("unexpected counts: %d/%d/%d", got.FetchedRows(), got.DroppedRows(), got.TotalRows())
		}
		if got.FinishedAt() == nil {
			t.Error("expected finish time to be set")
		}
		if got.Duration() < time.Second {
			t.Errorf("expected duration of at least 1s, got %v", got.Duration())
		}
	})

	t.Run("Update Failed", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSyncRunRepository(db)
		run := newRun("store.csv")
		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create sync run: %v", err)
		}

		run.Fail(shared.ErrFetch, time.Now())
		if err := repo.Update(run); err != nil {
			t.Fatalf("failed to update sync run: %v", err)
		}

		got, _ := repo.Get(run.ID())
		if got.Status() != models.SyncFailed {
			t.Errorf("expected status failed, got %s", got.Status())
		}
		if got.Error() != shared.ErrFetch.Error() {
			t.Errorf("expected error text %q, got %q", shared.ErrFetch.Error(), got.Error())
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSyncRunRepository(db)
		run := newRun("store.csv")
		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create sync run: %v", err)
		}

		if err := repo.Delete(run.ID()); err != nil {
			t.Fatalf("failed to delete sync run: %v", err)
		}
		if _, err := repo.Get(run.ID()); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
		if err := repo.Delete(run.ID()); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound on second delete, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSyncRunRepository(db)
		for i := range 4 {
			run := newRun("store.csv")
			if i == 3 {
				run = newRun("other.csv")
			}
			if err := repo.Create(run); err != nil {
				t.Fatalf("failed to create sync run: %v", err)
			}
			if i%2 == 0 {
				run.Succeed(models.MergeReport{TotalRows: i}, time.Now())
			} else {
				run.Fail(shared.ErrFetch, time.Now())
			}
			if err := repo.Update(run); err != nil {
				t.Fatalf("failed to update sync run: %v", err)
			}
		}

		tests := []struct {
			name     string
			criteria map[string]any
			expected int
		}{
			{name: "All", criteria: map[string]any{}, expected: 4},
			{name: "Nil Criteria", criteria: nil, expected: 4},
			{name: "By Status String", criteria: map[string]any{"status": "ok"}, expected: 2},
			{name: "By Status Type", criteria: map[string]any{"status": models.SyncFailed}, expected: 2},
			{name: "By Store Path", criteria: map[string]any{"store_path": "other.csv"}, expected: 1},
			{name: "Limit", criteria: map[string]any{"limit": 3}, expected: 3},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				runs, err := repo.List(tt.criteria)
				if err != nil {
					t.Fatalf("failed to list sync runs: %v", err)
				}
				if len(runs) != tt.expected {
					t.Errorf("expected %d runs, got %d", tt.expected, len(runs))
				}
			})
		}

		t.Run("Newest First", func(t *testing.T) {
			runs, _ := repo.List(nil)
			for i := 1; i < len(runs); i++ {
				if runs[i-1].Sequence() <= runs[i].Sequence() {
					t.Errorf("expected descending sequence, got %d then %d", runs[i-1].Sequence(), runs[i].Sequence())
				}
			}
		})
	})

	t.Run("Latest", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSyncRunRepository(db)
		if _, err := repo.Latest(); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound on empty history, got %v", err)
		}

		var last *models.SyncRun
		for range 3 {
			last = newRun("store.csv")
			if err := repo.Create(last); err != nil {
				t.Fatalf("failed to create sync run: %v", err)
			}
		}

		got, err := repo.Latest()
		if err != nil {
			t.Fatalf("failed to get latest run: %v", err)
		}
		if got.ID() != last.ID() {
			t.Errorf("expected latest %s, got %s", last.ID(), got.ID())
		}
	})
}

func TestSyncRunRepositoryErrors(t *testing.T) {
	t.Run("Create Validation", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewSyncRunRepository(db)
		if err := repo.Create(newRun("")); err == nil {
			t.Fatal("expected validation error for empty store path")
		}
	})

	t.Run("Get Not Found", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		if _, err := NewSyncRunRepository(db).Get("missing"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Update Not Found", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		run := newRun("store.csv")
		run.SetID("missing")
		if err := NewSyncRunRepository(db).Update(run); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Closed Database", func(t *testing.T) {
		db := setupTestDB(t)
		db.Close()

		repo := NewSyncRunRepository(db)
		if err := repo.Create(newRun("store.csv")); err == nil {
			t.Error("expected error on closed database")
		}
		if _, err := repo.List(nil); err == nil {
			t.Error("expected error on closed database")
		}
		if _, err := repo.Latest(); err == nil || errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected database error, got %v", err)
		}
	})
}
