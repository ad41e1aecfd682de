package tasks

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/playlog/internal/models"
	"github.com/desertthunder/playlog/internal/repositories"
	"github.com/desertthunder/playlog/internal/services"
	"github.com/desertthunder/playlog/internal/shared"
	tu "github.com/desertthunder/playlog/internal/testing"
)

type failingStore struct {
	path     string
	table    *models.Table
	readErr  error
	writeErr error
	writes   int
}

func (f *failingStore) Path() string { return f.path }

func (f *failingStore) Read() (*models.Table, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	if f.table == nil {
		return models.NewTable(), nil
	}
	return f.table, nil
}

func (f *failingStore) Write(table *models.Table) error {
	f.writes++
	if f.writeErr != nil {
		return f.writeErr
	}
	f.table = table
	return nil
}

type mockRecorder struct {
	created   []*models.SyncRun
	updated   []*models.SyncRun
	createErr error
	updateErr error
}

func (m *mockRecorder) Create(run *models.SyncRun) error {
	if m.createErr != nil {
		return m.createErr
	}
	run.SetID("run-" + string(rune('a'+len(m.created))))
	m.created = append(m.created, run)
	return nil
}

func (m *mockRecorder) Update(run *models.SyncRun) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updated = append(m.updated, run)
	return nil
}

func quietLogger() *log.Logger {
	return shared.NewLogger(io.Discard)
}

func newTestSyncer(source services.Source, store Store, opts SyncerOpts) *Syncer {
	if opts.Logger == nil {
		opts.Logger = quietLogger()
	}
	return NewSyncer(source, store, opts)
}

func TestMergeTables(t *testing.T) {
	t.Run("Drops Fetched Duplicate", func(t *testing.T) {
		existing := tu.PlaybackTable([3]string{"Jan 1 2023", "A", "X"})
		fetched := tu.PlaybackTable(
			[3]string{"Jan 1 2023", "A", "X"},
			[3]string{"Jan 2 2023", "B", "Y"},
		)

		merged, report := MergeTables(existing, fetched)

		if merged.Len() != 2 {
			t.Fatalf("expected 2 rows, got %d", merged.Len())
		}
		if report.DroppedDuplicates != 1 {
			t.Errorf("expected 1 dropped duplicate, got %d", report.DroppedDuplicates)
		}
		if report.ExistingRows != 1 || report.FetchedRows != 2 || report.TotalRows != 2 {
			t.Errorf("unexpected report %+v", report)
		}
		if report.AddedRows() != 1 {
			t.Errorf("expected 1 added row, got %d", report.AddedRows())
		}
	})

	t.Run("Idempotent", func(t *testing.T) {
		stores := []*models.Table{
			models.NewTable(),
			tu.PlaybackTable([3]string{"Jan 1 2023", "A", "X"}),
			tu.PlaybackTable([3]string{"Jan 1 2023", "A", "X"}, [3]string{"Jan 1 2023", "A", "X"}),
		}
		fetched := tu.PlaybackTable(
			[3]string{"Jan 1 2023", "A", "X"},
			[3]string{"Jan 2 2023", "B", "Y"},
			[3]string{"Jan 2 2023", "B", "Y"},
		)

		for i, store := range stores {
			once, _ := MergeTables(store, fetched)
			twice, report := MergeTables(once, fetched)
			if once.Len() != twice.Len() {
				t.Errorf("store %d: expected %d rows after second merge, got %d", i, once.Len(), twice.Len())
			}
			if report.AddedRows() != 0 {
				t.Errorf("store %d: second merge should add nothing, added %d", i, report.AddedRows())
			}
		}
	})

	t.Run("Preserves Existing Order", func(t *testing.T) {
		existing := tu.PlaybackTable(
			[3]string{"Mar 1 2024", "C", "Z"},
			[3]string{"Jan 1 2024", "A", "X"},
			[3]string{"Feb 1 2024", "B", "Y"},
		)
		fetched := tu.PlaybackTable(
			[3]string{"Feb 1 2024", "B", "Y"},
			[3]string{"Apr 1 2024", "D", "W"},
			[3]string{"Mar 1 2024", "C", "Z"},
		)

		merged, _ := MergeTables(existing, fetched)

		var got []string
		for _, row := range merged.Rows {
			got = append(got, row["artist"])
		}
		if strings.Join(got, "") != "CABD" {
			t.Errorf("expected order CABD, got %v", got)
		}
	})

	t.Run("Keeps First Of Existing Duplicates", func(t *testing.T) {
		existing := tu.PlaybackTable(
			[3]string{"Jan 1 2024", "A", "X"},
			[3]string{"Jan 1 2024", "A", "X"},
		)

		merged, report := MergeTables(existing, models.NewTable())
		if merged.Len() != 1 || report.DroppedDuplicates != 1 {
			t.Errorf("expected 1 row and 1 dropped, got %d rows %d dropped", merged.Len(), report.DroppedDuplicates)
		}
	})

	t.Run("Column Union", func(t *testing.T) {
		existing := tu.PlaybackTable([3]string{"Jan 1 2024", "A", "X"})
		fetched := models.NewTable("date", "artist", "song", "album")
		fetched.Append("Jan 1 2024", "A", "X", "")
		fetched.Append("Jan 1 2024", "A", "X", "Debut")

		merged, report := MergeTables(existing, fetched)

		if strings.Join(merged.Columns, ",") != "date,artist,song,album" {
			t.Errorf("unexpected columns %v", merged.Columns)
		}
		if merged.Len() != 2 {
			t.Errorf("expected blank album to match missing album, got %d rows", merged.Len())
		}
		if report.DroppedDuplicates != 1 {
			t.Errorf("expected 1 dropped, got %d", report.DroppedDuplicates)
		}
	})

	t.Run("Whole Row Equality", func(t *testing.T) {
		existing := tu.PlaybackTable([3]string{"Jan 1 2024", "A", "X"})
		fetched := tu.PlaybackTable(
			[3]string{"Jan 1 2024", "A", "x"},
			[3]string{"Jan 1 2024 ", "A", "X"},
		)

		merged, _ := MergeTables(existing, fetched)
		if merged.Len() != 3 {
			t.Errorf("expected rows differing in any cell to be kept, got %d", merged.Len())
		}
	})

	t.Run("Nil Tables", func(t *testing.T) {
		merged, report := MergeTables(nil, nil)
		if merged.Len() != 0 || report.TotalRows != 0 {
			t.Errorf("expected empty merge, got %d rows", merged.Len())
		}

		merged, _ = MergeTables(nil, tu.PlaybackTable([3]string{"Jan 1 2024", "A", "X"}))
		if merged.Len() != 1 || len(merged.Columns) != 3 {
			t.Errorf("expected fetched table to seed the store, got %d rows %v", merged.Len(), merged.Columns)
		}
	})
}

func TestSyncer(t *testing.T) {
	t.Run("MergeAndPersist", func(t *testing.T) {
		t.Run("Creates Store On First Sync", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "history.csv")
			syncer := newTestSyncer(nil, repositories.NewEventStore(path), SyncerOpts{})

			report, err := syncer.MergeAndPersist(tu.PlaybackTable(
				[3]string{"Jan 1 2023", "A", "X"},
				[3]string{"Jan 2 2023", "B", "Y"},
			))
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if report.TotalRows != 2 || report.ExistingRows != 0 || report.StorePath != path {
				t.Errorf("unexpected report %+v", report)
			}
			tu.AssertFileExists(t, path)
		})

		t.Run("Merges Into Existing Store", func(t *testing.T) {
			dir := t.TempDir()
			path := tu.WriteStore(t, dir, "history.csv", tu.PlaybackTable([3]string{"Jan 1 2023", "A", "X"}))
			store := repositories.NewEventStore(path)
			syncer := newTestSyncer(nil, store, SyncerOpts{})

			fetched := tu.PlaybackTable(
				[3]string{"Jan 1 2023", "A", "X"},
				[3]string{"Jan 2 2023", "B", "Y"},
			)
			report, err := syncer.MergeAndPersist(fetched)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if report.TotalRows != 2 || report.DroppedDuplicates != 1 {
				t.Errorf("unexpected report %+v", report)
			}

			again, err := syncer.MergeAndPersist(fetched)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if again.TotalRows != 2 {
				t.Errorf("expected idempotent merge, got %d rows", again.TotalRows)
			}

			content := tu.MustReadFile(t, path)
			if content != "date,artist,song\nJan 1 2023,A,X\nJan 2 2023,B,Y\n" {
				t.Errorf("unexpected store content %q", content)
			}
		})

		t.Run("Write Failure", func(t *testing.T) {
			existing := tu.PlaybackTable([3]string{"Jan 1 2023", "A", "X"})
			store := &failingStore{path: "mem", table: existing, writeErr: errors.New("disk full")}
			syncer := newTestSyncer(nil, store, SyncerOpts{})

			_, err := syncer.MergeAndPersist(tu.PlaybackTable([3]string{"Jan 2 2023", "B", "Y"}))
			if !errors.Is(err, shared.ErrPersist) {
				t.Errorf("expected ErrPersist, got %v", err)
			}
			if store.table != existing {
				t.Error("store content should be unchanged")
			}
		})

		t.Run("Read Failure", func(t *testing.T) {
			store := &failingStore{path: "mem", readErr: errors.New("corrupt")}
			syncer := newTestSyncer(nil, store, SyncerOpts{})

			_, err := syncer.MergeAndPersist(tu.PlaybackTable())
			if !errors.Is(err, shared.ErrPersist) {
				t.Errorf("expected ErrPersist, got %v", err)
			}
			if store.writes != 0 {
				t.Error("store should not be written after a read failure")
			}
		})
	})

	t.Run("Fetch", func(t *testing.T) {
		t.Run("Wraps Source Errors", func(t *testing.T) {
			source := tu.NewMockSource("u", tu.MockFetch{Err: errors.New("boom")})
			syncer := newTestSyncer(source, &failingStore{path: "mem"}, SyncerOpts{})

			if _, err := syncer.Fetch(context.Background()); !errors.Is(err, shared.ErrFetch) {
				t.Errorf("expected ErrFetch, got %v", err)
			}
		})

		t.Run("Nil Table", func(t *testing.T) {
			source := tu.NewMockSource("u", tu.MockFetch{})
			syncer := newTestSyncer(source, &failingStore{path: "mem"}, SyncerOpts{})

			if _, err := syncer.Fetch(context.Background()); !errors.Is(err, shared.ErrFetch) {
				t.Errorf("expected ErrFetch, got %v", err)
			}
		})

		t.Run("No Source", func(t *testing.T) {
			syncer := NewSyncer(nil, &failingStore{path: "mem"}, SyncerOpts{Logger: quietLogger()})

			_, err := syncer.Fetch(context.Background())
			if !errors.Is(err, shared.ErrFetch) || !errors.Is(err, shared.ErrServiceUnavailable) {
				t.Errorf("expected ErrFetch and ErrServiceUnavailable, got %v", err)
			}
		})
	})

	t.Run("RunOnce", func(t *testing.T) {
		t.Run("Success Is Recorded", func(t *testing.T) {
			source := tu.NewMockSource("https://sheet", tu.MockFetch{Table: tu.PlaybackTable([3]string{"Jan 1 2024", "A", "X"})})
			recorder := &mockRecorder{}
			store := &failingStore{path: "mem"}
			syncer := newTestSyncer(source, store, SyncerOpts{Recorder: recorder})

			result := syncer.RunOnce(context.Background())
			if !result.OK() {
				t.Fatalf("expected success, got %v", result.Err)
			}
			if result.Report.TotalRows != 1 {
				t.Errorf("expected 1 row, got %d", result.Report.TotalRows)
			}
			if len(recorder.created) != 1 || len(recorder.updated) != 1 {
				t.Fatalf("expected run to be created and updated, got %d/%d", len(recorder.created), len(recorder.updated))
			}
			run := recorder.updated[0]
			if run.Status() != models.SyncOK || run.TotalRows() != 1 || run.SheetURL() != "https://sheet" {
				t.Errorf("unexpected recorded run: %s %d %s", run.Status(), run.TotalRows(), run.SheetURL())
			}
			if result.Run != run {
				t.Error("expected result to carry the recorded run")
			}
		})

		t.Run("Fetch Failure Leaves Store Untouched", func(t *testing.T) {
			source := tu.NewMockSource("u", tu.MockFetch{Err: shared.ErrFetch})
			recorder := &mockRecorder{}
			store := &failingStore{path: "mem"}
			syncer := newTestSyncer(source, store, SyncerOpts{Recorder: recorder})

			result := syncer.RunOnce(context.Background())
			if !errors.Is(result.Err, shared.ErrFetch) {
				t.Errorf("expected ErrFetch, got %v", result.Err)
			}
			if store.writes != 0 {
				t.Error("store should not be written when fetch fails")
			}
			if len(recorder.updated) != 1 || recorder.updated[0].Status() != models.SyncFailed {
				t.Error("expected failed run to be recorded")
			}
		})

		t.Run("Recorder Failure Does Not Abort", func(t *testing.T) {
			source := tu.NewMockSource("u", tu.MockFetch{Table: tu.PlaybackTable([3]string{"Jan 1 2024", "A", "X"})})
			recorder := &mockRecorder{createErr: errors.New("db locked")}
			store := &failingStore{path: "mem"}
			syncer := newTestSyncer(source, store, SyncerOpts{Recorder: recorder})

			result := syncer.RunOnce(context.Background())
			if !result.OK() {
				t.Fatalf("expected success despite recorder failure, got %v", result.Err)
			}
			if result.Run != nil {
				t.Error("expected no run when recording failed")
			}
			if store.writes != 1 {
				t.Errorf("expected 1 write, got %d", store.writes)
			}
		})

		t.Run("Duration From Clock", func(t *testing.T) {
			base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
			ticks := 0
			clock := func() time.Time {
				ticks++
				return base.Add(time.Duration(ticks) * time.Second)
			}
			source := tu.NewMockSource("u", tu.MockFetch{Table: tu.PlaybackTable()})
			syncer := newTestSyncer(source, &failingStore{path: "mem"}, SyncerOpts{Clock: clock})

			result := syncer.RunOnce(context.Background())
			if result.Duration != time.Second {
				t.Errorf("expected 1s, got %v", result.Duration)
			}
		})

		t.Run("Progress Never Blocks", func(t *testing.T) {
			progress := make(chan ProgressUpdate)
			source := tu.NewMockSource("u", tu.MockFetch{Table: tu.PlaybackTable()})
			syncer := newTestSyncer(source, &failingStore{path: "mem"}, SyncerOpts{Progress: progress})

			done := make(chan struct{})
			go func() {
				syncer.RunOnce(context.Background())
				close(done)
			}()

			select {
			case <-done:
			case <-time.After(2 * time.Second):
				t.Fatal("RunOnce blocked on an unread progress channel")
			}
		})

		t.Run("Progress Phases", func(t *testing.T) {
			progress := make(chan ProgressUpdate, 16)
			source := tu.NewMockSource("u", tu.MockFetch{Table: tu.PlaybackTable([3]string{"Jan 1 2024", "A", "X"})})
			syncer := newTestSyncer(source, &failingStore{path: "mem"}, SyncerOpts{Progress: progress})

			syncer.RunOnce(context.Background())
			close(progress)

			var phases []string
			for u := range progress {
				phases = append(phases, u.Phase.String())
			}
			expected := "fetch_remote,read_store,merge_rows,persist_store,cycle_done"
			if strings.Join(phases, ",") != expected {
				t.Errorf("expected phases %s, got %v", expected, phases)
			}
		})
	})

	t.Run("Loop", func(t *testing.T) {
		t.Run("Continues After Failures", func(t *testing.T) {
			source := tu.NewMockSource("u",
				tu.MockFetch{Err: shared.ErrFetch},
				tu.MockFetch{Table: tu.PlaybackTable([3]string{"Jan 1 2024", "A", "X"})},
				tu.MockFetch{Err: errors.New("timeout")},
				tu.MockFetch{Table: tu.PlaybackTable([3]string{"Jan 2 2024", "B", "Y"})},
			)
			store := &failingStore{path: "mem"}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			var results []CycleResult
			syncer := newTestSyncer(source, store, SyncerOpts{OnCycle: func(r CycleResult) {
				results = append(results, r)
				if len(results) == 4 {
					cancel()
				}
			}})

			err := syncer.Loop(ctx, time.Millisecond)
			if !errors.Is(err, context.Canceled) {
				t.Errorf("expected context.Canceled, got %v", err)
			}
			if len(results) != 4 {
				t.Fatalf("expected 4 cycles, got %d", len(results))
			}
			for i, want := range []bool{false, true, false, true} {
				if results[i].OK() != want {
					t.Errorf("cycle %d: expected ok=%v, got err %v", i, want, results[i].Err)
				}
			}
			if store.table.Len() != 2 {
				t.Errorf("expected 2 stored rows, got %d", store.table.Len())
			}
		})

		t.Run("Stops During Wait", func(t *testing.T) {
			source := tu.NewMockSource("u", tu.MockFetch{Table: tu.PlaybackTable()})
			ctx, cancel := context.WithCancel(context.Background())
			syncer := newTestSyncer(source, &failingStore{path: "mem"}, SyncerOpts{OnCycle: func(CycleResult) { cancel() }})

			done := make(chan error, 1)
			go func() { done <- syncer.Loop(ctx, time.Hour) }()

			select {
			case err := <-done:
				if !errors.Is(err, context.Canceled) {
					t.Errorf("expected context.Canceled, got %v", err)
				}
			case <-time.After(2 * time.Second):
				t.Fatal("loop did not stop on cancellation")
			}
			if source.Calls() != 1 {
				t.Errorf("expected 1 fetch, got %d", source.Calls())
			}
		})

		t.Run("Cancelled Before Start", func(t *testing.T) {
			source := tu.NewMockSource("u")
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			err := newTestSyncer(source, &failingStore{path: "mem"}, SyncerOpts{}).Loop(ctx, 0)
			if !errors.Is(err, context.Canceled) {
				t.Errorf("expected context.Canceled, got %v", err)
			}
			if source.Calls() != 0 {
				t.Errorf("expected no fetch, got %d", source.Calls())
			}
		})
	})
}
