package repositories

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/playlog/internal/models"
	"github.com/desertthunder/playlog/internal/shared"
	tu "github.com/desertthunder/playlog/internal/testing"
)

func TestEventStore(t *testing.T) {
	t.Run("Read", func(t *testing.T) {
		t.Run("Missing File Is Empty", func(t *testing.T) {
			store := NewEventStore(filepath.Join(t.TempDir(), "missing.csv"))

			table, err := store.Read()
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if table.Len() != 0 {
				t.Errorf("expected empty table, got %d rows", table.Len())
			}
			if store.Exists() {
				t.Error("store should not exist")
			}
		})

		t.Run("Zero Byte File Is Empty", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "empty.csv")
			if err := os.WriteFile(path, nil, 0o644); err != nil {
				t.Fatal(err)
			}

			table, err := NewEventStore(path).Read()
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if table.Len() != 0 {
				t.Errorf("expected empty table, got %d rows", table.Len())
			}
		})

		t.Run("Existing Store", func(t *testing.T) {
			path := tu.WriteStore(t, t.TempDir(), "store.csv", tu.PlaybackTable(
				[3]string{"Jan 1 2024", "A", "X"},
				[3]string{"Jan 2 2024", "B", "Y"},
			))

			table, err := NewEventStore(path).Read()
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if table.Len() != 2 {
				t.Errorf("expected 2 rows, got %d", table.Len())
			}
		})

		t.Run("Malformed Store", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.csv")
			if err := os.WriteFile(path, []byte("date,artist\n\"open,quote\n"), 0o644); err != nil {
				t.Fatal(err)
			}

			if _, err := NewEventStore(path).Read(); err == nil {
				t.Error("expected parse error")
			}
		})

		t.Run("Directory", func(t *testing.T) {
			if _, err := NewEventStore(t.TempDir()).Read(); err == nil {
				t.Error("expected error reading a directory")
			}
		})
	})

	t.Run("Write", func(t *testing.T) {
		t.Run("Creates Store And Parents", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", "dir", "store.csv")
			store := NewEventStore(path)

			if err := store.Write(tu.PlaybackTable([3]string{"Jan 1 2024", "A", "X"})); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			tu.AssertFileExists(t, path)
			content := tu.MustReadFile(t, path)
			if content != "date,artist,song\nJan 1 2024,A,X\n" {
				t.Errorf("unexpected content %q", content)
			}
		})

		t.Run("Replaces Whole File", func(t *testing.T) {
			dir := t.TempDir()
			path := tu.WriteStore(t, dir, "store.csv", tu.PlaybackTable(
				[3]string{"Jan 1 2024", "A", "X"},
				[3]string{"Jan 2 2024", "B", "Y"},
			))
			store := NewEventStore(path)

			if err := store.Write(tu.PlaybackTable([3]string{"Mar 1 2024", "C", "Z"})); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			table, err := store.Read()
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if table.Len() != 1 || table.Rows[0]["artist"] != "C" {
				t.Errorf("expected only the new row, got %+v", table.Rows)
			}

			entries, _ := os.ReadDir(dir)
			for _, e := range entries {
				if strings.HasSuffix(e.Name(), ".tmp") {
					t.Errorf("temp file left behind: %s", e.Name())
				}
			}
		})

		t.Run("File Mode", func(t *testing.T) {
			tests := []struct {
				name    string
				initial os.FileMode // 0 means no existing store
				want    os.FileMode
			}{
				{name: "New Store", want: 0o644},
				{name: "Keeps Private Store", initial: 0o600, want: 0o600},
				{name: "Keeps Group Writable Store", initial: 0o664, want: 0o664},
			}

			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					path := filepath.Join(t.TempDir(), "store.csv")
					if tt.initial != 0 {
						path = tu.WriteStore(t, filepath.Dir(path), "store.csv", tu.PlaybackTable([3]string{"Jan 1 2024", "A", "X"}))
						if err := os.Chmod(path, tt.initial); err != nil {
							t.Fatal(err)
						}
					}

					if err := NewEventStore(path).Write(tu.PlaybackTable([3]string{"Feb 1 2024", "B", "Y"})); err != nil {
						t.Fatalf("expected no error, got %v", err)
					}

					info, err := os.Stat(path)
					if err != nil {
						t.Fatal(err)
					}
					if info.Mode().Perm() != tt.want {
						t.Errorf("expected mode %v, got %v", tt.want, info.Mode().Perm())
					}
				})
			}
		})

		t.Run("Round Trip Keeps Column Order", func(t *testing.T) {
			store := NewEventStore(filepath.Join(t.TempDir(), "store.csv"))
			table := models.NewTable("song", "date", "artist", "extra")
			table.Append("X", "Jan 1 2024", "A, with comma", "")

			if err := store.Write(table); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			got, err := store.Read()
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if strings.Join(got.Columns, "|") != "song|date|artist|extra" {
				t.Errorf("unexpected columns %v", got.Columns)
			}
			if got.Rows[0]["artist"] != "A, with comma" {
				t.Errorf("unexpected artist %q", got.Rows[0]["artist"])
			}
		})

		t.Run("Parent Is A File", func(t *testing.T) {
			dir := t.TempDir()
			blocker := filepath.Join(dir, "blocker")
			if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
				t.Fatal(err)
			}
			err := NewEventStore(filepath.Join(blocker, "store.csv")).Write(tu.PlaybackTable())
			if !errors.Is(err, shared.ErrPersist) {
				t.Errorf("expected ErrPersist, got %v", err)
			}
		})

		t.Run("Rename Onto Directory Fails", func(t *testing.T) {
			dir := t.TempDir()
			target := filepath.Join(dir, "store.csv")
			if err := os.MkdirAll(filepath.Join(target, "child"), 0o755); err != nil {
				t.Fatal(err)
			}

			err := NewEventStore(target).Write(tu.PlaybackTable([3]string{"Jan 1 2024", "A", "X"}))
			if !errors.Is(err, shared.ErrPersist) {
				t.Errorf("expected ErrPersist, got %v", err)
			}

			entries, _ := os.ReadDir(dir)
			for _, e := range entries {
				if strings.HasSuffix(e.Name(), ".tmp") {
					t.Errorf("temp file left behind: %s", e.Name())
				}
			}
		})
	})
}
