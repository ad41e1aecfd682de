package repositories

import (
	"database/sql"
	"testing"

	"github.com/desertthunder/playlog/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func TestNextSequence(t *testing.T) {
	t.Run("Increments", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		for want := 1; want <= 3; want++ {
			got, err := NextSequence(db, "sync_runs")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != want {
				t.Errorf("expected sequence %d, got %d", want, got)
			}
		}
	})

	t.Run("Unknown Table", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		if _, err := NextSequence(db, "nope"); err == nil {
			t.Error("expected error for missing sequence table")
		}
	})
}
