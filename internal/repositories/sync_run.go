package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/playlog/internal/models"
	"github.com/desertthunder/playlog/internal/shared"
)

const syncRunColumns = `id, sequence, sheet_url, store_path, status, fetched_rows, dropped_rows, total_rows, error,
	duration_ms, started_at, finished_at, created_at, updated_at, deleted_at`

// SyncRunRepository implements models.Repository[*models.SyncRun] for the sync history.
//
// Every ingestion cycle is inserted as running and updated once it finishes, so a crashed process leaves a visible trace.
type SyncRunRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.SyncRun] = (*SyncRunRepository)(nil)

// NewSyncRunRepository creates a new SyncRunRepository with the given database connection
func NewSyncRunRepository(db *sql.DB) *SyncRunRepository {
	return &SyncRunRepository{db: db}
}

// Create inserts a new [models.SyncRun] with generated ID and sequence.
func (r *SyncRunRepository) Create(run *models.SyncRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "sync_runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	run.SetID(id)
	run.SetSequence(sequence)

	query := `
		INSERT INTO sync_runs (id, sequence, sheet_url, store_path, status, fetched_rows, dropped_rows, total_rows, error,
			duration_ms, started_at, finished_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		run.SheetURL(),
		run.StorePath(),
		string(run.Status()),
		run.FetchedRows(),
		run.DroppedRows(),
		run.TotalRows(),
		run.Error(),
		run.Duration().Milliseconds(),
		run.StartedAt(),
		run.FinishedAt(),
		run.CreatedAt(),
		run.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert sync run: %w", err)
	}

	return nil
}

// Get retrieves a sync run by ID, excluding soft-deleted runs
func (r *SyncRunRepository) Get(id string) (*models.SyncRun, error) {
	query := `SELECT ` + syncRunColumns + ` FROM sync_runs WHERE id = ? AND deleted_at IS NULL`

	run, err := scanSyncRun(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: sync run %s", shared.ErrNotFound, id)
	}
	return run, err
}

// Latest retrieves the most recent sync run.
func (r *SyncRunRepository) Latest() (*models.SyncRun, error) {
	query := `SELECT ` + syncRunColumns + ` FROM sync_runs WHERE deleted_at IS NULL ORDER BY sequence DESC LIMIT 1`

	run, err := scanSyncRun(r.db.QueryRow(query))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no sync runs recorded", shared.ErrNotFound)
	}
	return run, err
}

// Update writes the outcome (status, counts, error, timing) of an existing run.
func (r *SyncRunRepository) Update(run *models.SyncRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	run.SetUpdatedAt(now)

	query := `
		UPDATE sync_runs
		SET status = ?, fetched_rows = ?, dropped_rows = ?, total_rows = ?, error = ?, duration_ms = ?, finished_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		string(run.Status()),
		run.FetchedRows(),
		run.DroppedRows(),
		run.TotalRows(),
		run.Error(),
		run.Duration().Milliseconds(),
		run.FinishedAt(),
		now,
		run.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update sync run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: sync run not found or already deleted: %s", shared.ErrNotFound, run.ID())
	}

	return nil
}

// Delete soft-deletes a sync run by ID
func (r *SyncRunRepository) Delete(id string) error {
	query := `UPDATE sync_runs SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete sync run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: sync run not found or already deleted: %s", shared.ErrNotFound, id)
	}

	return nil
}

// List retrieves sync runs, newest first.
//
// Supported criteria:
//   - "status" (string or [models.SyncStatus]): only runs with this status
//   - "store_path" (string): only runs that wrote this store
//   - "limit" (int): at most this many runs
func (r *SyncRunRepository) List(criteria map[string]any) ([]*models.SyncRun, error) {
	query := `SELECT ` + syncRunColumns + ` FROM sync_runs WHERE deleted_at IS NULL`
	args := []any{}

	switch status := criteria["status"].(type) {
	case string:
		if status != "" {
			query += " AND status = ?"
			args = append(args, status)
		}
	case models.SyncStatus:
		query += " AND status = ?"
		args = append(args, string(status))
	}

	if storePath, ok := criteria["store_path"].(string); ok && storePath != "" {
		query += " AND store_path = ?"
		args = append(args, storePath)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.SyncRun
	for rows.Next() {
		run, err := scanSyncRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanSyncRun scans a single row from [sql.Row] or [sql.Rows] into a [models.SyncRun]
func scanSyncRun(row scanner) (*models.SyncRun, error) {
	var (
		id         string
		sequence   int
		sheetURL   string
		storePath  string
		status     string
		fetched    int
		dropped    int
		total      int
		errText    string
		durationMS int64
		startedAt  time.Time
		finishedAt sql.NullTime
		createdAt  time.Time
		updatedAt  time.Time
		deletedAt  sql.NullTime
	)

	err := row.Scan(&id, &sequence, &sheetURL, &storePath, &status, &fetched, &dropped, &total, &errText,
		&durationMS, &startedAt, &finishedAt, &createdAt, &updatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan sync run: %w", err)
	}

	run := models.NewSyncRun(sequence, sheetURL, storePath, startedAt)
	run.SetID(id)
	run.SetStatus(models.SyncStatus(status))
	run.SetCounts(fetched, dropped, total)
	run.SetError(errText)
	run.SetDuration(time.Duration(durationMS) * time.Millisecond)
	run.SetCreatedAt(createdAt)
	run.SetUpdatedAt(updatedAt)
	if finishedAt.Valid {
		run.SetFinishedAt(&finishedAt.Time)
	}
	if deletedAt.Valid {
		run.SetDeletedAt(&deletedAt.Time)
	}

	return run, nil
}
