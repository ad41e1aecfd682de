package repositories

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/desertthunder/playlog/internal/models"
	"github.com/desertthunder/playlog/internal/shared"
)

// EventStore is the on-disk playback log: a single headered CSV file rewritten whole on every write.
//
// Writes go to a temporary file in the same directory which is fsynced and renamed over the store,
// so a reader sees either the old or the new content, never a partial file.
type EventStore struct {
	path string
}

// NewEventStore creates an [EventStore] backed by the CSV file at path.
func NewEventStore(path string) *EventStore {
	return &EventStore{path: path}
}

// Path returns the store's file path.
func (s *EventStore) Path() string { return s.path }

// Exists reports whether the store file has been created.
func (s *EventStore) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Read loads the store. A missing or zero-byte file is an empty table, not an error.
func (s *EventStore) Read() (*models.Table, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return models.NewTable(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open store %s: %w", s.path, err)
	}
	defer f.Close()

	table, err := models.ReadCSV(f)
	if errors.Is(err, models.ErrNoHeader) {
		return models.NewTable(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse store %s: %w", s.path, err)
	}

	return table, nil
}

// mode returns the permission bits of the current store, or 0644 when it does not exist yet.
func (s *EventStore) mode() fs.FileMode {
	info, err := os.Stat(s.path)
	if err != nil || !info.Mode().IsRegular() {
		return 0o644
	}
	return info.Mode().Perm()
}

// Write atomically replaces the store with table. Failures wrap [shared.ErrPersist] and leave the previous file intact.
func (s *EventStore) Write(table *models.Table) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: failed to create store directory: %v", shared.ErrPersist, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: failed to create temp file: %v", shared.ErrPersist, err)
	}
	tmpPath := tmp.Name()

	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if err := table.WriteCSV(tmp); err != nil {
		return fmt.Errorf("%w: failed to write store: %v", shared.ErrPersist, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("%w: failed to sync store: %v", shared.ErrPersist, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: failed to close temp file: %v", shared.ErrPersist, err)
	}
	if err := os.Chmod(tmpPath, s.mode()); err != nil {
		return fmt.Errorf("%w: failed to set store permissions: %v", shared.ErrPersist, err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("%w: failed to replace store: %v", shared.ErrPersist, err)
	}

	committed = true
	return nil
}
