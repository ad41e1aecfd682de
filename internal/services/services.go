// package services defines interface Source for pulling the playback log from a remote provider
package services

import (
	"context"

	"github.com/desertthunder/playlog/internal/models"
)

var _ Source = (*SheetService)(nil)

// Source is a pull-only provider of the remote playback table.
type Source interface {
	// Fetch retrieves the full remote table.
	// Failures wrap shared.ErrFetch; an empty result is never returned in place of an error.
	Fetch(ctx context.Context) (*models.Table, error)

	// URL returns the address the source reads from.
	URL() string

	// Name returns a human-readable name of the source (e.g., "Spreadsheet")
	Name() string
}
