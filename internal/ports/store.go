package ports

import (
	"context"

	"github.com/zmills04/ConvergeCHTMapper/internal/domain"
)

// Store persists and loads the run record checkpoint.
type Store interface {
	// Load retrieves the last saved record.
	// Returns domain.ErrRecordNotFound if no record exists (a fresh
	// start) and domain.ErrCorruptState if one exists but cannot be
	// parsed or validated.
	Load(ctx context.Context) (*domain.RunRecord, error)

	// Save persists the record atomically (write to temp, then rename).
	// A crash during Save may leave the previous valid record intact but
	// must never leave a record claiming more progress than the process
	// durably observed.
	Save(ctx context.Context, rec *domain.RunRecord) error

	// Path returns the record file location, for operator messages.
	Path() string
}
