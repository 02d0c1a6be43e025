// Package fs contains the filesystem adapters: the run record store, the
// output inspector, solver restart-file and input-file handling, and the
// boundary-map convergence metric.
package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/zmills04/ConvergeCHTMapper/internal/domain"
)

// RecordStore persists the run record as a YAML file. YAML is deliberate:
// the documented recovery convention for a corrupt or abandoned run is for
// the operator to inspect and, if intended, delete or edit this file.
type RecordStore struct {
	fs   afero.Fs
	path string
}

// NewRecordStore creates a store writing the record at path.
func NewRecordStore(fsys afero.Fs, path string) *RecordStore {
	return &RecordStore{fs: fsys, path: path}
}

// Load reads and validates the last saved record.
// Returns domain.ErrRecordNotFound when no file exists and
// domain.ErrCorruptState when the file cannot be parsed or fails the
// cycle-order invariant.
func (s *RecordStore) Load(ctx context.Context) (*domain.RunRecord, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrRecordNotFound
		}
		return nil, fmt.Errorf("read run record %s: %w", s.path, err)
	}

	var rec domain.RunRecord
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", domain.ErrCorruptState, s.path, err)
	}
	if err := rec.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrCorruptState, s.path, err)
	}
	return &rec, nil
}

// Save persists the record atomically: temp file in the same directory,
// fsync, then rename. A crash mid-save leaves the previous record intact;
// it can never fabricate progress.
func (s *RecordStore) Save(ctx context.Context, rec *domain.RunRecord) error {
	data, err := yaml.Marshal(rec)
	if err != nil {
		return fmt.Errorf("%w: encode: %v", domain.ErrCheckpointWrite, err)
	}

	dir := filepath.Dir(s.path)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCheckpointWrite, err)
	}

	// Temp file must live in the target directory for the rename to be
	// atomic.
	tmp, err := afero.TempFile(s.fs, dir, ".run-record-*")
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCheckpointWrite, err)
	}
	tmpPath := tmp.Name()
	defer s.fs.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %v", domain.ErrCheckpointWrite, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %v", domain.ErrCheckpointWrite, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCheckpointWrite, err)
	}
	if err := s.fs.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCheckpointWrite, err)
	}
	return nil
}

// Path returns the record file location.
func (s *RecordStore) Path() string { return s.path }
