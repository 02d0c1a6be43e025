package fs

import (
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/spf13/afero"
)

// RestartFile is a numbered solver checkpoint found in a domain folder.
type RestartFile struct {
	Path    string
	Number  int
	SavedAt time.Time
}

var restartNumRe = regexp.MustCompile(`^restart(\d+)\.rst$`)

// NewestRestart scans dir for numbered restart files and returns the one
// the solver wrote last. Files are ordered by write time; equal times fall
// back to the checkpoint number. ok is false when no numbered restart
// exists.
func NewestRestart(fsys afero.Fs, dir string) (RestartFile, bool, error) {
	matches, err := afero.Glob(fsys, filepath.Join(dir, "restart*.rst"))
	if err != nil {
		return RestartFile{}, false, fmt.Errorf("scan restarts in %s: %w", dir, err)
	}

	var newest RestartFile
	found := false
	for _, path := range matches {
		m := restartNumRe.FindStringSubmatch(filepath.Base(path))
		if m == nil {
			continue // plain restart.rst or unrelated file
		}
		num, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		info, err := fsys.Stat(path)
		if err != nil {
			return RestartFile{}, false, fmt.Errorf("stat %s: %w", path, err)
		}
		cand := RestartFile{Path: path, Number: num, SavedAt: info.ModTime()}
		if !found || cand.newerThan(newest) {
			newest = cand
			found = true
		}
	}
	return newest, found, nil
}

func (r RestartFile) newerThan(other RestartFile) bool {
	if !r.SavedAt.Equal(other.SavedAt) {
		return r.SavedAt.After(other.SavedAt)
	}
	return r.Number > other.Number
}

// PromoteRestart copies the newest numbered checkpoint over restart.rst so
// the solver resumes from it. The numbered file is kept; only the plain
// name is replaced. Returns the promoted checkpoint and ok=false when the
// folder has no numbered restart to promote.
func PromoteRestart(fsys afero.Fs, dir string) (RestartFile, bool, error) {
	newest, ok, err := NewestRestart(fsys, dir)
	if err != nil || !ok {
		return RestartFile{}, false, err
	}

	src, err := fsys.Open(newest.Path)
	if err != nil {
		return RestartFile{}, false, fmt.Errorf("promote restart: %w", err)
	}
	defer src.Close()

	dst := filepath.Join(dir, "restart.rst")
	out, err := fsys.Create(dst)
	if err != nil {
		return RestartFile{}, false, fmt.Errorf("promote restart: %w", err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return RestartFile{}, false, fmt.Errorf("promote restart: %w", err)
	}
	if err := out.Close(); err != nil {
		return RestartFile{}, false, fmt.Errorf("promote restart: %w", err)
	}
	return newest, true, nil
}

// staleGlobs are scheduler and solver droppings that confuse a relaunch:
// a leftover done marker would make a fresh run look complete, and crash
// artifacts make some solvers refuse to start.
var staleGlobs = []string{"*.done", "*.start", "*.err", "abort_trace*"}

// ClearStaleMarkers removes leftover marker and crash files from dir
// before a solver relaunch. Missing files are not an error.
func ClearStaleMarkers(fsys afero.Fs, dir string) error {
	for _, glob := range staleGlobs {
		matches, err := afero.Glob(fsys, filepath.Join(dir, glob))
		if err != nil {
			return fmt.Errorf("clear stale markers in %s: %w", dir, err)
		}
		for _, path := range matches {
			if err := fsys.Remove(path); err != nil {
				return fmt.Errorf("clear stale markers: %w", err)
			}
		}
	}
	return nil
}
