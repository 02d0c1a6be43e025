package fs

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
)

func writeAt(t *testing.T, fsys afero.Fs, path, content string, mtime time.Time) {
	t.Helper()
	if err := afero.WriteFile(fsys, path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := fsys.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}
}

func TestNewestRestart(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	t.Run("none", func(t *testing.T) {
		fsys := afero.NewMemMapFs()
		_, ok, err := NewestRestart(fsys, "/sim/coolant")
		if err != nil {
			t.Fatal(err)
		}
		if ok {
			t.Fatal("found restart in empty folder")
		}
	})

	t.Run("latest write time wins", func(t *testing.T) {
		fsys := afero.NewMemMapFs()
		writeAt(t, fsys, "/sim/coolant/restart0001.rst", "a", base.Add(2*time.Hour))
		writeAt(t, fsys, "/sim/coolant/restart0002.rst", "b", base)
		got, ok, err := NewestRestart(fsys, "/sim/coolant")
		if err != nil || !ok {
			t.Fatalf("ok=%v err=%v", ok, err)
		}
		if got.Number != 1 {
			t.Errorf("Number = %d, want 1", got.Number)
		}
	})

	t.Run("tie breaks on number", func(t *testing.T) {
		fsys := afero.NewMemMapFs()
		writeAt(t, fsys, "/sim/coolant/restart0001.rst", "a", base)
		writeAt(t, fsys, "/sim/coolant/restart0003.rst", "c", base)
		got, ok, err := NewestRestart(fsys, "/sim/coolant")
		if err != nil || !ok {
			t.Fatalf("ok=%v err=%v", ok, err)
		}
		if got.Number != 3 {
			t.Errorf("Number = %d, want 3", got.Number)
		}
	})

	t.Run("plain restart.rst ignored", func(t *testing.T) {
		fsys := afero.NewMemMapFs()
		writeAt(t, fsys, "/sim/coolant/restart.rst", "plain", base.Add(time.Hour))
		writeAt(t, fsys, "/sim/coolant/restart0002.rst", "b", base)
		got, ok, err := NewestRestart(fsys, "/sim/coolant")
		if err != nil || !ok {
			t.Fatalf("ok=%v err=%v", ok, err)
		}
		if got.Number != 2 {
			t.Errorf("Number = %d, want 2", got.Number)
		}
	})
}

func TestPromoteRestart(t *testing.T) {
	fsys := afero.NewMemMapFs()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	writeAt(t, fsys, "/sim/coolant/restart0001.rst", "old", base)
	writeAt(t, fsys, "/sim/coolant/restart0002.rst", "new", base.Add(time.Hour))
	writeAt(t, fsys, "/sim/coolant/restart.rst", "stale", base)

	got, ok, err := PromoteRestart(fsys, "/sim/coolant")
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if got.Number != 2 {
		t.Errorf("promoted Number = %d, want 2", got.Number)
	}

	data, err := afero.ReadFile(fsys, "/sim/coolant/restart.rst")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "new" {
		t.Errorf("restart.rst = %q, want %q", data, "new")
	}
	// The numbered checkpoint survives the promotion.
	if exists, _ := afero.Exists(fsys, "/sim/coolant/restart0002.rst"); !exists {
		t.Error("restart0002.rst was removed")
	}
}

func TestClearStaleMarkers(t *testing.T) {
	fsys := afero.NewMemMapFs()
	stale := []string{
		"/sim/coolant/converge.done",
		"/sim/coolant/job.start",
		"/sim/coolant/solver.err",
		"/sim/coolant/abort_trace_0001",
	}
	keep := []string{
		"/sim/coolant/inputs.in",
		"/sim/coolant/restart0001.rst",
	}
	for _, f := range append(append([]string{}, stale...), keep...) {
		if err := afero.WriteFile(fsys, f, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	if err := ClearStaleMarkers(fsys, "/sim/coolant"); err != nil {
		t.Fatalf("ClearStaleMarkers: %v", err)
	}
	for _, f := range stale {
		if exists, _ := afero.Exists(fsys, f); exists {
			t.Errorf("%s survived", filepath.Base(f))
		}
	}
	for _, f := range keep {
		if exists, _ := afero.Exists(fsys, f); !exists {
			t.Errorf("%s was removed", filepath.Base(f))
		}
	}
}
