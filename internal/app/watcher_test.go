package app_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/zmills04/ConvergeCHTMapper/internal/adapters/log"
	"github.com/zmills04/ConvergeCHTMapper/internal/app"
)

func writeConfig(t *testing.T, path string, budget int, threshold float64) {
	t.Helper()
	content := fmt.Sprintf("iteration_budget = %d\nconvergence_threshold = %g\n", budget, threshold)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestLimitsWatcherReload(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "chtrun.toml")
	writeConfig(t, path, 10, 0.01)

	limits := app.NewLiveLimits(10, 0.01)
	w := app.NewLimitsWatcher(path, limits, log.NewNoopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	writeConfig(t, path, 25, 0.2)
	waitFor(t, func() bool {
		return limits.Budget() == 25 && limits.Threshold() == 0.2
	})
}

func TestLimitsWatcherStopQuiesces(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "chtrun.toml")
	writeConfig(t, path, 10, 0.01)

	limits := app.NewLiveLimits(10, 0.01)
	w := app.NewLimitsWatcher(path, limits, log.NewNoopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Leave a debounce pending when Stop is called.
	writeConfig(t, path, 25, 0.2)
	w.Stop()

	// Whatever landed before Stop returned is final: no straggling timer
	// may change the limits afterwards.
	budget, threshold := limits.Budget(), limits.Threshold()
	time.Sleep(300 * time.Millisecond)
	if limits.Budget() != budget || limits.Threshold() != threshold {
		t.Errorf("limits changed after Stop: budget %d -> %d, threshold %g -> %g",
			budget, limits.Budget(), threshold, limits.Threshold())
	}
}

func TestLimitsWatcherKeepsLimitsOnBadFile(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "chtrun.toml")
	writeConfig(t, path, 10, 0.01)

	limits := app.NewLiveLimits(10, 0.01)
	w := app.NewLimitsWatcher(path, limits, log.NewNoopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(path, []byte("iteration_budget = [broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	// Give the debounce time to fire, then confirm nothing changed.
	time.Sleep(300 * time.Millisecond)
	if limits.Budget() != 10 || limits.Threshold() != 0.01 {
		t.Errorf("limits changed on unparseable file: budget=%d threshold=%g",
			limits.Budget(), limits.Threshold())
	}
}
