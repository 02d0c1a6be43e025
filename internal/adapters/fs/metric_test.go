package fs

import (
	"context"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

// mapFile renders a two-row triangle map whose four value columns all
// carry the given value.
func mapFile(v float64) string {
	var b strings.Builder
	b.WriteString("# id x y z htc1 htc2 htc3 htc4\n")
	for i := 1; i <= 2; i++ {
		fmt.Fprintf(&b, "%d 0.1 0.2 0.3 %g %g %g %g\n", i, v, v, v, v)
	}
	return b.String()
}

func TestBoundaryMetricFirstCycle(t *testing.T) {
	fsys := afero.NewMemMapFs()
	dir := "/sim/combustion"
	ctx := context.Background()
	if err := afero.WriteFile(fsys, dir+"/htc_triangles_liner.map", []byte(mapFile(100)), 0o644); err != nil {
		t.Fatal(err)
	}

	src := NewBoundaryMetricSource(fsys, dir, []string{"liner"})
	_, ok, err := src.Metric(ctx)
	if err != nil {
		t.Fatalf("Metric: %v", err)
	}
	if ok {
		t.Error("first cycle reported a metric")
	}

	// Nothing is retained until the cycle is committed.
	if exists, _ := afero.Exists(fsys, dir+"/prevCombustionData/htc_triangles_liner.map"); exists {
		t.Error("retained copy written before Commit")
	}
	if err := src.Commit(ctx); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if exists, _ := afero.Exists(fsys, dir+"/prevCombustionData/htc_triangles_liner.map"); !exists {
		t.Error("retained copy not written by Commit")
	}
}

func TestBoundaryMetricWorstBoundary(t *testing.T) {
	fsys := afero.NewMemMapFs()
	dir := "/sim/combustion"
	ctx := context.Background()
	boundaries := []string{"liner", "head"}

	write := func(boundary string, v float64) {
		path := dir + "/htc_triangles_" + boundary + ".map"
		if err := afero.WriteFile(fsys, path, []byte(mapFile(v)), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	write("liner", 100)
	write("head", 200)
	src := NewBoundaryMetricSource(fsys, dir, boundaries)
	if _, ok, err := src.Metric(ctx); err != nil || ok {
		t.Fatalf("first cycle: ok=%v err=%v", ok, err)
	}
	if err := src.Commit(ctx); err != nil {
		t.Fatal(err)
	}

	// liner moves by 2, head by 5: the metric is the worst boundary.
	write("liner", 102)
	write("head", 205)
	got, ok, err := src.Metric(ctx)
	if err != nil {
		t.Fatalf("Metric: %v", err)
	}
	if !ok {
		t.Fatal("second cycle did not report a metric")
	}
	if math.Abs(got-5) > 1e-9 {
		t.Errorf("Metric = %g, want 5", got)
	}

	// The comparison is logged for the engineers.
	logData, err := afero.ReadFile(fsys, dir+"/convergence.log")
	if err != nil {
		t.Fatalf("convergence.log: %v", err)
	}
	if !strings.Contains(string(logData), "max=5") {
		t.Errorf("convergence.log missing max: %s", logData)
	}

	// After the commit an unchanged field reads as zero change.
	if err := src.Commit(ctx); err != nil {
		t.Fatal(err)
	}
	got, ok, err = src.Metric(ctx)
	if err != nil || !ok {
		t.Fatalf("third cycle: ok=%v err=%v", ok, err)
	}
	if got != 0 {
		t.Errorf("Metric = %g, want 0", got)
	}
}

func TestBoundaryMetricRecomputeBeforeCommit(t *testing.T) {
	// A relaunch that lost the cycle's checkpoint recomputes the metric.
	// Until Commit runs, the baseline must stay put: the recompute has to
	// report the true change again, not zero, or the relaunch would
	// falsely converge.
	fsys := afero.NewMemMapFs()
	dir := "/sim/combustion"
	ctx := context.Background()

	write := func(v float64) {
		if err := afero.WriteFile(fsys, dir+"/htc_triangles_liner.map", []byte(mapFile(v)), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	write(100)
	src := NewBoundaryMetricSource(fsys, dir, []string{"liner"})
	if _, _, err := src.Metric(ctx); err != nil {
		t.Fatal(err)
	}
	if err := src.Commit(ctx); err != nil {
		t.Fatal(err)
	}

	write(150)
	for attempt := 0; attempt < 3; attempt++ {
		got, ok, err := src.Metric(ctx)
		if err != nil {
			t.Fatalf("attempt %d: %v", attempt, err)
		}
		if !ok {
			t.Fatalf("attempt %d: no metric", attempt)
		}
		if math.Abs(got-50) > 1e-9 {
			t.Fatalf("attempt %d: Metric = %g, want 50", attempt, got)
		}
	}
}

func TestBoundaryMetricRowMismatch(t *testing.T) {
	fsys := afero.NewMemMapFs()
	dir := "/sim/combustion"
	ctx := context.Background()

	if err := afero.WriteFile(fsys, dir+"/htc_triangles_liner.map", []byte(mapFile(100)), 0o644); err != nil {
		t.Fatal(err)
	}
	src := NewBoundaryMetricSource(fsys, dir, []string{"liner"})
	if _, _, err := src.Metric(ctx); err != nil {
		t.Fatal(err)
	}
	if err := src.Commit(ctx); err != nil {
		t.Fatal(err)
	}

	// Remesh changed the triangle count: comparison must fail loudly
	// rather than report a bogus metric.
	shorter := "1 0.1 0.2 0.3 100 100 100 100\n"
	if err := afero.WriteFile(fsys, dir+"/htc_triangles_liner.map", []byte(shorter), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := src.Metric(ctx); err == nil {
		t.Fatal("row mismatch went undetected")
	}
}
