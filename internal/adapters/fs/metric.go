package fs

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"
)

const (
	prevDataDir    = "prevCombustionData"
	convergenceLog = "convergence.log"

	// Map rows carry the triangle id, three centroid coordinates, then
	// four mapped values. Only the value columns enter the metric.
	mapColumns    = 8
	firstValueCol = 4

	osAppendFlags = os.O_APPEND | os.O_CREATE | os.O_WRONLY
)

// BoundaryMetricSource measures how much the mapped HTC fields changed
// since the previous coupling cycle. For each boundary it compares the
// current htc_triangles_<boundary>.map against the copy retained from the
// last cycle and takes the mean absolute difference over all value
// columns; the reported metric is the worst boundary.
//
// Metric only reads. Rotating the current maps into the retained set is a
// separate Commit step, so a crash after the comparison but before the
// cycle's checkpoint cannot leave the baseline claiming the cycle already
// happened.
type BoundaryMetricSource struct {
	fs         afero.Fs
	dir        string // combustion domain folder holding the map files
	boundaries []string
}

// NewBoundaryMetricSource creates a source reading map files from dir for
// the named boundaries.
func NewBoundaryMetricSource(fsys afero.Fs, dir string, boundaries []string) *BoundaryMetricSource {
	return &BoundaryMetricSource{fs: fsys, dir: dir, boundaries: boundaries}
}

// Metric computes the cycle-over-cycle change. On the first cycle there is
// no retained copy to compare against and ok is false. Metric does not
// touch the retained copies: re-running it yields the same value until
// Commit moves the baseline forward.
func (s *BoundaryMetricSource) Metric(ctx context.Context) (float64, bool, error) {
	prevDir := filepath.Join(s.dir, prevDataDir)

	havePrev, err := afero.DirExists(s.fs, prevDir)
	if err != nil {
		return 0, false, fmt.Errorf("metric: %w", err)
	}

	var worst float64
	perBoundary := make([]string, 0, len(s.boundaries))

	for _, b := range s.boundaries {
		name := mapFileName(b)
		cur := filepath.Join(s.dir, name)

		if !havePrev {
			continue
		}
		prev := filepath.Join(prevDir, name)
		exists, err := afero.Exists(s.fs, prev)
		if err != nil {
			return 0, false, fmt.Errorf("metric: %w", err)
		}
		if !exists {
			// Boundary added mid-run; nothing to compare yet.
			continue
		}

		diff, err := s.meanAbsDiff(cur, prev)
		if err != nil {
			return 0, false, err
		}
		perBoundary = append(perBoundary, fmt.Sprintf("%s=%.6g", b, diff))
		if diff > worst {
			worst = diff
		}
	}

	computed := len(perBoundary) > 0
	if computed {
		if err := s.appendLog(worst, perBoundary); err != nil {
			return 0, false, err
		}
	}
	return worst, computed, nil
}

// Commit retains the current map files as the baseline for the next
// cycle's comparison.
func (s *BoundaryMetricSource) Commit(ctx context.Context) error {
	return s.rotate(filepath.Join(s.dir, prevDataDir))
}

// meanAbsDiff averages |current-previous| over every value column of
// every triangle row.
func (s *BoundaryMetricSource) meanAbsDiff(curPath, prevPath string) (float64, error) {
	cur, err := readMapValues(s.fs, curPath)
	if err != nil {
		return 0, err
	}
	prev, err := readMapValues(s.fs, prevPath)
	if err != nil {
		return 0, err
	}
	if len(cur) != len(prev) {
		return 0, fmt.Errorf("metric: %s has %d rows, previous cycle had %d", curPath, len(cur), len(prev))
	}
	if len(cur) == 0 {
		return 0, fmt.Errorf("metric: %s holds no triangle rows", curPath)
	}

	var sum float64
	var n int
	for i := range cur {
		for j := range cur[i] {
			d := cur[i][j] - prev[i][j]
			if d < 0 {
				d = -d
			}
			sum += d
			n++
		}
	}
	return sum / float64(n), nil
}

// readMapValues parses the value columns of a triangle map file.
func readMapValues(fsys afero.Fs, path string) ([][]float64, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("metric: read %s: %w", path, err)
	}
	defer f.Close()

	var rows [][]float64
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < mapColumns {
			return nil, fmt.Errorf("metric: %s:%d: expected %d columns, got %d", path, lineNo, mapColumns, len(fields))
		}
		vals := make([]float64, 0, mapColumns-firstValueCol)
		for _, raw := range fields[firstValueCol:mapColumns] {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("metric: %s:%d: %w", path, lineNo, err)
			}
			vals = append(vals, v)
		}
		rows = append(rows, vals)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("metric: read %s: %w", path, err)
	}
	return rows, nil
}

// rotate copies the current map files into the retained directory so the
// next cycle compares against this one.
func (s *BoundaryMetricSource) rotate(prevDir string) error {
	if err := s.fs.MkdirAll(prevDir, 0o755); err != nil {
		return fmt.Errorf("metric: rotate: %w", err)
	}
	for _, b := range s.boundaries {
		name := mapFileName(b)
		if err := copyFile(s.fs, filepath.Join(s.dir, name), filepath.Join(prevDir, name)); err != nil {
			return fmt.Errorf("metric: rotate %s: %w", name, err)
		}
	}
	return nil
}

// appendLog records the comparison in the human-readable convergence log
// at the folder root.
func (s *BoundaryMetricSource) appendLog(worst float64, perBoundary []string) error {
	f, err := s.fs.OpenFile(filepath.Join(s.dir, convergenceLog), osAppendFlags, 0o644)
	if err != nil {
		return fmt.Errorf("metric: convergence log: %w", err)
	}
	defer f.Close()
	line := fmt.Sprintf("%s  max=%.6g  %s\n",
		time.Now().Format(time.RFC3339), worst, strings.Join(perBoundary, " "))
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("metric: convergence log: %w", err)
	}
	return nil
}

func mapFileName(boundary string) string {
	return "htc_triangles_" + boundary + ".map"
}

func copyFile(fsys afero.Fs, src, dst string) error {
	in, err := fsys.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := fsys.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
