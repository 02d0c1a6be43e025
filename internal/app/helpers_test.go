package app_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	fsadapter "github.com/zmills04/ConvergeCHTMapper/internal/adapters/fs"
	"github.com/zmills04/ConvergeCHTMapper/internal/adapters/log"
	"github.com/zmills04/ConvergeCHTMapper/internal/app"
	"github.com/zmills04/ConvergeCHTMapper/internal/domain"
	"github.com/zmills04/ConvergeCHTMapper/internal/ports"
)

const testInputs = `restart_flag: 0
restart_number: 0
map_flag: 0
`

// sim bundles the in-memory simulation root the scenarios run against.
type sim struct {
	fs        afero.Fs
	cfg       app.Config
	store     *fsadapter.RecordStore
	inspector *fsadapter.MarkerInspector
}

func newSim(t *testing.T) *sim {
	t.Helper()
	fsys := afero.NewMemMapFs()

	folders := app.Folders{
		Coolant: domain.DomainFolder{
			Name: "coolant", Path: "/sim/coolant",
			DoneMarker: "converge.done", OutputGlob: "*.out",
		},
		Combustion: domain.DomainFolder{
			Name: "combustion", Path: "/sim/combustion",
			DoneMarker: "converge.done", OutputGlob: "*.out",
		},
	}
	for _, dir := range []string{folders.Coolant.Path, folders.Combustion.Path} {
		require.NoError(t, fsys.MkdirAll(dir, 0o755))
		require.NoError(t, afero.WriteFile(fsys, filepath.Join(dir, "inputs.in"), []byte(testInputs), 0o644))
	}

	return &sim{
		fs: fsys,
		cfg: app.Config{
			SimRoot:       "/sim",
			Folders:       folders,
			SolverArgv:    []string{"mpirun", "-np", "4", "converge-solver"},
			MappingBinary: "/opt/cht/map_fields",
			SurfaceFile:   "surface.dat",
		},
		store:     fsadapter.NewRecordStore(fsys, "/sim/run-record.yaml"),
		inspector: fsadapter.NewMarkerInspector(fsys),
	}
}

func (s *sim) resolver() *app.Resolver {
	return app.NewResolver(s.store, s.inspector, s.cfg.Folders, log.NewNoopLogger())
}

func (s *sim) controller(r ports.Runner, m ports.MetricSource, limits *app.LiveLimits) *app.Controller {
	return app.NewController(s.cfg, s.fs, s.store, s.inspector, r, m, limits, log.NewNoopLogger())
}

// markDone plants the done marker a finished solver would leave.
func (s *sim) markDone(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(s.fs, filepath.Join(dir, "converge.done"), []byte("done"), 0o644))
}

// runnerFunc adapts a closure to ports.Runner.
type runnerFunc func(context.Context, ports.Command) (domain.ProcessOutcome, error)

func (f runnerFunc) Run(ctx context.Context, cmd ports.Command) (domain.ProcessOutcome, error) {
	return f(ctx, cmd)
}

// obedientRunner simulates solvers and the mapper doing their jobs: solver
// launches leave the done marker in their folder, everything exits zero.
func (s *sim) obedientRunner(calls *[]ports.Command) ports.Runner {
	return runnerFunc(func(_ context.Context, cmd ports.Command) (domain.ProcessOutcome, error) {
		if calls != nil {
			*calls = append(*calls, cmd)
		}
		if cmd.Dir != s.cfg.SimRoot {
			// Solver launch.
			if err := afero.WriteFile(s.fs, filepath.Join(cmd.Dir, "converge.done"), []byte("done"), 0o644); err != nil {
				return domain.ProcessOutcome{}, err
			}
		}
		return domain.ProcessOutcome{Class: domain.OutcomeSuccess}, nil
	})
}

// scriptedMetric pops one value per cycle close; exhausted scripts report
// no metric. Commits are counted so tests can check the controller only
// moves the baseline after checkpointing.
type scriptedMetric struct {
	values  []float64
	sawAny  []bool
	i       int
	commits int
}

func (m *scriptedMetric) Metric(context.Context) (float64, bool, error) {
	if m.i >= len(m.values) {
		return 0, false, nil
	}
	v := m.values[m.i]
	ok := true
	if m.sawAny != nil {
		ok = m.sawAny[m.i]
	}
	m.i++
	return v, ok, nil
}

func (m *scriptedMetric) Commit(context.Context) error {
	m.commits++
	return nil
}
