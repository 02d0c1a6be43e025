package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/afero"

	fsadapter "github.com/zmills04/ConvergeCHTMapper/internal/adapters/fs"
	"github.com/zmills04/ConvergeCHTMapper/internal/domain"
	"github.com/zmills04/ConvergeCHTMapper/internal/ports"
)

// inputsFile is the solver control file rewritten before every launch.
const inputsFile = "inputs.in"

// Config carries the run parameters the controller needs. The limits that
// may change mid-run (budget, threshold) live in LiveLimits instead.
type Config struct {
	SimRoot string
	Folders Folders

	SolverArgv    []string
	SolverTimeout time.Duration

	MappingBinary string
	SurfaceFile   string

	LogDir string

	// Once stops after a single phase instead of driving the cycle to a
	// terminal state.
	Once bool
}

// Controller drives the coupling cycle from a resume plan to a terminal
// state, checkpointing after every completed phase. It owns the ordering
// guarantee: the checkpoint is written only after the phase's outputs are
// verified on disk, so a crash at any point re-runs at most one phase.
type Controller struct {
	cfg       Config
	fs        afero.Fs
	store     ports.Store
	inspector ports.Inspector
	runner    ports.Runner
	metric    ports.MetricSource
	limits    *LiveLimits
	logger    ports.Logger

	now func() time.Time
}

// NewController assembles a controller from its ports.
func NewController(cfg Config, fsys afero.Fs, store ports.Store, inspector ports.Inspector,
	runner ports.Runner, metric ports.MetricSource, limits *LiveLimits, logger ports.Logger) *Controller {
	return &Controller{
		cfg:       cfg,
		fs:        fsys,
		store:     store,
		inspector: inspector,
		runner:    runner,
		metric:    metric,
		limits:    limits,
		logger:    logger,
		now:       time.Now,
	}
}

// Run executes phases from the plan until the run converges, exhausts its
// budget, or fails. The returned string is the terminal state
// (domain.FinalConverged or domain.FinalBudgetExhausted); it is empty when
// Once stopped the run early.
func (c *Controller) Run(ctx context.Context, plan *domain.ResumePlan) (string, error) {
	rec := plan.Record
	for rec.FinalState == "" {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		phase := rec.CurrentPhase
		c.logger.Info("starting phase",
			ports.Int("iteration", rec.Iteration),
			ports.String("phase", phase.String()))

		var err error
		if phase.IsSolver() {
			err = c.runSolver(ctx, rec, phase)
		} else {
			err = c.runMapping(ctx, rec, phase)
		}
		if err != nil {
			return "", err
		}

		// The metric is only defined at the cycle boundary, after the
		// combustion fields have been mapped back onto the coolant mesh.
		var metricVal float64
		var haveMetric bool
		if phase.ClosesCycle() {
			metricVal, haveMetric, err = c.metric.Metric(ctx)
			if err != nil {
				return "", err
			}
			if haveMetric {
				rec.SetMetric(metricVal)
			}
		}

		rec.Advance(c.now())

		if phase.ClosesCycle() {
			c.evaluate(rec, metricVal, haveMetric)
		}

		if err := c.store.Save(ctx, rec); err != nil {
			return "", err
		}

		// Marker hygiene happens only after the checkpoint: a marker may
		// vouch for work the record has not absorbed yet, but once the
		// phase is recorded it must not survive to vouch for the next
		// cycle's solve.
		if phase.IsSolver() {
			folder, _ := c.cfg.Folders.ForPhase(phase)
			if err := fsadapter.ClearStaleMarkers(c.fs, folder.Path); err != nil {
				return "", err
			}
		}

		// Rotation of the retained comparison data is likewise deferred
		// until the checkpoint carrying the metric is durable; a crash in
		// between re-compares against the old data, which can only
		// overstate the change, never fake convergence.
		if phase.ClosesCycle() {
			if err := c.metric.Commit(ctx); err != nil {
				return "", err
			}
		}

		c.logger.Info("phase completed",
			ports.Int("iteration", rec.Iteration),
			ports.String("phase", phase.String()))

		if c.cfg.Once && rec.FinalState == "" {
			return "", nil
		}
	}
	return rec.FinalState, nil
}

// evaluate decides whether the just-closed cycle ends the run. Convergence
// wins over the budget when both hold.
func (c *Controller) evaluate(rec *domain.RunRecord, metric float64, haveMetric bool) {
	threshold := c.limits.Threshold()
	budget := c.limits.Budget()

	switch {
	case haveMetric && metric <= threshold:
		rec.FinalState = domain.FinalConverged
		c.logger.Info("run converged",
			ports.Int("iterations", rec.Iteration),
			ports.Float64("metric", metric),
			ports.Float64("threshold", threshold))
	case rec.Iteration >= budget:
		rec.FinalState = domain.FinalBudgetExhausted
		c.logger.Warn("iteration budget exhausted",
			ports.Int("iterations", rec.Iteration),
			ports.Int("budget", budget))
	default:
		c.logger.Info("cycle closed",
			ports.Int("iteration", rec.Iteration),
			ports.Bool("metric_available", haveMetric),
			ports.Float64("metric", metric))
	}
}

// runSolver prepares a domain folder and launches its CFD solver. A run
// only counts as complete when the solver leaves its done marker; a clean
// exit without it is still a failure.
func (c *Controller) runSolver(ctx context.Context, rec *domain.RunRecord, phase domain.Phase) error {
	folder, _ := c.cfg.Folders.ForPhase(phase)

	if err := fsadapter.ClearStaleMarkers(c.fs, folder.Path); err != nil {
		return err
	}

	entries := map[string]string{
		"restart_flag":   "0",
		"restart_number": "0",
		"map_flag":       "0",
	}
	restart, haveRestart, err := fsadapter.PromoteRestart(c.fs, folder.Path)
	if err != nil {
		return err
	}
	if haveRestart {
		entries["restart_flag"] = "1"
		entries["restart_number"] = strconv.Itoa(restart.Number)
		c.logger.Info("resuming solver from checkpoint",
			ports.String("folder", folder.Name),
			ports.Int("restart", restart.Number))
	}
	if mapAvailable(rec, phase) {
		entries["map_flag"] = "1"
	}
	if err := fsadapter.UpdateEntries(c.fs, filepath.Join(folder.Path, inputsFile), entries); err != nil {
		return err
	}

	outcome, err := c.runner.Run(ctx, ports.Command{
		Argv:    c.cfg.SolverArgv,
		Dir:     folder.Path,
		LogPath: c.logPath(rec, phase),
		Timeout: c.cfg.SolverTimeout,
	})
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrSolverFailure, folder.Name, err)
	}
	if !outcome.Success() {
		return fmt.Errorf("%w: %s solver %s (exit %d), see %s",
			domain.ErrSolverFailure, folder.Name, outcome.Class, outcome.ExitCode, outcome.LogPath)
	}

	cond, err := c.inspector.Inspect(ctx, folder, phase)
	if err != nil {
		return err
	}
	if cond != domain.FolderComplete {
		return fmt.Errorf("%w: %s solver exited cleanly but left no %s",
			domain.ErrSolverFailure, folder.Name, folder.DoneMarker)
	}
	return nil
}

// runMapping launches the mapping binary translating fields between the
// two meshes. Mapping has no completion marker: a zero exit is the whole
// contract.
func (c *Controller) runMapping(ctx context.Context, rec *domain.RunRecord, phase domain.Phase) error {
	var from, to string
	if phase == domain.PhaseMappingToCombustion {
		from, to = c.cfg.Folders.Coolant.Path, c.cfg.Folders.Combustion.Path
	} else {
		from, to = c.cfg.Folders.Combustion.Path, c.cfg.Folders.Coolant.Path
	}

	outcome, err := c.runner.Run(ctx, ports.Command{
		Argv:    []string{c.cfg.MappingBinary, c.cfg.SurfaceFile, from, to},
		Dir:     c.cfg.SimRoot,
		LogPath: c.logPath(rec, phase),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMappingFailure, err)
	}
	if !outcome.Success() {
		return fmt.Errorf("%w: mapper %s (exit %d), see %s",
			domain.ErrMappingFailure, outcome.Class, outcome.ExitCode, outcome.LogPath)
	}
	return nil
}

// mapAvailable reports whether the phase's domain folder has an incoming
// HTC map to read. Combustion always follows a mapping; coolant only has
// one after the first full cycle.
func mapAvailable(rec *domain.RunRecord, phase domain.Phase) bool {
	if phase == domain.PhaseCombustion {
		return true
	}
	return rec.Iteration > 0
}

func (c *Controller) logPath(rec *domain.RunRecord, phase domain.Phase) string {
	if c.cfg.LogDir == "" {
		return ""
	}
	return filepath.Join(c.cfg.LogDir, fmt.Sprintf("iter%03d-%s.log", rec.Iteration, phase))
}
