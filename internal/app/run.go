package app

import (
	"context"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/afero"

	fsadapter "github.com/zmills04/ConvergeCHTMapper/internal/adapters/fs"
	"github.com/zmills04/ConvergeCHTMapper/internal/adapters/proc"
	"github.com/zmills04/ConvergeCHTMapper/internal/cliconfig"
	"github.com/zmills04/ConvergeCHTMapper/internal/domain"
	"github.com/zmills04/ConvergeCHTMapper/internal/ports"
)

// foldersFromConfig builds the two domain folders from a validated CLI
// configuration.
func foldersFromConfig(cfg cliconfig.Config) Folders {
	return Folders{
		Coolant: domain.DomainFolder{
			Name: "coolant", Path: cfg.CoolantDir,
			DoneMarker: cfg.DoneMarker, OutputGlob: cfg.OutputGlob,
		},
		Combustion: domain.DomainFolder{
			Name: "combustion", Path: cfg.CombustionDir,
			DoneMarker: cfg.DoneMarker, OutputGlob: cfg.OutputGlob,
		},
	}
}

// Run drives one chtrun launch end to end: resolve the resume point, then
// execute phases until a terminal state, a failure, or cancellation. When
// configPath names an existing file it is watched for live budget and
// threshold changes for the duration of the run.
//
// The returned string is the terminal state, empty if cfg.Once stopped
// the run after a single phase.
func Run(ctx context.Context, cfg cliconfig.Config, configPath string, logger ports.Logger) (string, error) {
	launchID := ulid.Make().String()
	logger.Info("chtrun launch", ports.String("launch_id", launchID), ports.String("sim_root", cfg.SimRoot))

	fsys := afero.NewOsFs()
	folders := foldersFromConfig(cfg)
	store := fsadapter.NewRecordStore(fsys, cfg.RecordPath())
	inspector := fsadapter.NewMarkerInspector(fsys)

	resolver := NewResolver(store, inspector, folders, logger)
	plan, err := resolver.Resolve(ctx, launchID)
	if err != nil {
		return "", err
	}

	limits := NewLiveLimits(cfg.IterationBudget, cfg.ConvergenceThreshold)
	if configPath != "" && cliconfig.FileExists(configPath) {
		watcher := NewLimitsWatcher(configPath, limits, logger)
		if err := watcher.Start(ctx); err != nil {
			logger.Warn("config watch unavailable; limits fixed for this launch", ports.Err(err))
		} else {
			defer watcher.Stop()
		}
	}

	controller := NewController(Config{
		SimRoot:       cfg.SimRoot,
		Folders:       folders,
		SolverArgv:    cfg.SolverArgv(),
		SolverTimeout: cfg.SolverTimeout,
		MappingBinary: cfg.MappingBinary,
		SurfaceFile:   cfg.SurfaceFile,
		LogDir:        cfg.LogDir,
		Once:          cfg.Once,
	}, fsys, store, inspector, proc.NewExecRunner(logger),
		fsadapter.NewBoundaryMetricSource(fsys, cfg.CombustionDir, cfg.Boundaries),
		limits, logger)

	return controller.Run(ctx, plan)
}

// Status computes the resume plan a launch would start from, without
// writing anything.
func Status(ctx context.Context, cfg cliconfig.Config, logger ports.Logger) (*domain.ResumePlan, error) {
	fsys := afero.NewOsFs()
	folders := foldersFromConfig(cfg)
	store := fsadapter.NewRecordStore(fsys, cfg.RecordPath())
	resolver := NewResolver(store, fsadapter.NewMarkerInspector(fsys), folders, logger)
	return resolver.Peek(ctx)
}
