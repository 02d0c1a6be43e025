package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	logadapter "github.com/zmills04/ConvergeCHTMapper/internal/adapters/log"
	"github.com/zmills04/ConvergeCHTMapper/internal/app"
	"github.com/zmills04/ConvergeCHTMapper/internal/cliconfig"
	"github.com/zmills04/ConvergeCHTMapper/internal/domain"
)

const longHelp = `
chtrun couples a coolant CFD solve and a combustion CFD solve through an
external HTC mapping binary, iterating until the mapped fields settle or
the iteration budget runs out.

Progress is checkpointed to run-record.yaml after every phase: rerunning
chtrun after a crash or scheduler kill resumes exactly where the work
stopped, re-running at most one phase. A completed run refuses to
relaunch; move the record aside to start over.
`

var exampleUsage = strings.TrimSpace(`
  chtrun --sim-root /scratch/engine42 --mapping-binary /opt/cht/map_fields \
      --surface-file surface.dat --solver-cmd converge-solver --boundaries liner,head
  chtrun --config /scratch/engine42/chtrun.toml --once
  chtrun status --sim-root /scratch/engine42`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// loadConfig applies file, env, and flag layers in precedence order and
// validates the result.
func loadConfig(cmd *cobra.Command, cfg *cliconfig.Config, cfgPath string) (string, error) {
	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	// The config file may itself set sim_root, so resolve its default
	// location from flag or env before applying it.
	cfgFile := cfgPath
	if cfgFile == "" {
		root := cfg.SimRoot
		if root == "" {
			root = os.Getenv("CHTRUN_SIM_ROOT")
		}
		cfgFile = cliconfig.DefaultConfigPath(root)
	}

	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return "", fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(cfg, fc, changed); err != nil {
			return "", err
		}
	}

	if err := cliconfig.ApplyEnvConfig(cfg, changed); err != nil {
		return "", err
	}
	if err := cfg.Validate(); err != nil {
		return "", err
	}
	return cfgFile, nil
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	root := &cobra.Command{
		Use:     "chtrun",
		Short:   "Iterate coupled coolant and combustion CFD runs to convergence",
		Long:    strings.TrimSpace(longHelp),
		Example: exampleUsage,
		Version: fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgFile, err := loadConfig(cmd, &cfg, cfgPath)
			if err != nil {
				return err
			}

			log := cliconfig.Logger(cfg.Verbose)
			log.Info().Interface("config", cfg).Msg("configuration")

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)
			go func() {
				sig := <-sigCh
				log.Warn().Str("signal", sig.String()).Msg("stopping; checkpoint keeps completed phases")
				cancel()
			}()

			final, err := app.Run(ctx, cfg, cfgFile, logadapter.NewZerologAdapter(log))
			if err != nil {
				return err
			}
			switch final {
			case domain.FinalConverged:
				log.Info().Msg("run converged")
			case domain.FinalBudgetExhausted:
				log.Warn().Msg("iteration budget exhausted without convergence")
			default:
				log.Info().Msg("stopped after one phase (--once)")
			}
			return nil
		},
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show where the run would resume, without launching anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(cmd, &cfg, cfgPath); err != nil {
				return err
			}

			plan, err := app.Status(cmd.Context(), cfg, logadapter.NewNoopLogger())
			if errors.Is(err, domain.ErrRunComplete) {
				fmt.Println(err)
				return nil
			}
			if err != nil {
				return err
			}

			fmt.Printf("resume point: iteration %d, phase %s\n", plan.StartIteration, plan.StartPhase)
			if plan.Fresh {
				fmt.Println("no checkpoint found; this would be a fresh run")
			}
			if plan.Healed {
				fmt.Println("note: on-disk outputs are ahead of the checkpoint; resolution will advance past the finished phase")
			}
			if m := plan.Record.ConvergenceMetric; m != nil {
				fmt.Printf("last convergence metric: %g (threshold %g)\n", *m, cfg.ConvergenceThreshold)
			}
			for _, c := range plan.Record.Completed {
				fmt.Printf("  done  %-22s  %s\n", c.Phase, c.CompletedAt.Format(time.RFC3339))
			}
			return nil
		},
	}

	for _, cmd := range []*cobra.Command{root, status} {
		cmd.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: <sim-root>/chtrun.toml)")
		cmd.Flags().StringVar(&cfg.SimRoot, "sim-root", "", "simulation root directory")
		cmd.Flags().StringVar(&cfg.CoolantDir, "coolant-dir", cfg.CoolantDir, "coolant domain folder (relative to sim-root)")
		cmd.Flags().StringVar(&cfg.CombustionDir, "combustion-dir", cfg.CombustionDir, "combustion domain folder (relative to sim-root)")
		cmd.Flags().StringVar(&cfg.MappingBinary, "mapping-binary", cfg.MappingBinary, "HTC mapping binary")
		cmd.Flags().StringVar(&cfg.SurfaceFile, "surface-file", cfg.SurfaceFile, "shared surface triangulation passed to the mapper")
		cmd.Flags().StringSliceVar(&cfg.Boundaries, "boundaries", cfg.Boundaries, "boundary names carried in the HTC maps")
		cmd.Flags().IntVar(&cfg.IterationBudget, "budget", cfg.IterationBudget, "maximum coupling iterations")
		cmd.Flags().Float64Var(&cfg.ConvergenceThreshold, "threshold", cfg.ConvergenceThreshold, "convergence threshold on the boundary metric")
		cmd.Flags().StringVar(&cfg.SolverCmd, "solver-cmd", cfg.SolverCmd, "solver command (defaults to $CMD)")
		cmd.Flags().StringVar(&cfg.MPIExe, "mpi-exe", cfg.MPIExe, "MPI launcher")
		cmd.Flags().StringVar(&cfg.MPIOptions, "mpi-options", cfg.MPIOptions, "MPI launcher options (defaults to -np $SLURM_NTASKS)")
		cmd.Flags().DurationVar(&cfg.SolverTimeout, "solver-timeout", cfg.SolverTimeout, "per-solve wall clock limit (0 = none)")
		cmd.Flags().StringVar(&cfg.DoneMarker, "done-marker", cfg.DoneMarker, "file the solver writes on completion")
		cmd.Flags().StringVar(&cfg.OutputGlob, "output-glob", cfg.OutputGlob, "glob identifying partial solver output")
		cmd.Flags().StringVar(&cfg.RecordFile, "record-file", cfg.RecordFile, "run record file name under sim-root")
		cmd.Flags().StringVar(&cfg.LogDir, "log-dir", cfg.LogDir, "directory for per-phase process logs")
		cmd.Flags().BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "debug logging")
	}
	root.Flags().BoolVar(&cfg.Once, "once", cfg.Once, "run a single phase and exit")
	root.AddCommand(status)

	if err := root.Execute(); err != nil {
		log := cliconfig.Logger(cfg.Verbose)
		log.Error().Err(err).Msg("chtrun")
		if errors.Is(err, domain.ErrCorruptState) || errors.Is(err, domain.ErrRunComplete) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
