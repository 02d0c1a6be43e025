// Package chtmapper coordinates conjugate heat transfer coupling runs: a
// coolant CFD solve and a combustion CFD solve alternate, exchanging heat
// transfer coefficient maps through an external mapping binary, until the
// mapped fields stop changing or the iteration budget runs out. Progress
// is checkpointed after every phase so an interrupted run resumes instead
// of starting over.
//
// Example usage:
//
//	cfg := chtmapper.DefaultConfig()
//	cfg.SimRoot = "/scratch/engine42"
//	cfg.MappingBinary = "/opt/cht/map_fields"
//	cfg.SurfaceFile = "surface.dat"
//	cfg.SolverCmd = "converge-solver"
//	cfg.Boundaries = []string{"liner", "head"}
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//	final, err := chtmapper.Run(context.Background(), cfg)
package chtmapper

import (
	"context"

	logadapter "github.com/zmills04/ConvergeCHTMapper/internal/adapters/log"
	"github.com/zmills04/ConvergeCHTMapper/internal/app"
	"github.com/zmills04/ConvergeCHTMapper/internal/cliconfig"
	"github.com/zmills04/ConvergeCHTMapper/internal/domain"
)

// Config holds the configuration for a coupling run.
// Use DefaultConfig() to get a Config with sensible defaults.
type Config = cliconfig.Config

// ResumePlan describes where a run would resume: the phase and iteration
// to start from and whether on-disk artifacts healed the checkpoint.
type ResumePlan = domain.ResumePlan

// Terminal states returned by Run.
const (
	FinalConverged       = domain.FinalConverged
	FinalBudgetExhausted = domain.FinalBudgetExhausted
)

// Sentinel errors for callers that need to distinguish failure classes.
var (
	ErrCorruptState = domain.ErrCorruptState
	ErrRunComplete  = domain.ErrRunComplete
)

// DefaultConfig returns a Config with default values. At minimum, set
// SimRoot, MappingBinary, SurfaceFile, SolverCmd, and Boundaries before
// calling Run.
func DefaultConfig() Config {
	return cliconfig.DefaultConfig()
}

// Run executes the coupling run to a terminal state and returns it. It
// blocks until the run converges, exhausts its budget, fails, or the
// context is cancelled.
func Run(ctx context.Context, cfg Config) (string, error) {
	logger := logadapter.NewZerologAdapter(cliconfig.Logger(cfg.Verbose))
	return app.Run(ctx, cfg, cliconfig.DefaultConfigPath(cfg.SimRoot), logger)
}

// Status reports where a run would resume without writing anything.
func Status(ctx context.Context, cfg Config) (*ResumePlan, error) {
	return app.Status(ctx, cfg, logadapter.NewNoopLogger())
}
