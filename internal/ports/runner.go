package ports

import (
	"context"
	"time"

	"github.com/zmills04/ConvergeCHTMapper/internal/domain"
)

// Command describes one external invocation: a solver in its domain folder
// or the mapping binary in the simulation root.
type Command struct {
	// Argv is the program and its arguments.
	Argv []string

	// Dir is the working directory for the child process.
	Dir string

	// LogPath receives the child's combined stdout/stderr, named
	// predictably from phase and iteration so a human can diagnose a
	// partial state later.
	LogPath string

	// Timeout, when positive, bounds the run. A timeout is a failed
	// outcome, not a crash; it is handled identically to the crash
	// recovery path on relaunch.
	Timeout time.Duration
}

// Runner launches an external process, blocks until it exits or the
// timeout elapses, and returns a classified outcome. Implementations never
// retry: retry policy, such as it is, belongs to the operator relaunching
// the controller.
type Runner interface {
	Run(ctx context.Context, cmd Command) (domain.ProcessOutcome, error)
}
