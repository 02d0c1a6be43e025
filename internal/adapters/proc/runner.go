// Package proc launches solver and mapper processes and classifies how
// they finished.
package proc

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/zmills04/ConvergeCHTMapper/internal/domain"
	"github.com/zmills04/ConvergeCHTMapper/internal/ports"
)

// ExecRunner runs external commands in the foreground. Stdout and stderr
// are combined into the command's log file; solvers write their real
// output into the domain folder themselves.
type ExecRunner struct {
	logger ports.Logger
}

// NewExecRunner creates a runner logging through logger.
func NewExecRunner(logger ports.Logger) *ExecRunner {
	return &ExecRunner{logger: logger}
}

// Run executes cmd and waits for it. The returned outcome is a
// classification, not an error: a nonzero exit comes back as
// OutcomeExited with err == nil. err is reserved for failures to launch
// or to capture output.
func (r *ExecRunner) Run(ctx context.Context, cmd ports.Command) (domain.ProcessOutcome, error) {
	if len(cmd.Argv) == 0 {
		return domain.ProcessOutcome{}, errors.New("run: empty command")
	}

	runCtx := ctx
	var cancel context.CancelFunc
	if cmd.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, cmd.Timeout)
		defer cancel()
	}

	logFile, err := r.openLog(cmd.LogPath)
	if err != nil {
		return domain.ProcessOutcome{}, err
	}
	defer logFile.Close()

	proc := exec.CommandContext(runCtx, cmd.Argv[0], cmd.Argv[1:]...)
	proc.Dir = cmd.Dir
	proc.Stdout = logFile
	proc.Stderr = logFile

	r.logger.Info("launching process",
		ports.String("cmd", cmd.Argv[0]),
		ports.Int("args", len(cmd.Argv)-1),
		ports.String("dir", cmd.Dir),
		ports.String("log", cmd.LogPath))

	start := time.Now()
	runErr := proc.Run()
	outcome := domain.ProcessOutcome{
		LogPath:  cmd.LogPath,
		Duration: time.Since(start),
	}

	switch {
	case runErr == nil:
		outcome.Class = domain.OutcomeSuccess
	case runCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil:
		outcome.Class = domain.OutcomeTimedOut
	case ctx.Err() != nil:
		outcome.Class = domain.OutcomeKilled
	default:
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) {
			// Never launched: bad binary path, permissions.
			return outcome, fmt.Errorf("run %s: %w", cmd.Argv[0], runErr)
		}
		if exitErr.ExitCode() < 0 {
			outcome.Class = domain.OutcomeKilled
		} else {
			outcome.Class = domain.OutcomeExited
			outcome.ExitCode = exitErr.ExitCode()
		}
	}

	r.logger.Info("process finished",
		ports.String("cmd", cmd.Argv[0]),
		ports.String("outcome", outcome.Class.String()),
		ports.Int("exit_code", outcome.ExitCode),
		ports.Duration("took", outcome.Duration))
	return outcome, nil
}

func (r *ExecRunner) openLog(path string) (*os.File, error) {
	if path == "" {
		return os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("run: log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("run: open log: %w", err)
	}
	return f, nil
}
