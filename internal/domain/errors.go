package domain

import "errors"

// Errors returned across the public API. All of them are terminal for the
// current launch: the runner never retries a failed external process, since
// CFD failures need human diagnosis before a relaunch makes sense.
var (
	// ErrRecordNotFound is returned by a Store when no run record exists.
	// The resolver treats it as "no prior checkpoint", not as an error.
	ErrRecordNotFound = errors.New("chtrun: run record not found")

	// ErrCorruptState is returned when a run record file exists but cannot
	// be parsed or violates the cycle-order invariant. Fatal: guessing
	// around a corrupt checkpoint risks duplicate or skipped work.
	ErrCorruptState = errors.New("chtrun: corrupt run record")

	// ErrConfigInvalid is returned for missing or invalid settings, before
	// any external process is launched.
	ErrConfigInvalid = errors.New("chtrun: invalid configuration")

	// ErrSolverFailure is returned when a solver process exits non-zero, is
	// killed, times out, or finishes without its completion markers.
	ErrSolverFailure = errors.New("chtrun: solver failure")

	// ErrMappingFailure is returned when the mapping binary fails. There is
	// no partial-mapping recovery: fatal for the current launch.
	ErrMappingFailure = errors.New("chtrun: mapping failure")

	// ErrCheckpointWrite is returned when the run record cannot be
	// persisted. Fatal: never proceed past a phase without a durable
	// checkpoint.
	ErrCheckpointWrite = errors.New("chtrun: checkpoint write failed")

	// ErrRunComplete is returned when resolving a run that already reached
	// a terminal state. Relaunching a finished run must not redo work.
	ErrRunComplete = errors.New("chtrun: run already complete")
)
