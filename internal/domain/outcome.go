package domain

import "time"

// OutcomeClass classifies how an external process ended.
type OutcomeClass int

const (
	OutcomeSuccess OutcomeClass = iota
	OutcomeExited
	OutcomeKilled
	OutcomeTimedOut
)

// String returns a human-readable name for the class.
func (c OutcomeClass) String() string {
	switch c {
	case OutcomeSuccess:
		return "success"
	case OutcomeExited:
		return "exited"
	case OutcomeKilled:
		return "killed"
	case OutcomeTimedOut:
		return "timed-out"
	default:
		return "unknown"
	}
}

// ProcessOutcome is the classified result of one external invocation. It is
// not persisted beyond the current cycle; it only determines whether a
// phase counts as complete and where the diagnostics went.
type ProcessOutcome struct {
	Class    OutcomeClass
	ExitCode int
	LogPath  string
	Duration time.Duration
}

// Success reports whether the process exited cleanly with status zero.
func (o ProcessOutcome) Success() bool {
	return o.Class == OutcomeSuccess
}
