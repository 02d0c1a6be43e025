package domain

import (
	"fmt"
	"time"
)

// Terminal states recorded when a run finishes. An empty FinalState means
// the run is still in progress.
const (
	FinalConverged       = "converged"
	FinalBudgetExhausted = "budget-exhausted"
)

// CompletedPhase is one entry of the append-only completion history.
type CompletedPhase struct {
	Phase       Phase     `yaml:"phase"`
	CompletedAt time.Time `yaml:"completed_at"`
}

// RunRecord is the persisted checkpoint for one simulation root.
//
// Invariant: CurrentPhase is always exactly one phase ahead of
// LastCompletedPhase in cycle order (or PhaseCoolant with a nil
// LastCompletedPhase for a fresh run). The record is only ever mutated by
// Advance, which appends the completed phase and moves CurrentPhase
// forward; nothing rewrites history.
type RunRecord struct {
	// Iteration counts fully completed coolant-combustion cycles.
	Iteration int `yaml:"iteration"`

	// CurrentPhase is the phase that is in progress (or about to start).
	CurrentPhase Phase `yaml:"current_phase"`

	// LastCompletedPhase is nil until the first phase completes.
	LastCompletedPhase *Phase `yaml:"last_completed_phase,omitempty"`

	// ConvergenceMetric is the boundary-difference metric from the most
	// recently completed cycle, once one is computable.
	ConvergenceMetric *float64 `yaml:"convergence_metric,omitempty"`

	// Completed is the append-only completion history, oldest first.
	Completed []CompletedPhase `yaml:"completed"`

	// FinalState is set when the run reaches Converged or BudgetExhausted.
	FinalState string `yaml:"final_state,omitempty"`

	// LastLaunchID identifies the controller launch that last wrote this
	// record, for correlating checkpoints with scheduler job logs.
	LastLaunchID string `yaml:"last_launch_id,omitempty"`
}

// NewRunRecord returns the checkpoint for a fresh run: iteration zero,
// about to start the coolant phase, no history.
func NewRunRecord(launchID string) *RunRecord {
	return &RunRecord{
		CurrentPhase: PhaseCoolant,
		LastLaunchID: launchID,
	}
}

// Advance marks CurrentPhase as completed at the given time and moves the
// record to the next phase in cycle order. Completing the cycle-closing
// phase increments the iteration count.
func (r *RunRecord) Advance(now time.Time) {
	done := r.CurrentPhase
	r.Completed = append(r.Completed, CompletedPhase{Phase: done, CompletedAt: now})
	r.LastCompletedPhase = &done
	r.CurrentPhase = done.Next()
	if done.ClosesCycle() {
		r.Iteration++
	}
}

// SetMetric records the convergence metric for the just-completed cycle.
func (r *RunRecord) SetMetric(v float64) {
	r.ConvergenceMetric = &v
}

// Fresh reports whether no phase has ever completed.
func (r *RunRecord) Fresh() bool {
	return r.LastCompletedPhase == nil
}

// Validate checks the cycle-order invariant and the internal consistency
// of the completion history. A record that fails validation is treated as
// corrupt, never silently repaired.
func (r *RunRecord) Validate() error {
	if r.Iteration < 0 {
		return fmt.Errorf("negative iteration %d", r.Iteration)
	}
	if r.LastCompletedPhase == nil {
		if len(r.Completed) != 0 {
			return fmt.Errorf("history has %d entries but no last completed phase", len(r.Completed))
		}
		if r.CurrentPhase != PhaseCoolant {
			return fmt.Errorf("fresh record must start at %s, got %s", PhaseCoolant, r.CurrentPhase)
		}
		if r.Iteration != 0 {
			return fmt.Errorf("fresh record with iteration %d", r.Iteration)
		}
		return nil
	}

	if len(r.Completed) == 0 {
		return fmt.Errorf("last completed phase %s but empty history", *r.LastCompletedPhase)
	}
	tail := r.Completed[len(r.Completed)-1]
	if tail.Phase != *r.LastCompletedPhase {
		return fmt.Errorf("last completed phase %s does not match history tail %s",
			*r.LastCompletedPhase, tail.Phase)
	}
	if r.CurrentPhase != r.LastCompletedPhase.Next() {
		return fmt.Errorf("current phase %s is not the successor of %s",
			r.CurrentPhase, *r.LastCompletedPhase)
	}

	// History must follow cycle order from the beginning, with
	// non-decreasing timestamps, and the iteration count must match the
	// number of cycle-closing completions.
	cycles := 0
	want := PhaseCoolant
	var prev time.Time
	for i, c := range r.Completed {
		if c.Phase != want {
			return fmt.Errorf("history entry %d is %s, cycle order requires %s", i, c.Phase, want)
		}
		if c.CompletedAt.Before(prev) {
			return fmt.Errorf("history entry %d completed before its predecessor", i)
		}
		prev = c.CompletedAt
		if c.Phase.ClosesCycle() {
			cycles++
		}
		want = c.Phase.Next()
	}
	if cycles != r.Iteration {
		return fmt.Errorf("iteration %d does not match %d completed cycles", r.Iteration, cycles)
	}
	return nil
}
