package domain

// ResumePlan is the authoritative resume point computed by the restart
// resolver: the phase and iteration at which execution continues, together
// with the record execution will keep appending to.
type ResumePlan struct {
	StartIteration int
	StartPhase     Phase

	// Fresh is true when no prior checkpoint existed.
	Fresh bool

	// Healed is true when the checkpoint lagged the on-disk artifacts and
	// the resolver advanced past a phase that had already completed.
	Healed bool

	// Record is the validated (and possibly healed) checkpoint that the
	// controller continues from. The resolver re-persists it before this
	// plan is returned, so the plan and the stored record always agree.
	Record *RunRecord
}
