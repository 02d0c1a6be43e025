package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zmills04/ConvergeCHTMapper/internal/domain"
	"github.com/zmills04/ConvergeCHTMapper/internal/ports"
)

// Folders names the two solver domain folders of a simulation root.
type Folders struct {
	Coolant    domain.DomainFolder
	Combustion domain.DomainFolder
}

// ForPhase returns the domain folder a solver phase runs in. Mapping
// phases have no folder of their own; ok is false for them.
func (f Folders) ForPhase(p domain.Phase) (domain.DomainFolder, bool) {
	switch p {
	case domain.PhaseCoolant:
		return f.Coolant, true
	case domain.PhaseCombustion:
		return f.Combustion, true
	}
	return domain.DomainFolder{}, false
}

// Resolver computes the authoritative resume point by reconciling the
// persisted checkpoint with what the domain folders actually contain. It
// runs before any process is launched; a corrupt checkpoint stops the run
// here rather than after hours of solver time.
type Resolver struct {
	store     ports.Store
	inspector ports.Inspector
	folders   Folders
	logger    ports.Logger

	now func() time.Time
}

// NewResolver creates a resolver over the given store and inspector.
func NewResolver(store ports.Store, inspector ports.Inspector, folders Folders, logger ports.Logger) *Resolver {
	return &Resolver{
		store:     store,
		inspector: inspector,
		folders:   folders,
		logger:    logger,
		now:       time.Now,
	}
}

// Resolve loads the checkpoint, heals it against the on-disk artifacts,
// stamps it with this launch, and persists it. Calling Resolve twice in a
// row yields the same plan: healing only ever moves the record up to what
// the folders already prove.
//
// Returns domain.ErrCorruptState for an unreadable or inconsistent
// checkpoint and domain.ErrRunComplete when the run already finished.
func (r *Resolver) Resolve(ctx context.Context, launchID string) (*domain.ResumePlan, error) {
	rec, err := r.store.Load(ctx)
	fresh := false
	switch {
	case errors.Is(err, domain.ErrRecordNotFound):
		// No checkpoint. The folders may still hold finished work from a
		// run whose record was lost; healing below picks that up instead
		// of re-running it.
		rec = domain.NewRunRecord(launchID)
		fresh = true
	case err != nil:
		return nil, err
	}

	if rec.FinalState != "" {
		return nil, fmt.Errorf("%w: run finished as %s; move the record aside to start over",
			domain.ErrRunComplete, rec.FinalState)
	}

	healed, err := r.heal(ctx, rec)
	if err != nil {
		return nil, err
	}

	rec.LastLaunchID = launchID
	if err := r.store.Save(ctx, rec); err != nil {
		return nil, err
	}

	r.logger.Info("resume point resolved",
		ports.Int("iteration", rec.Iteration),
		ports.String("phase", rec.CurrentPhase.String()),
		ports.Bool("fresh", fresh),
		ports.Bool("healed", healed))

	return &domain.ResumePlan{
		StartIteration: rec.Iteration,
		StartPhase:     rec.CurrentPhase,
		Fresh:          fresh,
		Healed:         healed,
		Record:         rec,
	}, nil
}

// Peek computes the same plan Resolve would, without stamping or
// persisting anything. Used by read-only status reporting; it is safe to
// call while another launch owns the record.
func (r *Resolver) Peek(ctx context.Context) (*domain.ResumePlan, error) {
	rec, err := r.store.Load(ctx)
	fresh := false
	switch {
	case errors.Is(err, domain.ErrRecordNotFound):
		rec = domain.NewRunRecord("")
		fresh = true
	case err != nil:
		return nil, err
	}

	if rec.FinalState != "" {
		return nil, fmt.Errorf("%w: run finished as %s", domain.ErrRunComplete, rec.FinalState)
	}

	healed, err := r.heal(ctx, rec)
	if err != nil {
		return nil, err
	}
	return &domain.ResumePlan{
		StartIteration: rec.Iteration,
		StartPhase:     rec.CurrentPhase,
		Fresh:          fresh,
		Healed:         healed,
		Record:         rec,
	}, nil
}

// heal advances the record past a solver phase whose folder already
// carries the done marker: the solver finished but the controller died
// before checkpointing. Mapping phases are never healed; their work is
// cheap and is re-run in full. Partial or absent folders also re-run, so
// at most one advance can happen per resolve.
func (r *Resolver) heal(ctx context.Context, rec *domain.RunRecord) (bool, error) {
	folder, ok := r.folders.ForPhase(rec.CurrentPhase)
	if !ok {
		return false, nil
	}
	cond, err := r.inspector.Inspect(ctx, folder, rec.CurrentPhase)
	if err != nil {
		return false, err
	}
	if cond != domain.FolderComplete {
		return false, nil
	}

	r.logger.Warn("solver output complete but not checkpointed; advancing past it",
		ports.String("phase", rec.CurrentPhase.String()),
		ports.String("folder", folder.Path))
	rec.Advance(r.now())
	return true, nil
}
