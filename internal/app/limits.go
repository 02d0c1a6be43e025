package app

import "sync"

// LiveLimits holds the two knobs an engineer may retune while a run is in
// flight: the iteration budget and the convergence threshold. The
// controller reads them at each cycle boundary; the config watcher updates
// them when the config file changes.
type LiveLimits struct {
	mu        sync.RWMutex
	budget    int
	threshold float64
}

// NewLiveLimits creates limits with the given starting values.
func NewLiveLimits(budget int, threshold float64) *LiveLimits {
	return &LiveLimits{budget: budget, threshold: threshold}
}

// Budget returns the current iteration budget.
func (l *LiveLimits) Budget() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.budget
}

// Threshold returns the current convergence threshold.
func (l *LiveLimits) Threshold() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.threshold
}

// Update replaces both limits. Non-positive values leave the previous
// setting in place.
func (l *LiveLimits) Update(budget int, threshold float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if budget > 0 {
		l.budget = budget
	}
	if threshold > 0 {
		l.threshold = threshold
	}
}
