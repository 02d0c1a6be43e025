package ports

import "context"

// MetricSource extracts the convergence metric after a completed cycle.
// The metric measures cycle-over-cycle change of the mapped boundary data;
// the controller halts once it drops to or below the configured threshold.
//
// Metric is a pure comparison: calling it again before Commit yields the
// same value, so a relaunch recomputing the metric for a cycle whose
// checkpoint never landed sees the true change, not zero. Commit retains
// the current data as the baseline for the next cycle; the controller
// calls it only after the checkpoint carrying the metric is durable.
//
// Metric returns (0, false, nil) when no metric is computable yet, which
// is the normal case on the first cycle: there is no previous data to
// compare against.
type MetricSource interface {
	Metric(ctx context.Context) (value float64, ok bool, err error)
	Commit(ctx context.Context) error
}
