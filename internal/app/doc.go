// Package app wires the ports together into the coupling run itself: the
// restart resolver that computes where to resume, the iteration controller
// that drives the phase cycle, and the live limits a config watcher can
// retune while solvers run.
package app
