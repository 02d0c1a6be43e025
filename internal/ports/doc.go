// Package ports defines the interfaces that connect the application layer
// to infrastructure adapters.
//
// The application layer (internal/app) depends only on these interfaces.
// Adapters (internal/adapters) implement them with concrete infrastructure:
// the file system for the run record store and output inspector, os/exec
// for the process runner, zerolog for logging.
//
// # Port interfaces
//
//   - [Store]: persists and loads the run record checkpoint
//   - [Inspector]: classifies a domain folder's artifacts for a phase
//   - [Runner]: launches and supervises one external process
//   - [MetricSource]: extracts the convergence metric after a cycle
//   - [Logger]: structured logging abstraction
//
// This separation exists so the iteration controller and restart resolver
// can be tested with fakes that deterministically produce complete, partial
// or absent outcomes without running real solvers.
package ports
