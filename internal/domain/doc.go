// Package domain contains the core entities and value objects for the
// coupling runner.
//
// This package is the innermost layer: it has no dependencies on
// infrastructure concerns (process execution, file system, logging) and
// holds only the data types and invariants of the coupling cycle.
//
// # Entities
//
//   - [Phase]: one step of the fixed four-step coupling cycle
//   - [RunRecord]: the persisted checkpoint enabling deterministic resumption
//   - [ResumePlan]: the phase and iteration at which execution continues
//   - [ProcessOutcome]: the classified result of one external invocation
//   - [DomainFolder]: handle to one simulation working directory
package domain
