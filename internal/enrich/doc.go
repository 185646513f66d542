// Package enrich drives seed items through generate → validate → retry
// until each reaches a terminal state: a validated learning item in the
// content store, or a manual review entry.
//
// The per-item lifecycle is an explicit tagged state machine
// (Pending → Generating → Validating → {Succeeded | RetryPending |
// ManualReview}) rather than error-driven control flow, so the shared
// 3-attempt budget and corrective-feedback threading are structurally
// enforced and testable without I/O. Items are fully independent; a
// batch runs them on a bounded worker pool and partial failure is the
// expected steady state.
package enrich
