// Package telemetry wires OpenTelemetry tracing and metrics export.
//
// Failures degrade gracefully: an unreachable collector leaves the
// process on no-op providers instead of failing startup.
package telemetry
