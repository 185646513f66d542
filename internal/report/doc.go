// Package report builds and persists validation reports from gate runs.
//
// A report is a pure function of the gate result: flagged items arrive
// already sorted, counts are derived, and serialization uses a fixed
// field order, so two runs over an unchanged snapshot produce
// byte-identical documents. Reports are never mutated, only superseded
// by the next run.
package report
