// Package checkpoint persists batch progress so enrichment runs are
// resumable: a restarted batch skips items that already reached a
// terminal state (succeeded or manual review).
//
// State is loaded once at batch start and flushed with an atomic
// write-and-rename, keeping the orchestrator free of ambient globals.
package checkpoint
