// Package review is the manual review sink: an append-only record of
// items that exhausted their generation retries or were flagged by the QA
// gate with no automatic remediation.
//
// Entries are never merged; a second failure for the same item key
// appends a new entry so the attempts history stays auditable. Display
// deduplication is an operator-dashboard concern, not this package's.
package review
