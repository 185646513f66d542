// Package store defines the content store boundary: the keyed graph of
// learning items, content units and questions the enrichment pipeline
// writes and the QA gate reads.
//
// Upserts are atomic per identity key (compare-and-swap, last writer
// wins); no cross-record transaction exists or is needed. The in-memory
// implementation is the reference for the contract and backs tests and
// single-process runs.
package store
