// Package catalog defines the content graph shared by the enrichment
// pipeline and the QA gate: learning items, content units with segments,
// comprehension questions, and manual review entries.
//
// Learning items are identified by their identity key (language, category,
// lemma-or-target, sense gloss); see IdentityKey for normalization rules.
package catalog
