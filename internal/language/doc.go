// Package language models per-language behavior behind a small capability
// interface: tokenization, containment, and the romanization requirement.
// Callers select a capability by language code instead of branching on it.
//
// It also defines the supported proficiency level systems (CEFR, HSK,
// JLPT) as total orders.
package language
