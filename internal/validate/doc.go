// Package validate checks candidate learning items against schema shape
// and per-language business rules. Validation is a pure function of the
// candidate and its context; violations name the failed rule and field so
// they can drive corrective retry prompts and manual-review records.
package validate
