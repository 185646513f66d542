// Package genport is the structured generation port: it turns a prompt
// and a result-shape descriptor into candidate JSON, or a typed failure
// (timeout, rate limited, malformed).
//
// The default implementation talks to any OpenAI-compatible chat
// completions endpoint with client-side rate limiting. Callers own retry
// policy; this package only classifies failures.
package genport
