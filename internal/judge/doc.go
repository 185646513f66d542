// Package judge decides whether an oracle's answer to a comprehension
// question is semantically consistent with the stored answer key.
//
// The tolerance is deliberately pluggable: the default is an
// LLM-as-judge comparison call, with an embedding cosine-similarity
// judge available where an extra generation call per question is too
// expensive.
package judge
