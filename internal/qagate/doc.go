// Package qagate runs batch-wide consistency checks over one
// (language, level) partition of the content store.
//
// Four independent checks run over an immutable snapshot: presence
// (asserted learning items actually appear in segment text), duplication
// (same-lemma items carry distinct sense glosses), link correctness
// (every reference resolves in scope), and answerability (an oracle can
// recover each question's answer from the unit text alone). No check
// short-circuits: the whole scope is evaluated and every defect is
// reported, so an operator needs one review pass per run. A content
// unit is publishable only when zero flags reference it.
package qagate
