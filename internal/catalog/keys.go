package catalog

import (
	"strings"
)

// normalizeKeyPart lowercases and collapses interior whitespace so items
// differing only by case or spacing share a key.
func normalizeKeyPart(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// LemmaOrTarget returns the lemma when set, otherwise the target item.
func (li *LearningItem) LemmaOrTarget() string {
	if li.Lemma != "" {
		return li.Lemma
	}
	return li.TargetItem
}

// IdentityKey is the deduplication key for a learning item:
// (language, category, lemma-or-target, sense gloss), normalized.
func (li *LearningItem) IdentityKey() string {
	return strings.Join([]string{
		string(li.Language),
		string(li.Category),
		normalizeKeyPart(li.LemmaOrTarget()),
		normalizeKeyPart(li.SenseGloss),
	}, "\x1f")
}

// SenseGroupKey groups items that must be disambiguated by sense gloss:
// the identity key without the gloss component.
func (li *LearningItem) SenseGroupKey() string {
	return strings.Join([]string{
		string(li.Language),
		string(li.Category),
		normalizeKeyPart(li.LemmaOrTarget()),
	}, "\x1f")
}

// UnionSegmentItemIDs returns the deduplicated union of segment-level
// learning item ids, in first-seen order.
func (cu *ContentUnit) UnionSegmentItemIDs() []string {
	seen := make(map[string]struct{})
	var union []string
	for _, seg := range cu.Segments {
		for _, id := range seg.LearningItemIDs {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			union = append(union, id)
		}
	}
	return union
}

// Text returns the unit's full text, segments joined by newlines.
func (cu *ContentUnit) Text() string {
	parts := make([]string, 0, len(cu.Segments))
	for _, seg := range cu.Segments {
		parts = append(parts, seg.Text)
	}
	return strings.Join(parts, "\n")
}

// RangeText returns the text covered by the question's segment range, or
// the full unit text when the question has no range.
func (q *Question) RangeText(cu *ContentUnit) string {
	if q.SegmentRange == nil {
		return cu.Text()
	}
	start, end := q.SegmentRange.Start, q.SegmentRange.End
	if start < 0 {
		start = 0
	}
	if end >= len(cu.Segments) {
		end = len(cu.Segments) - 1
	}
	if start > end {
		return ""
	}
	parts := make([]string, 0, end-start+1)
	for _, seg := range cu.Segments[start : end+1] {
		parts = append(parts, seg.Text)
	}
	return strings.Join(parts, "\n")
}
