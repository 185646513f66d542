package qagate

import (
	"fmt"
	"sort"
)

// Kind classifies a flag. Batch-level kinds are reported, never
// auto-retried.
type Kind string

const (
	KindPresenceViolation     Kind = "presence_violation"
	KindSenseCollision        Kind = "sense_collision"
	KindBrokenLinkViolation   Kind = "broken_link_violation"
	KindUnanswerableViolation Kind = "unanswerable_violation"
)

// ItemType names the record type a flag attaches to.
type ItemType string

const (
	ItemTypeLearningItem ItemType = "learning_item"
	ItemTypeContentUnit  ItemType = "content_unit"
	ItemTypeQuestion     ItemType = "question"
)

// Flag is one defect found by a check.
type Flag struct {
	// ItemID identifies the flagged record.
	ItemID string `json:"item_id"`

	// ItemType is the flagged record's type.
	ItemType ItemType `json:"item_type"`

	// Kind is the failure classification.
	Kind Kind `json:"failure_kind"`

	// Reason is a human-readable description of the defect.
	Reason string `json:"reason"`

	// SuggestedFix optionally hints at a remediation.
	SuggestedFix string `json:"suggested_fix,omitempty"`

	// unitIDs lists the content units this flag withholds from
	// publication. Not part of the report payload.
	unitIDs []string
}

// UnitIDs returns the content units the flag references.
func (f *Flag) UnitIDs() []string {
	return f.unitIDs
}

func (f *Flag) String() string {
	return fmt.Sprintf("%s %s/%s: %s", f.Kind, f.ItemType, f.ItemID, f.Reason)
}

// sortFlags orders flags by (item_type, item_id) with kind and reason as
// tie-breakers, so two runs over the same snapshot report identically.
func sortFlags(flags []Flag) {
	sort.Slice(flags, func(i, j int) bool {
		a, b := flags[i], flags[j]
		if a.ItemType != b.ItemType {
			return a.ItemType < b.ItemType
		}
		if a.ItemID != b.ItemID {
			return a.ItemID < b.ItemID
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.Reason < b.Reason
	})
}
