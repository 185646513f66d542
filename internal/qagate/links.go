package qagate

import (
	"fmt"

	"github.com/lexcraftlabs/glossgen/internal/store"
)

// checkLinks verifies that every reference in scope resolves: each
// question's content_id must name a unit in the snapshot, and every
// learning_item_id referenced by a unit (segment-level or unit-level)
// must name an item. One flag per unresolved reference.
func checkLinks(snap *store.Snapshot) []Flag {
	var flags []Flag

	for _, q := range snap.Questions {
		if snap.UnitByID(q.ContentID) == nil {
			flags = append(flags, Flag{
				ItemID:       q.ID,
				ItemType:     ItemTypeQuestion,
				Kind:         KindBrokenLinkViolation,
				Reason:       fmt.Sprintf("question references content unit %q which does not exist in scope", q.ContentID),
				SuggestedFix: "delete the question or restore the unit it targets",
			})
		}
	}

	for _, unit := range snap.Units {
		// One flag per dangling id even when several segments repeat it.
		flagged := make(map[string]struct{})
		refs := append(append([]string{}, unit.LearningItemIDs...), unit.UnionSegmentItemIDs()...)
		for _, id := range refs {
			if _, done := flagged[id]; done {
				continue
			}
			if snap.ItemByID(id) == nil {
				flagged[id] = struct{}{}
				flags = append(flags, Flag{
					ItemID:       unit.ID,
					ItemType:     ItemTypeContentUnit,
					Kind:         KindBrokenLinkViolation,
					Reason:       fmt.Sprintf("unit references learning item %q which does not exist in scope", id),
					SuggestedFix: "remove the reference or re-enrich the missing item",
					unitIDs:      []string{unit.ID},
				})
			}
		}
	}

	return flags
}
