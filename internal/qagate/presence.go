package qagate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lexcraftlabs/glossgen/internal/language"
	"github.com/lexcraftlabs/glossgen/internal/store"
)

// checkPresence verifies, for every (segment, learning_item_id) pair,
// that the referenced item exists for the unit's language and that its
// target form actually occurs in the segment text under the language's
// containment strategy. It also verifies that each unit's item id list
// equals the deduplicated union of its segment-level ids.
func checkPresence(snap *store.Snapshot) []Flag {
	var flags []Flag

	for _, unit := range snap.Units {
		cap := language.ForCode(string(unit.Language))

		for segIdx, seg := range unit.Segments {
			for _, id := range seg.LearningItemIDs {
				item := snap.ItemByID(id)
				switch {
				case item == nil:
					flags = append(flags, Flag{
						ItemID:       unit.ID,
						ItemType:     ItemTypeContentUnit,
						Kind:         KindPresenceViolation,
						Reason:       fmt.Sprintf("segment %d references learning item %q which does not exist in scope", segIdx, id),
						SuggestedFix: "regenerate the unit or remove the stale reference",
						unitIDs:      []string{unit.ID},
					})
				case item.Language != unit.Language:
					flags = append(flags, Flag{
						ItemID:       unit.ID,
						ItemType:     ItemTypeContentUnit,
						Kind:         KindPresenceViolation,
						Reason:       fmt.Sprintf("segment %d references learning item %q of language %q, unit language is %q", segIdx, id, item.Language, unit.Language),
						unitIDs:      []string{unit.ID},
					})
				case !cap.Contains(seg.Text, item.TargetItem):
					flags = append(flags, Flag{
						ItemID:       unit.ID,
						ItemType:     ItemTypeContentUnit,
						Kind:         KindPresenceViolation,
						Reason:       fmt.Sprintf("segment %d does not contain target %q of learning item %q", segIdx, item.TargetItem, id),
						SuggestedFix: "regenerate the segment so the target form appears verbatim",
						unitIDs:      []string{unit.ID},
					})
				}
			}
		}

		if flag, bad := checkUnionInvariant(unit.ID, unit.LearningItemIDs, unit.UnionSegmentItemIDs()); bad {
			flags = append(flags, flag)
		}
	}

	return flags
}

// checkUnionInvariant compares the unit-level id list against the union
// of segment-level ids as sets and reports one flag when they diverge.
func checkUnionInvariant(unitID string, declared, union []string) (Flag, bool) {
	declaredSet := make(map[string]struct{}, len(declared))
	for _, id := range declared {
		declaredSet[id] = struct{}{}
	}
	unionSet := make(map[string]struct{}, len(union))
	for _, id := range union {
		unionSet[id] = struct{}{}
	}

	var missing, extra []string
	for id := range unionSet {
		if _, ok := declaredSet[id]; !ok {
			missing = append(missing, id)
		}
	}
	for id := range declaredSet {
		if _, ok := unionSet[id]; !ok {
			extra = append(extra, id)
		}
	}
	if len(missing) == 0 && len(extra) == 0 {
		return Flag{}, false
	}
	sort.Strings(missing)
	sort.Strings(extra)

	var parts []string
	if len(missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing from unit list: %s", strings.Join(missing, ", ")))
	}
	if len(extra) > 0 {
		parts = append(parts, fmt.Sprintf("absent from every segment: %s", strings.Join(extra, ", ")))
	}
	return Flag{
		ItemID:       unitID,
		ItemType:     ItemTypeContentUnit,
		Kind:         KindPresenceViolation,
		Reason:       fmt.Sprintf("unit learning_item_ids is not the union of segment ids (%s)", strings.Join(parts, "; ")),
		SuggestedFix: "recompute the unit-level id list from its segments",
		unitIDs:      []string{unitID},
	}, true
}
