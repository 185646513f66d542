package qagate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lexcraftlabs/glossgen/internal/catalog"
	"github.com/lexcraftlabs/glossgen/internal/store"
)

// checkDuplication groups learning items by (language, category, lemma
// or target) and requires every multi-member group to carry pairwise
// distinct, non-empty sense glosses. Grouping keys are normalized, so
// items differing only by case or whitespace land in the same group.
// Each offending group produces exactly one flag.
func checkDuplication(snap *store.Snapshot) []Flag {
	groups := make(map[string][]*catalog.LearningItem)
	for _, item := range snap.Items {
		key := item.SenseGroupKey()
		groups[key] = append(groups[key], item)
	}

	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var flags []Flag
	for _, key := range keys {
		members := groups[key]
		if len(members) < 2 {
			continue
		}
		sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })

		if reason, collided := senseCollision(members); collided {
			ids := make([]string, len(members))
			for i, m := range members {
				ids[i] = m.ID
			}
			flags = append(flags, Flag{
				ItemID:       members[0].ID,
				ItemType:     ItemTypeLearningItem,
				Kind:         KindSenseCollision,
				Reason:       fmt.Sprintf("%s (lemma %q, items %s)", reason, members[0].LemmaOrTarget(), strings.Join(ids, ", ")),
				SuggestedFix: "assign a distinct sense_gloss to each item or merge the duplicates",
				unitIDs:      unitsReferencingItems(snap, ids),
			})
		}
	}
	return flags
}

// senseCollision reports whether the group's glosses fail the
// pairwise-distinct, non-empty requirement.
func senseCollision(members []*catalog.LearningItem) (string, bool) {
	seen := make(map[string]struct{}, len(members))
	for _, m := range members {
		gloss := strings.Join(strings.Fields(strings.ToLower(m.SenseGloss)), " ")
		if gloss == "" {
			return "group has a member with an empty sense_gloss", true
		}
		if _, dup := seen[gloss]; dup {
			return fmt.Sprintf("group has members sharing sense_gloss %q", m.SenseGloss), true
		}
		seen[gloss] = struct{}{}
	}
	return "", false
}

// unitsReferencingItems returns, sorted, the ids of units whose segments
// or unit-level list reference any of the given item ids.
func unitsReferencingItems(snap *store.Snapshot, itemIDs []string) []string {
	wanted := make(map[string]struct{}, len(itemIDs))
	for _, id := range itemIDs {
		wanted[id] = struct{}{}
	}

	var units []string
	for _, unit := range snap.Units {
		refs := append(append([]string{}, unit.LearningItemIDs...), unit.UnionSegmentItemIDs()...)
		for _, id := range refs {
			if _, ok := wanted[id]; ok {
				units = append(units, unit.ID)
				break
			}
		}
	}
	sort.Strings(units)
	return units
}
