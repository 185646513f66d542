package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lexcraftlabs/glossgen/internal/catalog"
)

// Memory is the in-process store implementation. Safe for concurrent use;
// every upsert is atomic at single-record granularity.
type Memory struct {
	mu sync.RWMutex

	itemsByID  map[string]*catalog.LearningItem
	itemsByKey map[string]string // identity key -> item ID
	units      map[string]*catalog.ContentUnit
	questions  map[string]*catalog.Question

	now func() time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		itemsByID:  make(map[string]*catalog.LearningItem),
		itemsByKey: make(map[string]string),
		units:      make(map[string]*catalog.ContentUnit),
		questions:  make(map[string]*catalog.Question),
		now:        time.Now,
	}
}

// UpsertItem implements Store.
func (m *Memory) UpsertItem(ctx context.Context, item *catalog.LearningItem) (*catalog.LearningItem, error) {
	if item.TargetItem == "" {
		return nil, fmt.Errorf("item has no target_item")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *item
	key := item.IdentityKey()

	if prevID, ok := m.itemsByKey[key]; ok {
		prev := m.itemsByID[prevID]
		stored.ID = prev.ID
		stored.Version = prev.Version + 1
	} else {
		if stored.ID == "" {
			stored.ID = uuid.New().String()
		}
		stored.Version = 1
	}
	stored.CreatedAt = m.now()

	m.itemsByID[stored.ID] = &stored
	m.itemsByKey[key] = stored.ID

	out := stored
	return &out, nil
}

// ImportItem stores an item by ID without identity-key deduplication.
// Used when importing an upstream content export: the QA gate must see
// duplicates exactly as the pipeline produced them, not a collapsed
// last-writer view.
func (m *Memory) ImportItem(ctx context.Context, item *catalog.LearningItem) error {
	if item.ID == "" {
		return fmt.Errorf("imported item has no id")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *item
	m.itemsByID[stored.ID] = &stored
	return nil
}

// UpsertUnit implements Store.
func (m *Memory) UpsertUnit(ctx context.Context, unit *catalog.ContentUnit) error {
	if unit.ID == "" {
		return fmt.Errorf("unit has no id")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := copyUnit(unit)
	m.units[unit.ID] = copied
	return nil
}

// UpsertQuestion implements Store.
func (m *Memory) UpsertQuestion(ctx context.Context, q *catalog.Question) error {
	if q.ID == "" {
		return fmt.Errorf("question has no id")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := *q
	if q.SegmentRange != nil {
		r := *q.SegmentRange
		copied.SegmentRange = &r
	}
	m.questions[q.ID] = &copied
	return nil
}

// GetItem implements Store.
func (m *Memory) GetItem(ctx context.Context, id string) (*catalog.LearningItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	item, ok := m.itemsByID[id]
	if !ok {
		return nil, fmt.Errorf("item %s: %w", id, ErrNotFound)
	}
	out := *item
	return &out, nil
}

// GetUnit implements Store.
func (m *Memory) GetUnit(ctx context.Context, id string) (*catalog.ContentUnit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	unit, ok := m.units[id]
	if !ok {
		return nil, fmt.Errorf("unit %s: %w", id, ErrNotFound)
	}
	return copyUnit(unit), nil
}

// SetPublishable implements Store.
func (m *Memory) SetPublishable(ctx context.Context, unitID string, publishable bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	unit, ok := m.units[unitID]
	if !ok {
		return fmt.Errorf("unit %s: %w", unitID, ErrNotFound)
	}
	unit.Publishable = publishable
	return nil
}

// Snapshot implements Store. Records are deep-copied and sorted by ID so
// two snapshots of an unchanged partition are identical.
func (m *Memory) Snapshot(ctx context.Context, scope Scope) (*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := &Snapshot{Scope: scope}

	for _, item := range m.itemsByID {
		if !itemInScope(item, scope) {
			continue
		}
		out := *item
		snap.Items = append(snap.Items, &out)
	}
	for _, unit := range m.units {
		if unit.Language != scope.Language {
			continue
		}
		if scope.Level != "" && unit.Level != "" && unit.Level != scope.Level {
			continue
		}
		snap.Units = append(snap.Units, copyUnit(unit))
	}
	for _, q := range m.questions {
		unit, ok := m.units[q.ContentID]
		inScope := !ok // dangling questions stay in scope so the link check sees them
		if ok && unit.Language == scope.Language && (scope.Level == "" || unit.Level == "" || unit.Level == scope.Level) {
			inScope = true
		}
		if !inScope {
			continue
		}
		out := *q
		if q.SegmentRange != nil {
			r := *q.SegmentRange
			out.SegmentRange = &r
		}
		snap.Questions = append(snap.Questions, &out)
	}

	sort.Slice(snap.Items, func(i, j int) bool { return snap.Items[i].ID < snap.Items[j].ID })
	sort.Slice(snap.Units, func(i, j int) bool { return snap.Units[i].ID < snap.Units[j].ID })
	sort.Slice(snap.Questions, func(i, j int) bool { return snap.Questions[i].ID < snap.Questions[j].ID })

	return snap, nil
}

func copyUnit(unit *catalog.ContentUnit) *catalog.ContentUnit {
	copied := *unit
	copied.Segments = make([]catalog.Segment, len(unit.Segments))
	for i, seg := range unit.Segments {
		copied.Segments[i] = catalog.Segment{
			Text:            seg.Text,
			LearningItemIDs: append([]string(nil), seg.LearningItemIDs...),
		}
	}
	copied.LearningItemIDs = append([]string(nil), unit.LearningItemIDs...)
	return &copied
}

var _ Store = (*Memory)(nil)
