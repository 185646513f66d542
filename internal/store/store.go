package store

import (
	"context"
	"errors"

	"github.com/lexcraftlabs/glossgen/internal/catalog"
	"github.com/lexcraftlabs/glossgen/internal/language"
)

// ErrNotFound is returned when a record does not exist in scope.
var ErrNotFound = errors.New("record not found")

// Scope is one (language, level) partition of the store.
type Scope struct {
	Language catalog.Language `json:"language"`
	Level    string           `json:"level"`
}

// Store is the content store boundary.
type Store interface {
	// UpsertItem writes a learning item keyed by its identity key.
	// An existing item under the same key is superseded: the new
	// version gets the old ID and an incremented Version (last writer
	// wins, no merge). The stored item is returned.
	UpsertItem(ctx context.Context, item *catalog.LearningItem) (*catalog.LearningItem, error)

	// UpsertUnit writes a content unit keyed by ID.
	UpsertUnit(ctx context.Context, unit *catalog.ContentUnit) error

	// UpsertQuestion writes a question keyed by ID.
	UpsertQuestion(ctx context.Context, q *catalog.Question) error

	// GetItem retrieves a learning item by ID.
	GetItem(ctx context.Context, id string) (*catalog.LearningItem, error)

	// GetUnit retrieves a content unit by ID.
	GetUnit(ctx context.Context, id string) (*catalog.ContentUnit, error)

	// SetPublishable annotates a unit's publishable flag in place.
	SetPublishable(ctx context.Context, unitID string, publishable bool) error

	// Snapshot copies one (language, level) partition for reading.
	// The snapshot does not observe later writes.
	Snapshot(ctx context.Context, scope Scope) (*Snapshot, error)
}

// Snapshot is an immutable copy of one partition.
type Snapshot struct {
	Scope     Scope
	Items     []*catalog.LearningItem
	Units     []*catalog.ContentUnit
	Questions []*catalog.Question
}

// ItemByID returns the snapshot item with the given ID, or nil.
func (s *Snapshot) ItemByID(id string) *catalog.LearningItem {
	for _, it := range s.Items {
		if it.ID == id {
			return it
		}
	}
	return nil
}

// UnitByID returns the snapshot unit with the given ID, or nil.
func (s *Snapshot) UnitByID(id string) *catalog.ContentUnit {
	for _, u := range s.Units {
		if u.ID == id {
			return u
		}
	}
	return nil
}

// itemInScope reports whether the item belongs to the scope: same
// language, and the scope level inside the item's [min, max] band. Items
// with levels outside their declared system are kept in scope so the QA
// gate can flag rather than silently skip them.
func itemInScope(item *catalog.LearningItem, scope Scope) bool {
	if item.Language != scope.Language {
		return false
	}
	if scope.Level == "" {
		return true
	}
	system, err := language.LevelSystemByName(item.LevelSystem)
	if err != nil {
		return true
	}
	lo, err := system.Compare(item.LevelMin, scope.Level)
	if err != nil {
		return true
	}
	hi, err := system.Compare(scope.Level, item.LevelMax)
	if err != nil {
		return true
	}
	return lo <= 0 && hi <= 0
}
