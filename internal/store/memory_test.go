package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexcraftlabs/glossgen/internal/catalog"
)

func zhItem(target, gloss string) *catalog.LearningItem {
	return &catalog.LearningItem{
		Language:    "zh",
		Category:    catalog.CategoryVocabulary,
		TargetItem:  target,
		SenseGloss:  gloss,
		Definition:  "def",
		Examples:    []string{"a", "b", "c"},
		LevelSystem: "hsk",
		LevelMin:    "HSK2",
		LevelMax:    "HSK4",
	}
}

func TestUpsertItem_AssignsIDAndVersion(t *testing.T) {
	m := NewMemory()

	stored, err := m.UpsertItem(context.Background(), zhItem("银行", ""))
	require.NoError(t, err)
	assert.NotEmpty(t, stored.ID)
	assert.Equal(t, 1, stored.Version)
}

func TestUpsertItem_SameKeySupersedes(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	first, err := m.UpsertItem(ctx, zhItem("银行", ""))
	require.NoError(t, err)

	updated := zhItem("银行", "")
	updated.Definition = "bank, the financial kind"
	second, err := m.UpsertItem(ctx, updated)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "superseding keeps the ID")
	assert.Equal(t, 2, second.Version)

	got, err := m.GetItem(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "bank, the financial kind", got.Definition)
}

func TestUpsertItem_DistinctGlossesAreDistinctRecords(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	a, err := m.UpsertItem(ctx, zhItem("行", "row, line"))
	require.NoError(t, err)
	b, err := m.UpsertItem(ctx, zhItem("行", "to walk"))
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
}

func TestGetItem_NotFound(t *testing.T) {
	m := NewMemory()
	_, err := m.GetItem(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSnapshot_ScopesByLanguageAndLevel(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_, err := m.UpsertItem(ctx, zhItem("银行", "")) // HSK2..HSK4
	require.NoError(t, err)

	outOfBand := zhItem("一", "")
	outOfBand.LevelMin, outOfBand.LevelMax = "HSK1", "HSK1"
	_, err = m.UpsertItem(ctx, outOfBand)
	require.NoError(t, err)

	enItem := zhItem("bank", "")
	enItem.Language = "en"
	enItem.LevelSystem = "cefr"
	enItem.LevelMin, enItem.LevelMax = "A1", "C2"
	_, err = m.UpsertItem(ctx, enItem)
	require.NoError(t, err)

	snap, err := m.Snapshot(ctx, Scope{Language: "zh", Level: "HSK3"})
	require.NoError(t, err)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "银行", snap.Items[0].TargetItem)
}

func TestSnapshot_IsImmutable(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.UpsertUnit(ctx, &catalog.ContentUnit{
		ID:       "u1",
		Language: "zh",
		Level:    "HSK3",
		Segments: []catalog.Segment{{Text: "我去银行。", LearningItemIDs: []string{"i1"}}},
	}))

	snap, err := m.Snapshot(ctx, Scope{Language: "zh", Level: "HSK3"})
	require.NoError(t, err)
	require.Len(t, snap.Units, 1)

	// A later write must not show up in the earlier snapshot.
	require.NoError(t, m.SetPublishable(ctx, "u1", true))
	assert.False(t, snap.Units[0].Publishable)
}

func TestSnapshot_KeepsDanglingQuestions(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.UpsertQuestion(ctx, &catalog.Question{
		ID: "q1", ContentID: "missing-uuid", Type: catalog.QuestionOpenEnded,
	}))

	snap, err := m.Snapshot(ctx, Scope{Language: "zh", Level: "HSK3"})
	require.NoError(t, err)
	require.Len(t, snap.Questions, 1)
	assert.Equal(t, "missing-uuid", snap.Questions[0].ContentID)
}

func TestSetPublishable_MissingUnit(t *testing.T) {
	m := NewMemory()
	err := m.SetPublishable(context.Background(), "nope", true)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestImportItem_KeepsDuplicateIdentityKeys(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	a := zhItem("银行", "")
	a.ID = "it-1"
	b := zhItem("银行", "")
	b.ID = "it-2"
	require.NoError(t, m.ImportItem(ctx, a))
	require.NoError(t, m.ImportItem(ctx, b))

	snap, err := m.Snapshot(ctx, Scope{Language: "zh", Level: "HSK3"})
	require.NoError(t, err)
	assert.Len(t, snap.Items, 2, "imports do not collapse by identity key")

	err = m.ImportItem(ctx, zhItem("银行", ""))
	assert.Error(t, err, "imports require an explicit id")
}

func TestUpsertItem_ConcurrentSameKey(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.UpsertItem(ctx, zhItem("银行", ""))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	snap, err := m.Snapshot(ctx, Scope{Language: "zh", Level: "HSK3"})
	require.NoError(t, err)
	require.Len(t, snap.Items, 1, "one record per identity key regardless of writer count")
	assert.Equal(t, 20, snap.Items[0].Version)
}
