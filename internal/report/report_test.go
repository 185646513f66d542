package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lexcraftlabs/glossgen/internal/catalog"
	"github.com/lexcraftlabs/glossgen/internal/qagate"
	"github.com/lexcraftlabs/glossgen/internal/store"
)

func sampleResult() *qagate.Result {
	snap := &store.Snapshot{
		Scope: store.Scope{Language: "es", Level: "A2"},
		Items: []*catalog.LearningItem{
			{ID: "it-1", Language: "es", TargetItem: "banco"},
			{ID: "it-2", Language: "es", TargetItem: "dinero"},
		},
		Units: []*catalog.ContentUnit{
			{ID: "cu-1", Language: "es"},
		},
		Questions: []*catalog.Question{
			{ID: "q-1", ContentID: "cu-1"},
		},
	}
	return &qagate.Result{
		Snapshot: snap,
		Flags: []qagate.Flag{
			{
				ItemID:   "cu-1",
				ItemType: qagate.ItemTypeContentUnit,
				Kind:     qagate.KindPresenceViolation,
				Reason:   "segment 0 does not contain target",
			},
			{
				ItemID:       "q-1",
				ItemType:     qagate.ItemTypeQuestion,
				Kind:         qagate.KindUnanswerableViolation,
				Reason:       "oracle disagreed",
				SuggestedFix: "rewrite the question",
			},
		},
	}
}

func TestBuild_Counts(t *testing.T) {
	r, err := Build("batch-1", sampleResult())
	require.NoError(t, err)

	assert.Equal(t, "batch-1", r.BatchID)
	assert.Equal(t, "es", r.Language)
	assert.Equal(t, "A2", r.Level)
	assert.Equal(t, 4, r.TotalItems)
	assert.Equal(t, 2, r.FailedCount)
	assert.Equal(t, 2, r.PassedCount)
	assert.Equal(t, 50.0, r.SummaryStats.PassRatePercent)
	assert.Equal(t, 1, r.SummaryStats.FailureKindCounts["presence_violation"])
	assert.Equal(t, 1, r.SummaryStats.FailureKindCounts["unanswerable_violation"])
}

func TestBuild_DoubleFlaggedRecordCountsOnce(t *testing.T) {
	result := sampleResult()
	result.Flags = append(result.Flags, qagate.Flag{
		ItemID:   "cu-1",
		ItemType: qagate.ItemTypeContentUnit,
		Kind:     qagate.KindBrokenLinkViolation,
		Reason:   "unit references a missing item",
	})

	r, err := Build("batch-1", result)
	require.NoError(t, err)

	assert.Len(t, r.FlaggedItems, 3)
	assert.Equal(t, 2, r.FailedCount)
}

func TestBuild_EmptyScope(t *testing.T) {
	r, err := Build("batch-1", &qagate.Result{Snapshot: &store.Snapshot{
		Scope: store.Scope{Language: "es"},
	}})
	require.NoError(t, err)

	assert.Equal(t, 0, r.TotalItems)
	assert.Equal(t, 100.0, r.SummaryStats.PassRatePercent)
	assert.Empty(t, r.FlaggedItems)
}

func TestBuild_RequiresBatchID(t *testing.T) {
	_, err := Build("", sampleResult())
	assert.Error(t, err)
}

func TestEncode_ByteIdentical(t *testing.T) {
	first, err := Build("batch-1", sampleResult())
	require.NoError(t, err)
	second, err := Build("batch-1", sampleResult())
	require.NoError(t, err)

	a, err := first.Encode()
	require.NoError(t, err)
	b, err := second.Encode()
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestKinds_Sorted(t *testing.T) {
	r, err := Build("batch-1", sampleResult())
	require.NoError(t, err)

	assert.Equal(t, []string{"presence_violation", "unanswerable_violation"}, r.Kinds())
}

func TestFileStore_SaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStore(filepath.Join(dir, "reports"), zap.NewNop())
	require.NoError(t, err)

	r, err := Build("batch-1", sampleResult())
	require.NoError(t, err)
	require.NoError(t, fs.Save(r))

	loaded, err := fs.Load("batch-1")
	require.NoError(t, err)
	assert.Equal(t, r, loaded)

	// No temp file left behind.
	_, err = os.Stat(fs.Path("batch-1") + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestFileStore_SaveSupersedes(t *testing.T) {
	fs, err := NewFileStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	first, err := Build("batch-1", sampleResult())
	require.NoError(t, err)
	require.NoError(t, fs.Save(first))

	empty, err := Build("batch-1", &qagate.Result{Snapshot: &store.Snapshot{
		Scope: store.Scope{Language: "es"},
	}})
	require.NoError(t, err)
	require.NoError(t, fs.Save(empty))

	loaded, err := fs.Load("batch-1")
	require.NoError(t, err)
	assert.Equal(t, 0, loaded.TotalItems)
}
