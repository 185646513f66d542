package main

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lexcraftlabs/glossgen/internal/catalog"
	"github.com/lexcraftlabs/glossgen/internal/config"
	"github.com/lexcraftlabs/glossgen/internal/enrich"
	"github.com/lexcraftlabs/glossgen/internal/events"
	"github.com/lexcraftlabs/glossgen/internal/genport"
	"github.com/lexcraftlabs/glossgen/internal/review"
	"github.com/lexcraftlabs/glossgen/internal/store"
)

// staticGenerator returns the same candidate for every request.
type staticGenerator struct {
	raw json.RawMessage
}

func (g *staticGenerator) Generate(ctx context.Context, req genport.Request) (json.RawMessage, error) {
	return g.raw, nil
}

func newTestApp(t *testing.T, gen genport.Generator) *app {
	t.Helper()

	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.CheckpointDir = filepath.Join(dir, "checkpoints")

	sink, err := review.NewFileSink(filepath.Join(dir, "manual_review.jsonl"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = sink.Close() })

	return &app{
		cfg:       cfg,
		logger:    zap.NewNop(),
		generator: gen,
		store:     store.NewMemory(),
		reviews:   sink,
		events:    events.NopPublisher{},
	}
}

func TestEnrichBatch_SucceedsAndResumes(t *testing.T) {
	candidate, err := json.Marshal(catalog.LearningItem{
		Language:     "zh",
		Category:     catalog.CategoryVocabulary,
		TargetItem:   "银行",
		Definition:   "a bank, the financial institution",
		Examples:     []string{"例一。", "例二。", "例三。"},
		Romanization: "yínháng",
		LevelSystem:  "hsk",
		LevelMin:     "HSK2",
		LevelMax:     "HSK3",
	})
	require.NoError(t, err)

	a := newTestApp(t, &staticGenerator{raw: candidate})
	seeds := []enrich.SourceItem{{
		Language:    "zh",
		Category:    catalog.CategoryVocabulary,
		TargetItem:  "银行",
		LevelSystem: "hsk",
	}}

	summary, err := enrichBatch(context.Background(), a, "b1", seeds)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Zero(t, summary.ManualReview)

	snap, err := a.store.Snapshot(context.Background(), store.Scope{Language: "zh"})
	require.NoError(t, err)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "银行", snap.Items[0].TargetItem)

	// Same batch id resumes from the checkpoint: nothing is regenerated.
	resumed, err := enrichBatch(context.Background(), a, "b1", seeds)
	require.NoError(t, err)
	assert.Equal(t, 1, resumed.Skipped)
	assert.Zero(t, resumed.Processed)
}
