package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lexcraftlabs/glossgen/internal/checkpoint"
	"github.com/lexcraftlabs/glossgen/internal/enrich"
	"github.com/lexcraftlabs/glossgen/internal/events"
	"github.com/lexcraftlabs/glossgen/internal/validate"
)

var enrichBatchID string

var enrichCmd = &cobra.Command{
	Use:   "enrich <seeds.json>",
	Short: "Enrich a batch of seed items into validated learning items",
	Long: `Enrich reads a JSON array of seed items and drives each one through
generation, validation and retry until it succeeds or lands in manual
review. Batches are resumable: re-running with the same batch id skips
items that already reached a terminal state.

Example seed file:

  [
    {"language": "es", "category": "vocabulary", "target_item": "banco",
     "level_system": "cefr"},
    {"language": "zh", "category": "vocabulary", "target_item": "银行",
     "level_system": "hsk"}
  ]`,
	Args: cobra.ExactArgs(1),
	RunE: runEnrich,
}

func init() {
	enrichCmd.Flags().StringVar(&enrichBatchID, "batch", "", "batch id (defaults to the seed file name)")
}

func runEnrich(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	seedPath := args[0]
	items, err := readSeeds(seedPath)
	if err != nil {
		return err
	}

	batchID := enrichBatchID
	if batchID == "" {
		batchID = strings.TrimSuffix(filepath.Base(seedPath), filepath.Ext(seedPath))
	}

	summary, err := enrichBatch(ctx, a, batchID, items)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

// enrichBatch runs one resumable enrichment batch against the app's
// store. Shared with serve mode.
func enrichBatch(ctx context.Context, a *app, batchID string, items []enrich.SourceItem) (*enrich.Summary, error) {
	ckpt, err := checkpoint.Open(a.cfg.Paths.CheckpointDir, batchID, a.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint: %w", err)
	}

	orch, err := enrich.New(
		&enrich.Config{
			Concurrency:     a.cfg.Enrich.Concurrency,
			MaxAttempts:     a.cfg.Enrich.MaxAttempts,
			GenerateTimeout: a.cfg.Enrich.GenerateTimeout.Duration(),
		},
		a.generator,
		validate.New(validate.DefaultLimits()),
		a.store,
		a.reviews,
		a.logger,
	)
	if err != nil {
		return nil, err
	}

	summary, _, err := orch.Run(ctx, batchID, items, ckpt)
	if err != nil {
		return nil, err
	}
	if err := ckpt.Flush(); err != nil {
		a.logger.Warn("failed to flush checkpoint", zap.Error(err))
	}

	if err := a.events.Publish(events.Event{
		Type:      events.TypeEnrichFinished,
		BatchID:   batchID,
		Succeeded: summary.Succeeded,
		Failed:    summary.ManualReview,
	}); err != nil {
		a.logger.Warn("failed to publish event", zap.Error(err))
	}
	return summary, nil
}

// readSeeds parses a JSON array of seed items.
func readSeeds(path string) ([]enrich.SourceItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	var items []enrich.SourceItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("seed file %s contains no items", path)
	}
	for i, item := range items {
		if item.TargetItem == "" {
			return nil, fmt.Errorf("seed %d has no target_item", i)
		}
		if item.Language == "" {
			return nil, fmt.Errorf("seed %d (%s) has no language", i, item.TargetItem)
		}
	}
	return items, nil
}
