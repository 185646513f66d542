package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lexcraftlabs/glossgen/internal/catalog"
	"github.com/lexcraftlabs/glossgen/internal/config"
	"github.com/lexcraftlabs/glossgen/internal/events"
	"github.com/lexcraftlabs/glossgen/internal/qagate"
	"github.com/lexcraftlabs/glossgen/internal/report"
	"github.com/lexcraftlabs/glossgen/internal/store"
)

var (
	gateBatchID  string
	gateLanguage string
	gateLevel    string
	gateContent  string
)

var gateCmd = &cobra.Command{
	Use:   "gate",
	Short: "Run the QA gate over one language/level partition",
	Long: `Gate loads a content export, runs the four consistency checks
(presence, duplication, link correctness, answerability) over the
scoped partition, writes the validation report and stamps each content
unit's publishable flag.

The content file is a JSON object with "items", "units" and "questions"
arrays, as exported by the upstream content generation pipeline.`,
	RunE: runGate,
}

func init() {
	gateCmd.Flags().StringVar(&gateBatchID, "batch", "", "batch id for the report (required)")
	gateCmd.Flags().StringVar(&gateLanguage, "language", "", "language code to scope the run (required)")
	gateCmd.Flags().StringVar(&gateLevel, "level", "", "proficiency level to scope the run (empty for all)")
	gateCmd.Flags().StringVar(&gateContent, "content", "", "path to content export JSON (required)")
	_ = gateCmd.MarkFlagRequired("batch")
	_ = gateCmd.MarkFlagRequired("language")
	_ = gateCmd.MarkFlagRequired("content")
}

func runGate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if err := config.ValidateScope(gateLanguage, gateLevel); err != nil {
		return err
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	if err := loadContent(ctx, a.store, gateContent); err != nil {
		return err
	}

	scope := store.Scope{Language: catalog.Language(gateLanguage), Level: gateLevel}
	r, err := gateBatch(ctx, a, gateBatchID, scope)
	if err != nil {
		return err
	}

	out, err := r.Encode()
	if err != nil {
		return err
	}
	fmt.Print(string(out))
	return nil
}

// gateBatch runs the engine over one scope and persists the report.
// Shared with serve mode.
func gateBatch(ctx context.Context, a *app, batchID string, scope store.Scope) (*report.ValidationReport, error) {
	j, err := a.judge()
	if err != nil {
		return nil, fmt.Errorf("failed to create judge: %w", err)
	}

	engine, err := qagate.New(
		&qagate.Config{OracleConcurrency: a.cfg.Gate.OracleConcurrency},
		a.store,
		a.generator,
		j,
		a.logger,
	)
	if err != nil {
		return nil, err
	}

	result, err := engine.Run(ctx, scope)
	if err != nil {
		return nil, err
	}

	r, err := report.Build(batchID, result)
	if err != nil {
		return nil, err
	}
	if err := a.reports.Save(r); err != nil {
		return nil, err
	}

	if err := a.events.Publish(events.Event{
		Type:     events.TypeGateFinished,
		BatchID:  batchID,
		Language: r.Language,
		Level:    r.Level,
		Flags:    len(r.FlaggedItems),
	}); err != nil {
		a.logger.Warn("failed to publish event", zap.Error(err))
	}
	return r, nil
}

// contentExport is the upstream pipeline's export format.
type contentExport struct {
	Items     []*catalog.LearningItem `json:"items"`
	Units     []*catalog.ContentUnit  `json:"units"`
	Questions []*catalog.Question     `json:"questions"`
}

// loadContent imports a content export into the store. Items import by
// ID without identity-key collapsing so duplicate seeds stay visible to
// the duplication check.
func loadContent(ctx context.Context, st *store.Memory, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read content file: %w", err)
	}
	var export contentExport
	if err := json.Unmarshal(data, &export); err != nil {
		return fmt.Errorf("failed to parse content file %s: %w", path, err)
	}

	for _, item := range export.Items {
		if err := st.ImportItem(ctx, item); err != nil {
			return fmt.Errorf("failed to import item %s: %w", item.ID, err)
		}
	}
	for _, unit := range export.Units {
		if err := st.UpsertUnit(ctx, unit); err != nil {
			return fmt.Errorf("failed to import unit %s: %w", unit.ID, err)
		}
	}
	for _, q := range export.Questions {
		if err := st.UpsertQuestion(ctx, q); err != nil {
			return fmt.Errorf("failed to import question %s: %w", q.ID, err)
		}
	}
	return nil
}
