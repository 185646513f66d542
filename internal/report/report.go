package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/lexcraftlabs/glossgen/internal/qagate"
)

// FlaggedItem is one defect entry in a validation report.
type FlaggedItem struct {
	ItemID       string `json:"item_id"`
	ItemType     string `json:"item_type"`
	FailureKind  string `json:"failure_kind"`
	Reason       string `json:"reason"`
	SuggestedFix string `json:"suggested_fix,omitempty"`
}

// SummaryStats aggregates a report's counts.
type SummaryStats struct {
	// PassRatePercent is passed/total, rounded to two decimals. 100
	// when the scope is empty.
	PassRatePercent float64 `json:"pass_rate_percent"`

	// FailureKindCounts counts flags per kind, only kinds present.
	FailureKindCounts map[string]int `json:"failure_kind_counts"`
}

// ValidationReport is the full outcome of one gate run over a scope.
type ValidationReport struct {
	BatchID      string        `json:"batch_id"`
	Language     string        `json:"language"`
	Level        string        `json:"level"`
	TotalItems   int           `json:"total_items"`
	PassedCount  int           `json:"passed_count"`
	FailedCount  int           `json:"failed_count"`
	FlaggedItems []FlaggedItem `json:"flagged_items"`
	SummaryStats SummaryStats  `json:"summary_stats"`
}

// Build derives a report from a gate result. Flags keep the engine's
// (item_type, item_id) order; a record flagged by several checks counts
// as one failed item.
func Build(batchID string, result *qagate.Result) (*ValidationReport, error) {
	if batchID == "" {
		return nil, errors.New("batch id is required")
	}
	if result == nil || result.Snapshot == nil {
		return nil, errors.New("gate result is required")
	}

	snap := result.Snapshot
	total := len(snap.Items) + len(snap.Units) + len(snap.Questions)

	flagged := make([]FlaggedItem, 0, len(result.Flags))
	failedRecords := make(map[string]struct{})
	kindCounts := make(map[string]int)
	for _, f := range result.Flags {
		flagged = append(flagged, FlaggedItem{
			ItemID:       f.ItemID,
			ItemType:     string(f.ItemType),
			FailureKind:  string(f.Kind),
			Reason:       f.Reason,
			SuggestedFix: f.SuggestedFix,
		})
		failedRecords[string(f.ItemType)+"/"+f.ItemID] = struct{}{}
		kindCounts[string(f.Kind)]++
	}

	failed := len(failedRecords)
	passed := total - failed
	if passed < 0 {
		passed = 0
	}

	rate := 100.0
	if total > 0 {
		rate = math.Round(float64(passed)/float64(total)*10000) / 100
	}

	return &ValidationReport{
		BatchID:      batchID,
		Language:     string(snap.Scope.Language),
		Level:        snap.Scope.Level,
		TotalItems:   total,
		PassedCount:  passed,
		FailedCount:  failed,
		FlaggedItems: flagged,
		SummaryStats: SummaryStats{
			PassRatePercent:   rate,
			FailureKindCounts: kindCounts,
		},
	}, nil
}

// Encode renders the report as indented JSON with a trailing newline.
// Map keys serialize sorted, so encoding is deterministic.
func (r *ValidationReport) Encode() ([]byte, error) {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	return append(b, '\n'), nil
}

// Kinds returns the failure kinds present in the report, sorted.
func (r *ValidationReport) Kinds() []string {
	kinds := make([]string, 0, len(r.SummaryStats.FailureKindCounts))
	for k := range r.SummaryStats.FailureKindCounts {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
