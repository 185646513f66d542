package enrich

import (
	"encoding/json"
	"strings"

	"github.com/lexcraftlabs/glossgen/internal/catalog"
	"github.com/lexcraftlabs/glossgen/internal/validate"
)

// State is the lifecycle state of one item's enrichment.
type State string

const (
	StatePending      State = "pending"
	StateGenerating   State = "generating"
	StateValidating   State = "validating"
	StateRetryPending State = "retry_pending"
	StateSucceeded    State = "succeeded"
	StateManualReview State = "manual_review"
)

// Terminal reports whether the state is a resting state.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateManualReview
}

// SourceItem is one raw seed handed to the orchestrator.
type SourceItem struct {
	// Language and Category scope the item.
	Language catalog.Language `json:"language"`
	Category catalog.Category `json:"category"`

	// TargetItem is the seed word or pattern to enrich.
	TargetItem string `json:"target_item"`

	// LevelSystem names the proficiency scale for the item's levels.
	LevelSystem string `json:"level_system"`

	// Hint is optional guidance carried into the prompt (a known sense,
	// register notes, a curriculum tag).
	Hint string `json:"hint,omitempty"`
}

// Key is the checkpoint/review identity of the seed, normalized the same
// way as learning item keys so restarts and dedup line up.
func (s SourceItem) Key() string {
	target := strings.Join(strings.Fields(strings.ToLower(s.TargetItem)), " ")
	return strings.Join([]string{string(s.Language), string(s.Category), target}, "|")
}

// Payload renders the seed as JSON for manual review records.
func (s SourceItem) Payload() string {
	b, err := json.Marshal(s)
	if err != nil {
		return s.TargetItem
	}
	return string(b)
}

// Attempt records one generation attempt.
type Attempt struct {
	// Number is the 1-based attempt index.
	Number int `json:"number"`

	// TransportError holds the generation-port failure, when the
	// attempt never produced a decodable candidate.
	TransportError string `json:"transport_error,omitempty"`

	// Violations holds rule failures for decodable candidates.
	Violations []validate.Violation `json:"violations,omitempty"`

	// Candidate is the raw candidate JSON, kept for the final attempt
	// so manual reviewers can see what the model last produced.
	Candidate json.RawMessage `json:"candidate,omitempty"`
}

// reason renders the attempt's failure for feedback and review records.
func (a Attempt) reason() string {
	if a.TransportError != "" {
		return a.TransportError
	}
	parts := make([]string, 0, len(a.Violations))
	for _, v := range a.Violations {
		parts = append(parts, v.String())
	}
	return strings.Join(parts, "; ")
}

// ItemResult is the terminal outcome for one source item.
type ItemResult struct {
	Source   SourceItem
	State    State
	Attempts []Attempt

	// Item is the stored learning item when State is Succeeded.
	Item *catalog.LearningItem
}

// Summary aggregates one batch run.
type Summary struct {
	BatchID      string `json:"batch_id"`
	Processed    int    `json:"processed"`
	Succeeded    int    `json:"succeeded"`
	ManualReview int    `json:"manual_review"`
	Skipped      int    `json:"skipped"`
}
