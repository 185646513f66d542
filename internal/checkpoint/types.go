package checkpoint

import (
	"time"
)

// TerminalState is the resting state of a completed item.
type TerminalState string

const (
	// StateSucceeded means the item was validated and upserted.
	StateSucceeded TerminalState = "succeeded"

	// StateManualReview means the item exhausted retries and was routed
	// to the manual review sink.
	StateManualReview TerminalState = "manual_review"
)

// Record marks one item key as done.
type Record struct {
	// ItemKey is the normalized identity key of the source item.
	ItemKey string `json:"item_key"`

	// State is the terminal state the item reached.
	State TerminalState `json:"state"`

	// Attempts is how many generation attempts the item consumed.
	Attempts int `json:"attempts"`

	// CompletedAt is when the item reached its terminal state.
	CompletedAt time.Time `json:"completed_at"`
}

// Batch is the persisted checkpoint for one batch run.
type Batch struct {
	// BatchID identifies the batch this checkpoint belongs to.
	BatchID string `json:"batch_id"`

	// Records maps item key to its completion record.
	Records map[string]Record `json:"records"`

	// UpdatedAt is when the checkpoint was last flushed.
	UpdatedAt time.Time `json:"updated_at"`
}
