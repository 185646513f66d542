package genport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// FailureKind classifies a generation failure.
type FailureKind string

const (
	// FailureTimeout covers deadline hits and transport-level failures.
	FailureTimeout FailureKind = "timeout"

	// FailureRateLimited means the provider refused the call (429).
	FailureRateLimited FailureKind = "rate_limited"

	// FailureMalformed means the provider answered but the payload did
	// not decode into the requested shape.
	FailureMalformed FailureKind = "malformed"
)

// GenerationError is a typed generation failure.
type GenerationError struct {
	Kind FailureKind
	Err  error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed (%s): %v", e.Kind, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// KindOf extracts the failure kind from an error chain. The second return
// is false when the error is not a generation failure.
func KindOf(err error) (FailureKind, bool) {
	var ge *GenerationError
	if errors.As(err, &ge) {
		return ge.Kind, true
	}
	return "", false
}

// Request describes one structured generation call.
type Request struct {
	// System is the system prompt establishing the generator's role.
	System string

	// Prompt is the user-turn content, including any corrective
	// feedback from prior attempts.
	Prompt string

	// Shape describes the required JSON result shape, appended to the
	// system prompt verbatim.
	Shape string

	// Temperature defaults to the client's configured value when zero.
	Temperature float64

	// MaxTokens caps the completion length. Zero uses the client default.
	MaxTokens int
}

// Generator produces a structured candidate for a request.
type Generator interface {
	// Generate returns the candidate as raw JSON. Failures are
	// *GenerationError; everything else is a programming error.
	Generate(ctx context.Context, req Request) (json.RawMessage, error)
}
