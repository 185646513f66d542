package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexcraftlabs/glossgen/internal/catalog"
	"github.com/lexcraftlabs/glossgen/internal/checkpoint"
	"github.com/lexcraftlabs/glossgen/internal/genport"
	"github.com/lexcraftlabs/glossgen/internal/review"
	"github.com/lexcraftlabs/glossgen/internal/store"
	"github.com/lexcraftlabs/glossgen/internal/validate"
)

// scriptedGenerator replays a fixed sequence of outcomes per seed target.
type scriptedGenerator struct {
	mu      sync.Mutex
	scripts map[string][]scriptStep
	calls   map[string][]genport.Request
}

type scriptStep struct {
	raw json.RawMessage
	err error
}

func newScriptedGenerator() *scriptedGenerator {
	return &scriptedGenerator{
		scripts: make(map[string][]scriptStep),
		calls:   make(map[string][]genport.Request),
	}
}

func (g *scriptedGenerator) script(target string, steps ...scriptStep) {
	g.scripts[target] = steps
}

func (g *scriptedGenerator) Generate(ctx context.Context, req genport.Request) (json.RawMessage, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for target, steps := range g.scripts {
		if !strings.Contains(req.Prompt, "Seed item: "+target+"\n") {
			continue
		}
		g.calls[target] = append(g.calls[target], req)
		idx := len(g.calls[target]) - 1
		if idx >= len(steps) {
			idx = len(steps) - 1
		}
		step := steps[idx]
		return step.raw, step.err
	}
	return nil, fmt.Errorf("no script for prompt %q", req.Prompt)
}

func (g *scriptedGenerator) callsFor(target string) []genport.Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]genport.Request(nil), g.calls[target]...)
}

// memCheckpoint is an in-memory checkpoint for tests.
type memCheckpoint struct {
	mu      sync.Mutex
	records map[string]checkpoint.Record
}

func newMemCheckpoint() *memCheckpoint {
	return &memCheckpoint{records: make(map[string]checkpoint.Record)}
}

func (c *memCheckpoint) Done(itemKey string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.records[itemKey]
	return ok
}

func (c *memCheckpoint) MarkDone(itemKey string, state checkpoint.TerminalState, attempts int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records[itemKey] = checkpoint.Record{ItemKey: itemKey, State: state, Attempts: attempts}
	return nil
}

func (c *memCheckpoint) Records() map[string]checkpoint.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]checkpoint.Record, len(c.records))
	for k, v := range c.records {
		out[k] = v
	}
	return out
}

func (c *memCheckpoint) Flush() error { return nil }

func goodCandidate(target string) json.RawMessage {
	item := catalog.LearningItem{
		Language:     "zh",
		Category:     catalog.CategoryVocabulary,
		TargetItem:   target,
		Definition:   "definition of " + target,
		Examples:     []string{"例一。", "例二。", "例三。"},
		Romanization: "pinyin",
		LevelSystem:  "hsk",
		LevelMin:     "HSK2",
		LevelMax:     "HSK3",
	}
	b, _ := json.Marshal(item)
	return b
}

func badCandidate(target string) json.RawMessage {
	// Missing romanization: fails the zh business rule.
	item := catalog.LearningItem{
		Language:    "zh",
		Category:    catalog.CategoryVocabulary,
		TargetItem:  target,
		Definition:  "definition of " + target,
		Examples:    []string{"例一。", "例二。", "例三。"},
		LevelSystem: "hsk",
		LevelMin:    "HSK2",
		LevelMax:    "HSK3",
	}
	b, _ := json.Marshal(item)
	return b
}

func zhSeed(target string) SourceItem {
	return SourceItem{
		Language:    "zh",
		Category:    catalog.CategoryVocabulary,
		TargetItem:  target,
		LevelSystem: "hsk",
	}
}

func newTestOrchestrator(t *testing.T, gen genport.Generator, st store.Store, sink review.Sink) *Orchestrator {
	t.Helper()
	o, err := New(DefaultConfig(), gen, validate.New(validate.Limits{}), st, sink, nil)
	require.NoError(t, err)
	return o
}

func TestNew_Validation(t *testing.T) {
	gen := newScriptedGenerator()
	st := store.NewMemory()
	sink := review.NewMemorySink()
	v := validate.New(validate.Limits{})

	_, err := New(DefaultConfig(), nil, v, st, sink, nil)
	assert.ErrorContains(t, err, "generator is required")

	_, err = New(&Config{Concurrency: 0, MaxAttempts: 3}, gen, v, st, sink, nil)
	assert.ErrorContains(t, err, "concurrency must be positive")
}

func TestRun_FirstAttemptSuccess(t *testing.T) {
	gen := newScriptedGenerator()
	gen.script("银行", scriptStep{raw: goodCandidate("银行")})
	st := store.NewMemory()
	sink := review.NewMemorySink()
	o := newTestOrchestrator(t, gen, st, sink)

	summary, results, err := o.Run(context.Background(), "b1", []SourceItem{zhSeed("银行")}, newMemCheckpoint())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Zero(t, summary.ManualReview)

	require.Len(t, results, 1)
	require.Equal(t, StateSucceeded, results[0].State)
	require.NotNil(t, results[0].Item)
	assert.NotEmpty(t, results[0].Item.Romanization)
	assert.Empty(t, sink.Entries())

	stored, err := st.GetItem(context.Background(), results[0].Item.ID)
	require.NoError(t, err)
	assert.Equal(t, "银行", stored.TargetItem)
}

func TestRun_RetryBoundExhausted(t *testing.T) {
	gen := newScriptedGenerator()
	gen.script("不", scriptStep{raw: badCandidate("不")}) // always invalid
	st := store.NewMemory()
	sink := review.NewMemorySink()
	o := newTestOrchestrator(t, gen, st, sink)

	_, results, err := o.Run(context.Background(), "b1", []SourceItem{zhSeed("不")}, newMemCheckpoint())
	require.NoError(t, err)

	// Exactly 3 generation attempts, then exactly one review entry with
	// all three violations recorded.
	assert.Len(t, gen.callsFor("不"), 3)
	require.Len(t, results, 1)
	assert.Equal(t, StateManualReview, results[0].State)
	assert.Len(t, results[0].Attempts, 3)

	entries := sink.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, 3, entries[0].Attempts)
	assert.Len(t, entries[0].AttemptErrors, 3)
	assert.Contains(t, entries[0].LastError, "romanization")
	assert.NotEmpty(t, entries[0].LastCandidate)

	// The failed item never reaches the store.
	snap, err := st.Snapshot(context.Background(), store.Scope{Language: "zh"})
	require.NoError(t, err)
	assert.Empty(t, snap.Items)
}

func TestRun_CorrectiveFeedbackThreaded(t *testing.T) {
	gen := newScriptedGenerator()
	gen.script("银行",
		scriptStep{raw: badCandidate("银行")},
		scriptStep{raw: goodCandidate("银行")},
	)
	o := newTestOrchestrator(t, gen, store.NewMemory(), review.NewMemorySink())

	_, results, err := o.Run(context.Background(), "b1", []SourceItem{zhSeed("银行")}, newMemCheckpoint())
	require.NoError(t, err)
	require.Equal(t, StateSucceeded, results[0].State)
	assert.Len(t, results[0].Attempts, 2)

	calls := gen.callsFor("银行")
	require.Len(t, calls, 2)
	assert.NotContains(t, calls[0].Prompt, "previous attempts were rejected")
	assert.Contains(t, calls[1].Prompt, "previous attempts were rejected")
	assert.Contains(t, calls[1].Prompt, "romanization", "violations are threaded into the retry prompt")
}

func TestRun_TransportFailuresShareBudget(t *testing.T) {
	gen := newScriptedGenerator()
	gen.script("银行",
		scriptStep{err: &genport.GenerationError{Kind: genport.FailureRateLimited, Err: errors.New("429")}},
		scriptStep{err: &genport.GenerationError{Kind: genport.FailureTimeout, Err: errors.New("deadline")}},
		scriptStep{raw: badCandidate("银行")},
	)
	sink := review.NewMemorySink()
	o := newTestOrchestrator(t, gen, store.NewMemory(), sink)

	_, results, err := o.Run(context.Background(), "b1", []SourceItem{zhSeed("银行")}, newMemCheckpoint())
	require.NoError(t, err)

	// Two transport failures plus one rule failure exhaust the shared
	// 3-attempt budget; no fourth call happens.
	assert.Len(t, gen.callsFor("银行"), 3)
	assert.Equal(t, StateManualReview, results[0].State)

	entries := sink.Entries()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].AttemptErrors[0], "rate_limited")
	assert.Contains(t, entries[0].AttemptErrors[1], "timeout")
}

func TestRun_MalformedCandidateRetries(t *testing.T) {
	gen := newScriptedGenerator()
	gen.script("银行",
		scriptStep{raw: json.RawMessage(`["not","an","object"]`)},
		scriptStep{raw: goodCandidate("银行")},
	)
	o := newTestOrchestrator(t, gen, store.NewMemory(), review.NewMemorySink())

	_, results, err := o.Run(context.Background(), "b1", []SourceItem{zhSeed("银行")}, newMemCheckpoint())
	require.NoError(t, err)
	assert.Equal(t, StateSucceeded, results[0].State)
	assert.Len(t, results[0].Attempts, 2)
}

func TestRun_ScenarioMixedBatch(t *testing.T) {
	gen := newScriptedGenerator()
	var items []SourceItem

	for i := 0; i < 7; i++ {
		target := fmt.Sprintf("好%d", i)
		gen.script(target, scriptStep{raw: goodCandidate(target)})
		items = append(items, zhSeed(target))
	}
	for i := 0; i < 2; i++ {
		target := fmt.Sprintf("慢%d", i)
		gen.script(target,
			scriptStep{raw: badCandidate(target)},
			scriptStep{raw: goodCandidate(target)},
		)
		items = append(items, zhSeed(target))
	}
	gen.script("败", scriptStep{raw: badCandidate("败")})
	items = append(items, zhSeed("败"))

	sink := review.NewMemorySink()
	o := newTestOrchestrator(t, gen, store.NewMemory(), sink)

	summary, _, err := o.Run(context.Background(), "b1", items, newMemCheckpoint())
	require.NoError(t, err)

	assert.Equal(t, 10, summary.Processed)
	assert.Equal(t, 9, summary.Succeeded)
	assert.Equal(t, 1, summary.ManualReview)

	entries := sink.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, 3, entries[0].Attempts)
}

func TestRun_CheckpointSkipsCompletedItems(t *testing.T) {
	gen := newScriptedGenerator()
	gen.script("银行", scriptStep{raw: goodCandidate("银行")})
	gen.script("学校", scriptStep{raw: goodCandidate("学校")})
	o := newTestOrchestrator(t, gen, store.NewMemory(), review.NewMemorySink())

	ckpt := newMemCheckpoint()
	seed := zhSeed("银行")
	require.NoError(t, ckpt.MarkDone(seed.Key(), checkpoint.StateSucceeded, 1))

	summary, _, err := o.Run(context.Background(), "b1", []SourceItem{seed, zhSeed("学校")}, ckpt)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 1, summary.Processed)
	assert.Empty(t, gen.callsFor("银行"), "completed items are not regenerated")
	assert.Len(t, gen.callsFor("学校"), 1)
}

func TestRun_MarksTerminalStatesInCheckpoint(t *testing.T) {
	gen := newScriptedGenerator()
	gen.script("银行", scriptStep{raw: goodCandidate("银行")})
	gen.script("败", scriptStep{raw: badCandidate("败")})
	o := newTestOrchestrator(t, gen, store.NewMemory(), review.NewMemorySink())

	ckpt := newMemCheckpoint()
	_, _, err := o.Run(context.Background(), "b1", []SourceItem{zhSeed("银行"), zhSeed("败")}, ckpt)
	require.NoError(t, err)

	records := ckpt.Records()
	assert.Equal(t, checkpoint.StateSucceeded, records[zhSeed("银行").Key()].State)
	assert.Equal(t, checkpoint.StateManualReview, records[zhSeed("败").Key()].State)
	assert.Equal(t, 3, records[zhSeed("败").Key()].Attempts)
}

func TestSourceItemKey_Normalizes(t *testing.T) {
	// Key must be callable on any SourceItem expression, including
	// function results, and normalize case and interior whitespace.
	assert.Equal(t, "zh|vocabulary|银行", zhSeed("银行").Key())

	seed := zhSeed("  El  Banco ")
	assert.Equal(t, "zh|vocabulary|el banco", seed.Key())
	assert.Equal(t, zhSeed("El Banco").Key(), seed.Key())
}

func TestStateTerminal(t *testing.T) {
	assert.True(t, StateSucceeded.Terminal())
	assert.True(t, StateManualReview.Terminal())
	assert.False(t, StateRetryPending.Terminal())
	assert.False(t, StateGenerating.Terminal())
}
