package enrich

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lexcraftlabs/glossgen/internal/catalog"
	"github.com/lexcraftlabs/glossgen/internal/checkpoint"
	"github.com/lexcraftlabs/glossgen/internal/genport"
	"github.com/lexcraftlabs/glossgen/internal/review"
	"github.com/lexcraftlabs/glossgen/internal/store"
	"github.com/lexcraftlabs/glossgen/internal/validate"
)

const instrumentationName = "github.com/lexcraftlabs/glossgen/internal/enrich"

// Config configures the orchestrator.
type Config struct {
	// Concurrency bounds the worker pool. Kept small by default to
	// respect provider rate limits.
	Concurrency int

	// MaxAttempts is the shared retry budget per item, covering
	// transport failures and rule violations alike.
	MaxAttempts int

	// GenerateTimeout bounds each generation call.
	GenerateTimeout time.Duration
}

// DefaultConfig returns production defaults.
func DefaultConfig() *Config {
	return &Config{
		Concurrency:     4,
		MaxAttempts:     3,
		GenerateTimeout: 60 * time.Second,
	}
}

// Orchestrator runs enrichment batches.
type Orchestrator struct {
	config    *Config
	generator genport.Generator
	validator *validate.Validator
	store     store.Store
	sink      review.Sink
	logger    *zap.Logger

	// Telemetry
	tracer         trace.Tracer
	meter          metric.Meter
	itemCounter    metric.Int64Counter
	attemptCounter metric.Int64Counter
}

// New creates an orchestrator.
func New(cfg *Config, gen genport.Generator, v *validate.Validator, st store.Store, sink review.Sink, logger *zap.Logger) (*Orchestrator, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Concurrency <= 0 {
		return nil, errors.New("concurrency must be positive")
	}
	if cfg.MaxAttempts <= 0 {
		return nil, errors.New("max attempts must be positive")
	}
	if gen == nil {
		return nil, errors.New("generator is required")
	}
	if v == nil {
		return nil, errors.New("validator is required")
	}
	if st == nil {
		return nil, errors.New("store is required")
	}
	if sink == nil {
		return nil, errors.New("review sink is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	o := &Orchestrator{
		config:    cfg,
		generator: gen,
		validator: v,
		store:     st,
		sink:      sink,
		logger:    logger,
		tracer:    otel.Tracer(instrumentationName),
		meter:     otel.Meter(instrumentationName),
	}
	o.initMetrics()
	return o, nil
}

func (o *Orchestrator) initMetrics() {
	var err error

	o.itemCounter, err = o.meter.Int64Counter(
		"glossgen.enrich.items_total",
		metric.WithDescription("Items reaching a terminal state"),
		metric.WithUnit("{item}"),
	)
	if err != nil {
		o.logger.Warn("failed to create item counter", zap.Error(err))
	}

	o.attemptCounter, err = o.meter.Int64Counter(
		"glossgen.enrich.attempts_total",
		metric.WithDescription("Generation attempts"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		o.logger.Warn("failed to create attempt counter", zap.Error(err))
	}
}

// Run processes a batch. Items already recorded in the checkpoint are
// skipped; everything else runs to a terminal state. Cancelling ctx stops
// scheduling new items but lets in-flight items finish, so the store
// never rests in a non-terminal state. The returned summary counts every
// item; Run only errors on setup problems, never on item failures.
func (o *Orchestrator) Run(ctx context.Context, batchID string, items []SourceItem, ckpt checkpoint.Service) (*Summary, []ItemResult, error) {
	if batchID == "" {
		return nil, nil, errors.New("batch id is required")
	}
	if ckpt == nil {
		return nil, nil, errors.New("checkpoint is required")
	}

	ctx, span := o.tracer.Start(ctx, "enrich.run")
	defer span.End()
	span.SetAttributes(
		attribute.String("batch_id", batchID),
		attribute.Int("item_count", len(items)),
	)

	summary := &Summary{BatchID: batchID}
	results := make([]ItemResult, 0, len(items))

	var mu sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(o.config.Concurrency)

	for _, item := range items {
		item := item
		key := item.Key()
		if ckpt.Done(key) {
			mu.Lock()
			summary.Skipped++
			mu.Unlock()
			continue
		}
		if ctx.Err() != nil {
			break
		}

		g.Go(func() error {
			// In-flight items run to a terminal state even after a
			// batch-level cancel.
			itemCtx := context.WithoutCancel(ctx)
			result := o.processItem(itemCtx, item)

			state := checkpoint.StateSucceeded
			if result.State == StateManualReview {
				state = checkpoint.StateManualReview
			}
			if err := ckpt.MarkDone(key, state, len(result.Attempts)); err != nil {
				o.logger.Warn("failed to checkpoint item", zap.String("item_key", key), zap.Error(err))
			}

			mu.Lock()
			defer mu.Unlock()
			summary.Processed++
			if result.State == StateSucceeded {
				summary.Succeeded++
			} else {
				summary.ManualReview++
			}
			results = append(results, result)
			return nil
		})
	}

	// Workers never return errors; partial failure is steady state.
	_ = g.Wait()

	if ctx.Err() != nil {
		span.SetStatus(codes.Error, "batch cancelled")
	}

	o.logger.Info("batch finished",
		zap.String("batch_id", batchID),
		zap.Int("processed", summary.Processed),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("manual_review", summary.ManualReview),
		zap.Int("skipped", summary.Skipped),
	)
	return summary, results, nil
}

// processItem drives one item's state machine to a terminal state.
func (o *Orchestrator) processItem(ctx context.Context, source SourceItem) ItemResult {
	ctx, span := o.tracer.Start(ctx, "enrich.item")
	defer span.End()
	span.SetAttributes(
		attribute.String("item_key", source.Key()),
		attribute.String("language", string(source.Language)),
	)

	result := ItemResult{Source: source, State: StatePending}
	vctx := validate.Context{
		Language:    source.Language,
		Category:    source.Category,
		LevelSystem: source.LevelSystem,
	}

	var feedback []string
	for attemptNo := 1; attemptNo <= o.config.MaxAttempts; attemptNo++ {
		result.State = StateGenerating
		attempt := Attempt{Number: attemptNo}

		genCtx, cancel := context.WithTimeout(ctx, o.config.GenerateTimeout)
		raw, err := o.generator.Generate(genCtx, buildRequest(source, feedback))
		cancel()

		if o.attemptCounter != nil {
			o.attemptCounter.Add(ctx, 1, metric.WithAttributes(
				attribute.String("language", string(source.Language)),
			))
		}

		if err != nil {
			// Timeouts, rate limits and malformed output all consume
			// the same shared budget.
			attempt.TransportError = transportReason(err)
			result.Attempts = append(result.Attempts, attempt)
			feedback = append(feedback, attempt.reason())
			result.State = StateRetryPending
			continue
		}

		result.State = StateValidating
		candidate, err := decodeCandidate(raw)
		if err != nil {
			attempt.TransportError = transportReason(err)
			attempt.Candidate = raw
			result.Attempts = append(result.Attempts, attempt)
			feedback = append(feedback, attempt.reason())
			result.State = StateRetryPending
			continue
		}

		res := o.validator.Validate(candidate, vctx)
		if !res.Valid() {
			attempt.Violations = res.Violations
			attempt.Candidate = raw
			result.Attempts = append(result.Attempts, attempt)
			feedback = append(feedback, attempt.reason())
			result.State = StateRetryPending
			continue
		}

		stored, err := o.store.UpsertItem(ctx, candidate)
		if err != nil {
			attempt.TransportError = fmt.Sprintf("store upsert failed: %v", err)
			result.Attempts = append(result.Attempts, attempt)
			feedback = append(feedback, attempt.reason())
			result.State = StateRetryPending
			continue
		}

		result.Attempts = append(result.Attempts, attempt)
		result.State = StateSucceeded
		result.Item = stored
		o.countTerminal(ctx, result)
		o.logger.Debug("item enriched",
			zap.String("item_key", source.Key()),
			zap.String("item_id", stored.ID),
			zap.Int("attempts", attemptNo),
		)
		return result
	}

	result.State = StateManualReview
	o.countTerminal(ctx, result)
	o.routeToReview(ctx, &result)
	return result
}

// routeToReview writes the manual review entry for an exhausted item.
// The item never reaches the content store.
func (o *Orchestrator) routeToReview(ctx context.Context, result *ItemResult) {
	entry := &catalog.ManualReviewEntry{
		ItemKey:       result.Source.Key(),
		Attempts:      len(result.Attempts),
		SourcePayload: result.Source.Payload(),
		RecordedAt:    time.Now(),
	}
	for _, a := range result.Attempts {
		entry.AttemptErrors = append(entry.AttemptErrors, a.reason())
		if len(a.Candidate) > 0 {
			entry.LastCandidate = string(a.Candidate)
		}
	}
	if n := len(entry.AttemptErrors); n > 0 {
		entry.LastError = entry.AttemptErrors[n-1]
	}

	if err := o.sink.Append(ctx, entry); err != nil {
		o.logger.Error("failed to append manual review entry",
			zap.String("item_key", entry.ItemKey),
			zap.Error(err),
		)
	}
}

func (o *Orchestrator) countTerminal(ctx context.Context, result ItemResult) {
	if o.itemCounter == nil {
		return
	}
	o.itemCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("state", string(result.State)),
		attribute.String("language", string(result.Source.Language)),
	))
}

// transportReason renders a generation failure for the retry prompt and
// review record. Typed failures already carry their kind.
func transportReason(err error) string {
	return err.Error()
}
