package qagate

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lexcraftlabs/glossgen/internal/genport"
	"github.com/lexcraftlabs/glossgen/internal/judge"
	"github.com/lexcraftlabs/glossgen/internal/store"
)

const instrumentationName = "github.com/lexcraftlabs/glossgen/internal/qagate"

// Config configures the engine.
type Config struct {
	// OracleConcurrency bounds concurrent oracle calls so the
	// answerability check shares the generation rate budget instead of
	// burst-limiting the provider.
	OracleConcurrency int
}

// DefaultConfig returns production defaults.
func DefaultConfig() *Config {
	return &Config{
		OracleConcurrency: 4,
	}
}

// Result is one gate run's outcome over a snapshot.
type Result struct {
	// Snapshot is the partition the run evaluated.
	Snapshot *store.Snapshot

	// Flags lists every defect, sorted by (item_type, item_id).
	Flags []Flag

	// Publishable maps each unit id in scope to its verdict: true only
	// when zero flags reference the unit.
	Publishable map[string]bool
}

// Engine runs the four consistency checks over one store partition.
type Engine struct {
	cfg       *Config
	store     store.Store
	generator genport.Generator
	judge     judge.Judge
	logger    *zap.Logger

	// Telemetry
	tracer      trace.Tracer
	meter       metric.Meter
	flagCounter metric.Int64Counter
	unitCounter metric.Int64Counter
}

// New creates an engine.
func New(cfg *Config, st store.Store, gen genport.Generator, j judge.Judge, logger *zap.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.OracleConcurrency <= 0 {
		return nil, errors.New("oracle concurrency must be positive")
	}
	if st == nil {
		return nil, errors.New("store is required")
	}
	if gen == nil {
		return nil, errors.New("generator is required")
	}
	if j == nil {
		return nil, errors.New("judge is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	e := &Engine{
		cfg:       cfg,
		store:     st,
		generator: gen,
		judge:     j,
		logger:    logger,
		tracer:    otel.Tracer(instrumentationName),
		meter:     otel.Meter(instrumentationName),
	}
	e.initMetrics()
	return e, nil
}

func (e *Engine) initMetrics() {
	var err error

	e.flagCounter, err = e.meter.Int64Counter(
		"glossgen.qagate.flags_total",
		metric.WithDescription("Flags raised by gate checks"),
		metric.WithUnit("{flag}"),
	)
	if err != nil {
		e.logger.Warn("failed to create flag counter", zap.Error(err))
	}

	e.unitCounter, err = e.meter.Int64Counter(
		"glossgen.qagate.units_total",
		metric.WithDescription("Units receiving a publishable verdict"),
		metric.WithUnit("{unit}"),
	)
	if err != nil {
		e.logger.Warn("failed to create unit counter", zap.Error(err))
	}
}

// Run snapshots the scoped partition, evaluates all four checks and
// writes each unit's publishable verdict back to the store. The checks
// run concurrently over the same immutable snapshot and never
// short-circuit: every record in scope is evaluated every run.
func (e *Engine) Run(ctx context.Context, scope store.Scope) (*Result, error) {
	ctx, span := e.tracer.Start(ctx, "qagate.run")
	defer span.End()
	span.SetAttributes(
		attribute.String("language", string(scope.Language)),
		attribute.String("level", scope.Level),
	)

	snap, err := e.store.Snapshot(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot store: %w", err)
	}

	var (
		presence    []Flag
		duplication []Flag
		links       []Flag
		answer      []Flag
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { presence = checkPresence(snap); return nil })
	g.Go(func() error { duplication = checkDuplication(snap); return nil })
	g.Go(func() error { links = checkLinks(snap); return nil })
	g.Go(func() error { answer = e.checkAnswerability(gctx, snap); return nil })
	// Checks never return errors; defects surface as flags.
	_ = g.Wait()

	flags := make([]Flag, 0, len(presence)+len(duplication)+len(links)+len(answer))
	flags = append(flags, presence...)
	flags = append(flags, duplication...)
	flags = append(flags, links...)
	flags = append(flags, answer...)
	sortFlags(flags)

	for _, f := range flags {
		if e.flagCounter != nil {
			e.flagCounter.Add(ctx, 1, metric.WithAttributes(
				attribute.String("kind", string(f.Kind)),
				attribute.String("language", string(scope.Language)),
			))
		}
	}

	result := &Result{Snapshot: snap, Flags: flags}
	result.Publishable = e.applyVerdicts(ctx, snap, flags)

	e.logger.Info("gate run finished",
		zap.String("language", string(scope.Language)),
		zap.String("level", scope.Level),
		zap.Int("items", len(snap.Items)),
		zap.Int("units", len(snap.Units)),
		zap.Int("questions", len(snap.Questions)),
		zap.Int("flags", len(flags)),
	)
	return result, nil
}

// applyVerdicts computes and persists each unit's publishable flag.
func (e *Engine) applyVerdicts(ctx context.Context, snap *store.Snapshot, flags []Flag) map[string]bool {
	blocked := make(map[string]struct{})
	for _, f := range flags {
		for _, unitID := range f.UnitIDs() {
			blocked[unitID] = struct{}{}
		}
	}

	verdicts := make(map[string]bool, len(snap.Units))
	for _, unit := range snap.Units {
		_, flagged := blocked[unit.ID]
		verdicts[unit.ID] = !flagged

		if err := e.store.SetPublishable(ctx, unit.ID, !flagged); err != nil {
			e.logger.Error("failed to set publishable flag",
				zap.String("unit_id", unit.ID),
				zap.Error(err))
		}
		if e.unitCounter != nil {
			e.unitCounter.Add(ctx, 1, metric.WithAttributes(
				attribute.Bool("publishable", !flagged),
			))
		}
	}
	return verdicts
}
