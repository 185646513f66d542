package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/lexcraftlabs/glossgen/internal/config"
	"github.com/lexcraftlabs/glossgen/internal/events"
	"github.com/lexcraftlabs/glossgen/internal/genport"
	"github.com/lexcraftlabs/glossgen/internal/judge"
	"github.com/lexcraftlabs/glossgen/internal/logging"
	"github.com/lexcraftlabs/glossgen/internal/report"
	"github.com/lexcraftlabs/glossgen/internal/review"
	"github.com/lexcraftlabs/glossgen/internal/store"
	"github.com/lexcraftlabs/glossgen/internal/telemetry"
)

// app holds the wired dependencies shared by the commands.
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	tel       *telemetry.Telemetry
	generator genport.Generator
	store     *store.Memory
	reviews   *review.FileSink
	reports   *report.FileStore
	events    events.Publisher
}

// newApp loads config and builds the dependency graph. Call close when
// done.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	tel, err := telemetry.New(ctx, cfg.Telemetry, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	logger, err := logging.New(cfg.Logging, tel.LoggerProvider())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	generator, err := genport.NewClient(genport.Config{
		BaseURL:           cfg.Generation.BaseURL,
		Model:             cfg.Generation.Model,
		APIKey:            cfg.Generation.APIKey.Value(),
		Timeout:           cfg.Generation.Timeout.Duration(),
		RequestsPerSecond: cfg.Generation.RequestsPerMinute / 60.0,
		Burst:             cfg.Generation.Burst,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create generation client: %w", err)
	}

	reviews, err := review.NewFileSink(cfg.Paths.ReviewFile, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open review sink: %w", err)
	}

	reports, err := report.NewFileStore(cfg.Paths.ReportDir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open report store: %w", err)
	}

	publisher, err := events.New(cfg.Events, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create event publisher: %w", err)
	}

	return &app{
		cfg:       cfg,
		logger:    logger,
		tel:       tel,
		generator: generator,
		store:     store.NewMemory(),
		reviews:   reviews,
		reports:   reports,
		events:    publisher,
	}, nil
}

// judge builds the configured answer comparison strategy.
func (a *app) judge() (judge.Judge, error) {
	switch a.cfg.Gate.Judge {
	case "embedding":
		return judge.NewOpenAIEmbeddingJudge(judge.EmbeddingConfig{
			BaseURL:   a.cfg.Generation.BaseURL,
			Model:     a.cfg.Gate.EmbeddingModel,
			APIKey:    a.cfg.Generation.APIKey.Value(),
			Threshold: a.cfg.Gate.EmbeddingThreshold,
		})
	default:
		return judge.NewLLMJudge(a.generator), nil
	}
}

func (a *app) close(ctx context.Context) {
	a.events.Close()
	if err := a.reviews.Close(); err != nil {
		a.logger.Warn("failed to close review sink", zap.Error(err))
	}
	if err := a.tel.Shutdown(ctx); err != nil {
		a.logger.Warn("telemetry shutdown failed", zap.Error(err))
	}
	_ = logging.Sync(a.logger)
}
