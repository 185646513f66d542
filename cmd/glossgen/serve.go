package main

import (
	"errors"
	"net/http"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lexcraftlabs/glossgen/internal/server"
	"github.com/lexcraftlabs/glossgen/internal/watch"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Watch a seed drop directory and serve reports over HTTP",
	Long: `Serve runs glossgen as a long-lived process: seed files dropped into
the watch directory are enriched as they arrive, and validation
reports, the manual review backlog, health and Prometheus metrics are
exposed over HTTP.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	watcher, err := watch.New(a.cfg.Paths.WatchDir, a.logger)
	if err != nil {
		return err
	}
	defer watcher.Stop()
	if err := watcher.Start(ctx); err != nil {
		return err
	}

	go func() {
		for path := range watcher.Files() {
			batchID := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			items, err := readSeeds(path)
			if err != nil {
				a.logger.Error("skipping seed file",
					zap.String("path", path),
					zap.Error(err))
				continue
			}
			summary, err := enrichBatch(ctx, a, batchID, items)
			if err != nil {
				a.logger.Error("enrichment batch failed",
					zap.String("batch_id", batchID),
					zap.Error(err))
				continue
			}
			a.logger.Info("seed file enriched",
				zap.String("batch_id", batchID),
				zap.Int("succeeded", summary.Succeeded),
				zap.Int("manual_review", summary.ManualReview),
				zap.Int("skipped", summary.Skipped))
		}
	}()

	srv, err := server.New(a.cfg.Server, a.reports, a.reviews, a.logger)
	if err != nil {
		return err
	}
	if err := srv.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
