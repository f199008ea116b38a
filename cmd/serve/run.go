package serve

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/sig-0/feemeta/cmd/service"
	"github.com/sig-0/feemeta/metadata"
	"github.com/sig-0/feemeta/metrics"
	"github.com/sig-0/feemeta/server"
	"github.com/sig-0/feemeta/server/config"
	"github.com/sig-0/feemeta/storage"
)

// newLogger creates the serve logger
func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

// run serves the metadata API over the given storage [BLOCKING]
func (c *serveCfg) run(
	ctx context.Context,
	cfg *config.Config,
	store storage.Storage,
	logger *slog.Logger,
) error {
	// Set up the metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// Create the metadata service
	metadataService, err := service.New(
		store,
		c.Adapters(cfg.Metadata, logger),
		cfg.Metadata,
		logger,
		metadata.WithMetrics(metrics.New(registry)),
	)
	if err != nil {
		return err
	}

	// Create the server instance
	s, err := server.New(
		metadataService,
		server.WithLogger(logger),
		server.WithConfig(cfg),
		server.WithGatherer(registry),
	)
	if err != nil {
		return fmt.Errorf("unable to create server, %w", err)
	}

	runCtx, cancelFn := signal.NotifyContext(
		ctx,
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer cancelFn()

	group, gCtx := errgroup.WithContext(runCtx)

	// Start the HTTP server
	group.Go(func() error {
		return s.Serve(gCtx)
	})

	// Warm up the cache, without blocking the server
	if c.warmup {
		go func() {
			if _, err := metadataService.Snapshot(gCtx); err != nil {
				logger.Warn(
					"unable to warm up the metadata cache",
					"err", err,
				)
			}
		}()
	}

	return group.Wait()
}
