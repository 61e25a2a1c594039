// Command worker runs the enrichment workers and the periodic reconcile sweep without the HTTP API.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"github.com/supportai/tickethub/internal/config"
	"github.com/supportai/tickethub/internal/inference"
	"github.com/supportai/tickethub/internal/observability"
	"github.com/supportai/tickethub/internal/repository"
	"github.com/supportai/tickethub/internal/workers"
	"github.com/supportai/tickethub/pkg/database"
)

const serviceName = "tickethub-worker"

var errRiverStopped = errors.New("river client stopped unexpectedly")

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)

		return 1
	}

	slog.SetDefault(slog.New(observability.NewLogHandler(os.Stdout, cfg.LogFormat, observability.ParseLevel(cfg.LogLevel))))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Workers export by push only; a prometheus exporter would have no listener here.
	if cfg.MetricsExporter == config.MetricsExporterPrometheus {
		cfg.MetricsExporter = config.MetricsExporterNone
	}

	meterProvider, _, err := observability.NewMeterProvider(cfg, serviceName)
	if err != nil {
		slog.Error("Failed to create meter provider", "error", err)

		return 1
	}

	defer func() {
		if err := observability.ShutdownMeterProvider(context.Background(), meterProvider); err != nil {
			slog.Error("shutdown meter provider", "error", err)
		}
	}()

	metrics := &observability.Metrics{}

	if meterProvider != nil {
		otel.SetMeterProvider(meterProvider)

		metrics, err = observability.NewMetrics(meterProvider.Meter(observability.MeterScope))
		if err != nil {
			slog.Error("Failed to create metrics", "error", err)

			return 1
		}
	}

	db, err := database.NewPostgresPool(ctx, cfg.DatabaseURL,
		database.WithApplicationName(serviceName),
		database.WithMaxConns(int32(min(cfg.EnrichmentWorkerCount+4, 64))), //nolint:gosec // bounded above
	)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)

		return 1
	}
	defer db.Close()

	provider, err := inference.NewProvider(ctx, cfg)
	if err != nil {
		slog.Error("Failed to create inference provider", "error", err)

		return 1
	}

	ticketsRepo := repository.NewTicketsRepository(db)
	deadLettersRepo := repository.NewDeadLettersRepository(db)

	client, err := workers.NewClient(db, cfg, workers.ClientDeps{
		Results:     repository.NewEnrichmentResultsRepository(db),
		DeadLetters: deadLettersRepo,
		Tickets:     ticketsRepo,
		Harvester:   deadLettersRepo,
		Provider:    inference.NewInstrumented(provider, metrics.Enrichment),
		Metrics:     metrics.Enrichment,
	})
	if err != nil {
		slog.Error("Failed to create River client", "error", err)

		return 1
	}

	if err := client.Start(context.WithoutCancel(ctx)); err != nil {
		slog.Error("Failed to start River", "error", err)

		return 1
	}

	slog.Info("enrichment workers started",
		"workers", cfg.EnrichmentWorkerCount,
		"max_attempts", cfg.EnrichmentMaxAttempts,
		"provider", cfg.InferenceProvider,
	)

	g, gctx := errgroup.WithContext(ctx)

	if metrics.Queue != nil {
		g.Go(func() error {
			workers.RunQueueDepthPoller(gctx, db, metrics.Queue, cfg.QueueDepthPollInterval)

			return nil
		})
	}

	g.Go(func() error {
		select {
		case <-gctx.Done():
			return nil
		case <-client.Stopped():
			return errRiverStopped
		}
	})

	exitCode := 0

	if err := g.Wait(); err != nil {
		slog.Error("Worker stopped with error", "error", err)

		exitCode = 1
	}

	slog.Info("Stopping workers", "timeout", cfg.ShutdownTimeout)

	stopCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := client.Stop(stopCtx); err != nil {
		slog.Error("River did not stop cleanly; unfinished jobs will be rescued", "error", err)

		return 1
	}

	slog.Info("Workers stopped")

	return exitCode
}
