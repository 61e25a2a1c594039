package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/supportai/tickethub/internal/api/handlers"
	"github.com/supportai/tickethub/internal/api/middleware"
	"github.com/supportai/tickethub/internal/config"
	"github.com/supportai/tickethub/internal/inference"
	"github.com/supportai/tickethub/internal/jobs"
	"github.com/supportai/tickethub/internal/observability"
	"github.com/supportai/tickethub/internal/repository"
	"github.com/supportai/tickethub/internal/service"
	"github.com/supportai/tickethub/internal/workers"
)

const serviceName = "tickethub-api"

// App holds all server dependencies and coordinates startup and shutdown.
type App struct {
	cfg            *config.Config
	db             *pgxpool.Pool
	server         *http.Server
	river          *river.Client[pgx.Tx]
	runWorkers     bool
	meterProvider  *sdkmetric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	metrics        *observability.Metrics
}

// setupMetrics creates the meter provider and tickethub metrics. With the "none" exporter it
// returns an empty Metrics and a nil provider.
func setupMetrics(cfg *config.Config) (*sdkmetric.MeterProvider, http.Handler, *observability.Metrics, error) {
	mp, metricsHandler, err := observability.NewMeterProvider(cfg, serviceName)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create meter provider: %w", err)
	}

	if mp == nil {
		return nil, nil, &observability.Metrics{}, nil
	}

	metrics, err := observability.NewMetrics(mp.Meter(observability.MeterScope))
	if err != nil {
		if err2 := observability.ShutdownMeterProvider(context.Background(), mp); err2 != nil {
			slog.Error("shutdown meter provider after metrics error", "error", err2)
		}

		return nil, nil, nil, fmt.Errorf("create metrics: %w", err)
	}

	return mp, metricsHandler, metrics, nil
}

// NewApp builds and wires all components. It does not start the HTTP server or River;
// call Run to start and block until shutdown or failure.
func NewApp(ctx context.Context, cfg *config.Config, db *pgxpool.Pool) (*App, error) {
	meterProvider, metricsHandler, metrics, err := setupMetrics(cfg)
	if err != nil {
		return nil, err
	}

	tracerProvider, err := observability.NewTracerProvider(cfg, serviceName)
	if err != nil {
		if err2 := observability.ShutdownMeterProvider(context.Background(), meterProvider); err2 != nil {
			slog.Error("shutdown meter provider after tracer provider error", "error", err2)
		}

		return nil, fmt.Errorf("create tracer provider: %w", err)
	}

	if tracerProvider != nil {
		otel.SetTracerProvider(tracerProvider)
	}

	if meterProvider != nil {
		otel.SetMeterProvider(meterProvider)
	}

	app := &App{
		cfg:            cfg,
		db:             db,
		runWorkers:     cfg.WorkerEnabled,
		meterProvider:  meterProvider,
		tracerProvider: tracerProvider,
		metrics:        metrics,
	}

	ticketsRepo := repository.NewTicketsRepository(db)
	deadLettersRepo := repository.NewDeadLettersRepository(db)

	if cfg.WorkerEnabled {
		var provider inference.Provider

		provider, err = inference.NewProvider(ctx, cfg)
		if err != nil {
			app.shutdownObservability(context.Background())

			return nil, fmt.Errorf("create inference provider: %w", err)
		}

		app.river, err = workers.NewClient(db, cfg, workers.ClientDeps{
			Results:     repository.NewEnrichmentResultsRepository(db),
			DeadLetters: deadLettersRepo,
			Tickets:     ticketsRepo,
			Harvester:   deadLettersRepo,
			Provider:    inference.NewInstrumented(provider, metrics.Enrichment),
			Metrics:     metrics.Enrichment,
		})
	} else {
		app.river, err = workers.NewInsertOnlyClient(db)
	}

	if err != nil {
		app.shutdownObservability(context.Background())

		return nil, err
	}

	inserter := jobs.NewRetryingInserter(
		jobs.NewRiverJobInserter(app.river, cfg.EnrichmentMaxAttempts),
		jobs.RetryingInserterConfig{
			MaxRetries:     cfg.EnqueueMaxRetries,
			InitialBackoff: cfg.EnqueueInitialBackoff,
			MaxBackoff:     cfg.EnqueueMaxBackoff,
			Metrics:        metrics.Enrichment,
		},
	)

	statsCache, err := service.NewStatsCache(cfg.StatsCacheTTL, metrics.Cache)
	if err != nil {
		app.shutdownObservability(context.Background())

		return nil, err
	}

	ticketsService := service.NewTicketsService(ticketsRepo, inserter,
		service.WithStatsCache(statsCache),
		service.WithMetrics(metrics.Enrichment),
	)

	app.server = newHTTPServer(cfg, routes{
		health:         handlers.NewHealthHandler(db),
		tickets:        handlers.NewTicketsHandler(ticketsService),
		deadLetters:    handlers.NewDeadLettersHandler(deadLettersRepo),
		metricsHandler: metricsHandler,
	}, metrics.API, meterProvider, tracerProvider)

	return app, nil
}

type routes struct {
	health         *handlers.HealthHandler
	tickets        *handlers.TicketsHandler
	deadLetters    *handlers.DeadLettersHandler
	metricsHandler http.Handler
}

func newMux(r routes) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", r.health.Check)
	mux.HandleFunc("POST /requests", r.tickets.Create)
	mux.HandleFunc("GET /requests", r.tickets.List)
	mux.HandleFunc("GET /requests/{id}", r.tickets.Get)
	mux.HandleFunc("GET /stats", r.tickets.Stats)
	mux.HandleFunc("GET /dead-letters", r.deadLetters.List)

	if r.metricsHandler != nil {
		mux.Handle("GET /metrics", r.metricsHandler)
	}

	return mux
}

// newHTTPServer builds the HTTP server.
// Handler chain: RequestID -> Metrics -> otelhttp(Logging(MaxBody(mux))) so access logs get trace_id/span_id.
func newHTTPServer(
	cfg *config.Config,
	r routes,
	apiMetrics observability.APIMetrics,
	meterProvider *sdkmetric.MeterProvider,
	tracerProvider *sdktrace.TracerProvider,
) *http.Server {
	otelOpts := []otelhttp.Option{
		// Skip tracing for health checks and scrapes.
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/health" && r.URL.Path != "/metrics"
		}),
	}
	if meterProvider != nil {
		otelOpts = append(otelOpts, otelhttp.WithMeterProvider(meterProvider))
	}

	if tracerProvider != nil {
		otelOpts = append(otelOpts, otelhttp.WithTracerProvider(tracerProvider))
	}

	inner := middleware.Logging(middleware.MaxBody(cfg.MaxBodyBytes, apiMetrics)(newMux(r)))
	handler := otelhttp.NewHandler(inner, serviceName, otelOpts...)
	handler = middleware.Metrics(apiMetrics)(handler)
	handler = middleware.RequestID(handler)

	const (
		readTimeout  = 15 * time.Second
		writeTimeout = 15 * time.Second
		idleTimeout  = 60 * time.Second
	)

	return &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}
}

// Run starts the HTTP server and, when workers are enabled, River and the queue depth poller.
// It blocks until ctx is cancelled or the server fails. Caller should then call Shutdown.
func (a *App) Run(ctx context.Context) error {
	pollCtx, cancelPoll := context.WithCancel(ctx)
	defer cancelPoll()

	if a.runWorkers {
		// River is stopped gracefully by Shutdown, so it must outlive ctx.
		if err := a.river.Start(context.WithoutCancel(ctx)); err != nil {
			return fmt.Errorf("river: %w", err)
		}

		slog.Info("enrichment workers started",
			"workers", a.cfg.EnrichmentWorkerCount,
			"max_attempts", a.cfg.EnrichmentMaxAttempts,
			"provider", a.cfg.InferenceProvider,
		)

		if a.metrics.Queue != nil {
			go workers.RunQueueDepthPoller(pollCtx, a.db, a.metrics.Queue, a.cfg.QueueDepthPollInterval)
		}
	}

	runErr := make(chan error, 1)

	go func() {
		slog.Info("Starting server", "port", a.cfg.Port)

		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			runErr <- fmt.Errorf("server: %w", err)
		}
	}()

	select {
	case err := <-runErr:
		return err
	case <-ctx.Done():
		return nil
	}
}

func (a *App) shutdownObservability(ctx context.Context) {
	if err := observability.ShutdownTracerProvider(ctx, a.tracerProvider); err != nil {
		slog.Error("shutdown tracer provider", "error", err)
	}

	if err := observability.ShutdownMeterProvider(ctx, a.meterProvider); err != nil {
		slog.Error("shutdown meter provider", "error", err)
	}
}

// Shutdown stops the server first so no new tickets arrive, then River, which waits for
// in-flight jobs until ctx expires. Jobs abandoned at the deadline are rescued and redelivered.
func (a *App) Shutdown(ctx context.Context) error {
	defer a.shutdownObservability(ctx)

	if err := a.server.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		if a.runWorkers {
			if stopErr := a.river.Stop(ctx); stopErr != nil {
				slog.Error("river stop during server shutdown", "error", stopErr)
			}
		}

		return fmt.Errorf("server shutdown: %w", err)
	}

	if a.runWorkers {
		if err := a.river.Stop(ctx); err != nil {
			return fmt.Errorf("river stop: %w", err)
		}
	}

	return nil
}
