// Package main is the entrypoint for the fraud batch scoring service.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kiranshivaraju/fraudbatch/internal/api"
	"github.com/kiranshivaraju/fraudbatch/internal/api/handler"
	mw "github.com/kiranshivaraju/fraudbatch/internal/api/middleware"
	"github.com/kiranshivaraju/fraudbatch/internal/batch"
	"github.com/kiranshivaraju/fraudbatch/internal/cache"
	"github.com/kiranshivaraju/fraudbatch/internal/config"
	"github.com/kiranshivaraju/fraudbatch/internal/notify"
	"github.com/kiranshivaraju/fraudbatch/internal/scoring"
	"github.com/kiranshivaraju/fraudbatch/internal/store"
)

const version = "1.0.0"

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

// app is the wired service: the router plus everything that needs closing.
type app struct {
	handler http.Handler
	engine  *batch.Engine
	closers []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "env", cfg.Server.Env, "prediction_store", cfg.Predictions.Backend)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      a.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	if err := a.engine.Shutdown(shutdownCtx); err != nil {
		slog.Warn("batch jobs interrupted by shutdown", "error", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// newApp connects every collaborator named in cfg and builds the router.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{}
	fail := func(err error) (*app, error) {
		a.close()
		return nil, err
	}

	timeout := cfg.Collaborator.Timeout
	scorer := scoring.NewHTTPClient(cfg.Collaborator.ScoringURL, timeout)
	alerter := notify.NewHTTPClient(cfg.Collaborator.NotificationURL, timeout)

	checks := []handler.DependencyCheck{{Name: "scoring", Check: scorer.Ready}}

	var (
		sink        batch.PredictionSink
		predictions handler.PredictionReader
		mirror      handler.StatusMirror
	)
	switch cfg.Predictions.Backend {
	case config.StoreHTTP:
		s := store.NewHTTPStore(cfg.Collaborator.PersistenceURL, timeout)
		sink = s
		checks = append(checks, handler.DependencyCheck{Name: "persistence", Check: s.Ping})
	case config.StorePostgres:
		pool, err := store.Connect(ctx, cfg.Database)
		if err != nil {
			return fail(fmt.Errorf("connect database: %w", err))
		}
		a.closers = append(a.closers, pool.Close)
		slog.Info("database connected")

		if err := store.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsDir); err != nil {
			return fail(fmt.Errorf("run migrations: %w", err))
		}
		slog.Info("database migrations applied")

		s := store.NewPostgresStore(pool)
		sink = s
		predictions = s
		checks = append(checks, handler.DependencyCheck{Name: "database", Check: s.Ping})
	case config.StoreNone:
		slog.Warn("prediction persistence disabled")
	}

	opts := batch.Options{
		MaxBatchSize:       cfg.Batch.MaxBatchSize,
		ChunkSize:          cfg.Batch.ChunkSize,
		ChunkPause:         cfg.Batch.ChunkPause,
		HighRiskThreshold:  cfg.Batch.HighRiskThreshold,
		HistoryLimit:       cfg.Batch.HistoryLimit,
		MaxConcurrentJobs:  cfg.Batch.MaxConcurrentJobs,
		PersistConcurrency: cfg.Batch.PersistConcurrency,
		Logger:             slog.Default(),
	}

	var rateLimit *mw.RateLimit
	if cfg.Redis.URL != "" {
		redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
		if err != nil {
			return fail(fmt.Errorf("create redis cache: %w", err))
		}
		a.closers = append(a.closers, func() { redisCache.Close() })

		if err := redisCache.Ping(ctx); err != nil {
			return fail(fmt.Errorf("ping redis: %w", err))
		}
		slog.Info("redis connected")

		opts.Status = redisCache
		mirror = redisCache
		rateLimit = mw.NewRateLimit(redisCache, cfg.Redis.RateLimitPerMinute)
		checks = append(checks, handler.DependencyCheck{Name: "cache", Check: redisCache.Ping})
	}

	a.engine = batch.NewEngine(scorer, sink, alerter, opts)

	auth := mw.NewAuth(cfg.Auth.APIKeyHashes)
	if !auth.Enabled() {
		slog.Warn("API key authentication disabled")
	}

	deps := api.Dependencies{
		Auth:      auth,
		RateLimit: rateLimit,

		HealthHandler:    handler.NewHealthHandler(version, a.engine, a.engine.Config(), checks...),
		CreateJobHandler: handler.NewCreateJobHandler(a.engine),
		ListJobsHandler:  handler.NewListJobsHandler(a.engine),
		GetJobHandler:    handler.NewGetJobHandler(a.engine),
		CancelJobHandler: handler.NewCancelJobHandler(a.engine),
		StatsHandler:     handler.NewStatsHandler(a.engine),
		JobStatusHandler: handler.NewJobStatusHandler(a.engine, mirror),
	}
	if predictions != nil {
		deps.ListPredictionsHandler = handler.NewListPredictionsHandler(predictions)
		deps.GetPredictionHandler = handler.NewGetPredictionHandler(predictions)
	}
	a.handler = api.NewRouter(deps)
	return a, nil
}
