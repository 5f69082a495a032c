package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/critweight/internal/config"
	dbRedis "github.com/kailas-cloud/critweight/internal/db/redis"
	"github.com/kailas-cloud/critweight/internal/domain/normalize"
	"github.com/kailas-cloud/critweight/internal/domain/similarity"
	"github.com/kailas-cloud/critweight/internal/domain/simplex"
	logpkg "github.com/kailas-cloud/critweight/internal/logger"
	"github.com/kailas-cloud/critweight/internal/metrics"
	chiTransport "github.com/kailas-cloud/critweight/internal/transport/chi"
	healthuc "github.com/kailas-cloud/critweight/internal/usecase/health"
	weightsuc "github.com/kailas-cloud/critweight/internal/usecase/weights"
	"github.com/kailas-cloud/critweight/internal/version"
)

func serveCommand(c *cli.Context) error {
	env := c.String("env")

	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	level := cfg.Logging.Level
	if c.IsSet("log-level") {
		level = c.String("log-level")
	}
	logger, err := logpkg.NewLogger(env, level)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting critweight API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("cache_driver", cfg.Cache.Driver),
		zap.String("embedding_model", cfg.Embedding.Model),
	)

	ctx := context.Background()

	// Embedding cache is optional.
	var store *dbRedis.Store
	if cfg.Cache.Enabled() {
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Username: cfg.Cache.Username,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
		if err != nil {
			return fmt.Errorf("failed to create cache store: %w", err)
		}
		defer store.Close()

		readiness := time.Duration(cfg.Cache.ReadinessTimeout) * time.Second
		if err := store.WaitForReady(ctx, readiness); err != nil {
			return fmt.Errorf("cache not ready: %w", err)
		}
		logger.Info("Connected to embedding cache", zap.Strings("addrs", cfg.Cache.Addrs))
	}

	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterWeightingMetrics()

	chain, err := newEmbedderChain(cfg.Embedding, cfg.Cache, store, logger)
	if err != nil {
		return err
	}
	defer chain.Close()
	logger.Info("Embedders created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Bool("native_batch", *cfg.Embedding.NativeBatch),
	)

	params, err := paramsFromConfig(cfg.Weighting)
	if err != nil {
		return err
	}
	weightsSvc := weightsuc.New(chain.Query, chain.Passage, params, cfg.Limits.MaxCriteria, logger)

	// Untyped nil keeps the health service from pinging a disabled cache.
	var cachePinger healthuc.CachePinger
	if store != nil {
		cachePinger = store
	}
	healthSvc := healthuc.New(chain.Passage, cachePinger)

	server := chiTransport.NewServer(weightsSvc, healthSvc, version.Version, logger).
		WithMaxBodyBytes(cfg.HTTP.MaxBodyBytes)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-quit:
		logger.Info("Received shutdown signal")
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}

// paramsFromConfig converts the weighting section into pipeline defaults.
func paramsFromConfig(wc config.WeightingConfig) (weightsuc.Params, error) {
	m, err := similarity.Parse(wc.Metric)
	if err != nil {
		return weightsuc.Params{}, fmt.Errorf("weighting.metric: %w", err)
	}
	nm, err := normalize.Parse(wc.Method)
	if err != nil {
		return weightsuc.Params{}, fmt.Errorf("weighting.normalization: %w", err)
	}

	p := weightsuc.Params{
		Metric: m,
		Method: nm,
		Projection: simplex.Options{
			MinWeight:     *wc.MinWeight,
			MaxWeight:     *wc.MaxWeight,
			MaxIterations: wc.MaxIterations,
			Tolerance:     wc.Tolerance,
		},
		Rounding: weightsuc.RoundingParams{
			Enabled:  *wc.Rounding.Enabled,
			Decimals: *wc.Rounding.Decimals,
		},
	}
	if err := p.Validate(); err != nil {
		return weightsuc.Params{}, fmt.Errorf("weighting: %w", err)
	}
	return p, nil
}
