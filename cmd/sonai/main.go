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

	"go.uber.org/zap"

	"github.com/kailas-cloud/sonai/internal/config"
	"github.com/kailas-cloud/sonai/internal/db"
	dbRedis "github.com/kailas-cloud/sonai/internal/db/redis"
	"github.com/kailas-cloud/sonai/internal/domain"
	"github.com/kailas-cloud/sonai/internal/domain/pattern"
	"github.com/kailas-cloud/sonai/internal/domain/style"
	logpkg "github.com/kailas-cloud/sonai/internal/logger"
	"github.com/kailas-cloud/sonai/internal/metrics"
	modelrepo "github.com/kailas-cloud/sonai/internal/repository/model"
	"github.com/kailas-cloud/sonai/internal/repository/predcache"
	chiTransport "github.com/kailas-cloud/sonai/internal/transport/chi"
	healthuc "github.com/kailas-cloud/sonai/internal/usecase/health"
	modeluc "github.com/kailas-cloud/sonai/internal/usecase/model"
	predictuc "github.com/kailas-cloud/sonai/internal/usecase/predict"
	"github.com/kailas-cloud/sonai/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting sonai API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("storage_driver", cfg.Storage.Driver),
		zap.String("model_source", cfg.Model.Source),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Phrase dictionary is compiled once; a broken dictionary aborts startup.
	patterns, err := pattern.Default()
	if err != nil {
		logger.Fatal("Failed to compile phrase dictionary", zap.Error(err))
	}
	phrases := make(map[string]int, len(pattern.Categories()))
	for _, c := range pattern.Categories() {
		phrases[string(c)] = patterns.Len(c)
	}
	logger.Info("Phrase dictionary compiled", zap.Any("phrases", phrases))

	var store db.Store
	if cfg.Storage.Enabled() {
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Storage.Addrs,
			Password: cfg.Storage.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create storage client", zap.Error(err))
		}
		defer s.Close()

		if err := s.WaitForReady(ctx, time.Duration(cfg.Storage.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Storage not ready", zap.Error(err))
		}
		logger.Info("Connected to storage", zap.Strings("addrs", cfg.Storage.Addrs))
		store = s
	}

	// Register prediction metrics explicitly (no init())
	metrics.RegisterPredictionMetrics()

	registry, fileRepo := buildRegistry(cfg, store, logger)
	if _, err := registry.Reload(ctx); err != nil {
		if cfg.Model.Source != config.SourceStore || !errors.Is(err, domain.ErrModelNotLoaded) {
			logger.Fatal("Failed to load model", zap.Error(err))
		}
		logger.Warn("No model stored yet, serving degraded until PUT /v1/model")
	}

	if fileRepo != nil && cfg.Model.Watch {
		go watchModel(ctx, fileRepo, registry, logger)
	}

	// Pass nil interface (not typed nil pointer!) if the cache is off.
	var cache predictuc.Cache
	if cfg.Cache.Enabled && store != nil {
		cache = predcache.New(store, cfg.Storage.KeyPrefix, cfg.Cache.TTL(), metrics.PredictionCacheTotal, logger)
	}

	predictSvc := predictuc.New(style.NewExtractor(patterns), registry, cache, predictuc.Metrics{
		Predictions: metrics.PredictionsTotal,
		Duration:    metrics.PredictionDuration,
	}).WithLimits(cfg.Predict.MaxTextBytes, cfg.Predict.MaxBatchSize, cfg.Predict.BatchConcurrency)

	var pinger healthuc.DBPinger
	if store != nil {
		pinger = store
	}
	healthSvc := healthuc.New(registry, pinger)

	// A full batch of maximum-size texts, with headroom for JSON escaping.
	bodyLimit := int64(cfg.Predict.MaxTextBytes) * int64(cfg.Predict.MaxBatchSize) * 2
	server := chiTransport.NewServer(predictSvc, registry, healthSvc, logger).WithBodyLimit(bodyLimit)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Router(cfg.Auth.APIKeys),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildRegistry wires the model source and saver. The file repository is returned for watching.
func buildRegistry(cfg config.Config, store db.Store, logger *zap.Logger) (*modeluc.Registry, *modelrepo.FileRepository) {
	if cfg.Model.Source == config.SourceStore {
		repo := modelrepo.NewKVRepository(store, cfg.Storage.KeyPrefix)
		return modeluc.NewRegistry(repo, repo, metrics.ModelReloadsTotal, logger), nil
	}
	repo := modelrepo.NewFileRepository(cfg.Model.ArtifactPath, cfg.Model.AIClusterPath, logger)
	return modeluc.NewRegistry(repo, repo, metrics.ModelReloadsTotal, logger), repo
}

// watchModel reloads the registry on artifact file changes until ctx is done.
func watchModel(ctx context.Context, repo *modelrepo.FileRepository, registry *modeluc.Registry, logger *zap.Logger) {
	err := repo.Watch(ctx, func() {
		// Reload logs its own failures and keeps the previous model.
		_, _ = registry.Reload(ctx)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Model watcher stopped", zap.Error(err))
	}
}
