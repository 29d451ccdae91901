// Package main provides the producer application entry point.
// The producer discovers candidate COLCAP news URLs and enqueues them
// onto the shared task queue for the worker fleet to drain.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"log/slog"

	"github.com/fairyhunter13/ai-cv-evaluator/internal/adapter/observability"
	"github.com/fairyhunter13/ai-cv-evaluator/internal/config"
	"github.com/fairyhunter13/ai-cv-evaluator/internal/discoverer"
	"github.com/fairyhunter13/ai-cv-evaluator/internal/producer"
	"github.com/fairyhunter13/ai-cv-evaluator/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)

	observability.InitMetrics()
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
			slog.Error("producer metrics server error", slog.Any("error", err))
		}
	}()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	s, err := store.Connect(ctx, store.Options{
		Host: cfg.RedisHost, Port: cfg.RedisPort, DB: cfg.RedisDB,
		MaxRetries: cfg.MaxRetries, RetryDelay: time.Duration(cfg.RetryDelaySeconds) * time.Second,
	})
	if err != nil {
		slog.Error("store connect failed", slog.Any("error", err))
		os.Exit(1)
	}

	catalog := discoverer.NewIndexCatalog(
		"https://index.commoncrawl.org/collinfo.json",
		"data/cc_indexes.csv",
		&http.Client{Timeout: 30 * time.Second},
	)
	indexes := catalog.Indexes(ctx)
	slog.Info("loaded archive index catalog", slog.Int("count", len(indexes)))

	httpClient := &http.Client{Timeout: 30 * time.Second}
	primary := discoverer.NewArchiveIndexSource(
		s, httpClient, config.CCIndexBaseURL,
		cfg.TargetDomains, config.ExcludedURLPatterns, config.NewsSectionPatterns,
		time.Duration(cfg.DelayBetweenDomainsSeconds)*time.Second,
	)
	fallback := discoverer.NewPortalSource(s, httpClient, config.ExcludedURLPatterns, config.NewsSectionPatterns)
	orchestrator := discoverer.NewOrchestrator(primary, fallback)

	driverCfg := producer.DefaultConfig()
	driverCfg.DelayBetweenIndexes = time.Duration(cfg.DelayBetweenIndexesSeconds) * time.Second
	driverCfg.QueueLowThreshold = config.QueueLowThreshold
	driver := producer.NewDriver(s, orchestrator, indexes, driverCfg)

	slog.Info("starting producer", slog.String("env", cfg.AppEnv))
	go driver.Run(ctx)

	slog.Info("producer started successfully, waiting for shutdown signal")
	<-ctx.Done()
	slog.Info("signal received, shutting down")
}
