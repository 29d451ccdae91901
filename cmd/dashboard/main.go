// Package main provides the dashboard application entry point.
// The dashboard serves a read-only JSON monitoring API over the
// coordination store: fleet status, recent results, and throughput and
// scalability history.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fairyhunter13/ai-cv-evaluator/internal/adapter/observability"
	"github.com/fairyhunter13/ai-cv-evaluator/internal/config"
	"github.com/fairyhunter13/ai-cv-evaluator/internal/dashboard"
	"github.com/fairyhunter13/ai-cv-evaluator/internal/store"
	"github.com/fairyhunter13/ai-cv-evaluator/internal/telemetry"
)

const collectorSchedule = "*/5 * * * *"

const shutdownGrace = 10 * time.Second

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
			slog.Error("dashboard metrics server error", slog.Any("error", err))
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

	collector := telemetry.NewCollector(s)
	if err := collector.Start(ctx, collectorSchedule); err != nil {
		slog.Warn("telemetry collector start failed", slog.Any("error", err))
	}

	srv := dashboard.NewServer(s, int64(cfg.DashboardMaxResults), nil)
	httpServer := &http.Server{
		Addr:    cfg.DashboardAddr,
		Handler: srv.Router(),
	}

	go func() {
		slog.Info("starting dashboard", slog.String("addr", cfg.DashboardAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("dashboard server error", slog.Any("error", err))
		}
	}()

	<-ctx.Done()
	slog.Info("signal received, shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("dashboard shutdown error", slog.Any("error", err))
	}
	slog.Info("dashboard stopped")
}
