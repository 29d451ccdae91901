// Package main provides the worker application entry point.
// The worker drains the task queue and runs the fetch/extract/correlate/
// analyze pipeline over each candidate COLCAP news article.
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
	"github.com/fairyhunter13/ai-cv-evaluator/internal/adapter/repo/postgres"
	"github.com/fairyhunter13/ai-cv-evaluator/internal/adapter/streaming/kafka"
	"github.com/fairyhunter13/ai-cv-evaluator/internal/config"
	"github.com/fairyhunter13/ai-cv-evaluator/internal/correlator"
	"github.com/fairyhunter13/ai-cv-evaluator/internal/domain"
	"github.com/fairyhunter13/ai-cv-evaluator/internal/fetch"
	"github.com/fairyhunter13/ai-cv-evaluator/internal/historical"
	"github.com/fairyhunter13/ai-cv-evaluator/internal/nlp"
	"github.com/fairyhunter13/ai-cv-evaluator/internal/store"
	"github.com/fairyhunter13/ai-cv-evaluator/internal/telemetry"
	"github.com/fairyhunter13/ai-cv-evaluator/internal/worker"
)

const postgresRetentionDays = 30

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
			slog.Error("worker metrics server error", slog.Any("error", err))
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

	slog.Info("starting worker", slog.String("env", cfg.AppEnv), slog.String("worker_id", cfg.Hostname))

	s, err := store.Connect(ctx, store.Options{
		Host: cfg.RedisHost, Port: cfg.RedisPort, DB: cfg.RedisDB,
		MaxRetries: cfg.MaxRetries, RetryDelay: time.Duration(cfg.RetryDelaySeconds) * time.Second,
	})
	if err != nil {
		slog.Error("store connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	if err := telemetry.InitGlobalCounters(ctx, s); err != nil {
		slog.Error("init global counters failed", slog.Any("error", err))
		os.Exit(1)
	}

	histIndex, err := historical.Load(cfg.ColcapDataPath)
	if err != nil {
		slog.Warn("historical COLCAP index load failed, correlation has no index values and tasks will be skipped",
			slog.Any("error", err))
		histIndex = &historical.Index{}
	}

	corr := correlator.New(s, histIndex)

	var analyzer fetch.Analyzer
	if cfg.OpenAIEnabled() {
		analyzer = nlp.NewOpenAIAnalyzer(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		slog.Info("nlp analyzer: openai", slog.String("model", cfg.OpenAIModel))
	} else {
		analyzer = nlp.NewHeuristicAnalyzer()
		slog.Info("nlp analyzer: heuristic keyword scorer")
	}

	fetchClient := fetch.NewClient(time.Duration(cfg.FetchPoliteDelaySeconds) * time.Second)
	pipeline := fetch.NewPipeline(fetchClient, config.CCDataBaseURL, corr, analyzer, cfg.Hostname)

	var resultRepo *postgres.ResultRepo
	if cfg.PostgresEnabled() {
		pool, err := postgres.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			slog.Error("postgres connect failed", slog.Any("error", err))
			os.Exit(1)
		}
		resultRepo = postgres.NewResultRepo(pool)
		cleanup := postgres.NewCleanupService(pool, postgresRetentionDays)
		go cleanup.RunPeriodic(ctx, 24*time.Hour)
		slog.Info("postgres mirror enabled")
	}

	var kafkaProducer *kafka.Producer
	if cfg.KafkaEnabled() {
		kafkaProducer, err = kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			slog.Error("kafka producer init failed", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			if err := kafkaProducer.Close(); err != nil {
				slog.Error("kafka producer close failed", slog.Any("error", err))
			}
		}()
		slog.Info("kafka mirror enabled", slog.String("topic", cfg.KafkaTopic))
	}

	recorder := telemetry.NewRecorder(s, cfg.Hostname)

	engine := worker.NewEngine(s, pipeline, cfg.Hostname)
	engine.BatchSize = cfg.BatchSize
	engine.MaxThreads = cfg.MaxThreads
	engine.OnResult = func(ctx context.Context, result domain.Result) {
		observability.RecordTaskOutcome("ok")
		observability.RecordSentiment(result.Sentiment.Classification, result.Keywords.RelevanceScore)

		if err := recorder.RecordResult(ctx, result); err != nil {
			slog.Warn("telemetry record result failed", slog.Any("error", err))
		}
		if err := recorder.RecordCorrelation(ctx, result.Date, result.IndexValue); err != nil {
			slog.Warn("telemetry record correlation failed", slog.Any("error", err))
		}

		if resultRepo != nil {
			if err := resultRepo.Insert(ctx, result); err != nil {
				slog.Warn("postgres insert failed", slog.Any("error", err))
			}
		}
		if kafkaProducer != nil {
			if err := kafkaProducer.PublishResult(ctx, result); err != nil {
				slog.Warn("kafka publish failed", slog.Any("error", err))
			}
		}
	}

	slog.Info("starting batch-claim engine")
	go engine.Run(ctx)

	slog.Info("worker started successfully, waiting for shutdown signal")
	<-ctx.Done()
	slog.Info("signal received, shutting down")
}
