package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/cross-section-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/cross-section-service/internal/adapter/kafka"
	"github.com/couchcryptid/cross-section-service/internal/adapter/projection"
	"github.com/couchcryptid/cross-section-service/internal/config"
	"github.com/couchcryptid/cross-section-service/internal/observability"
	"github.com/couchcryptid/cross-section-service/internal/pipeline"
	"github.com/couchcryptid/cross-section-service/internal/section"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}

	projector := projection.NewInstrumented(projection.NewRegistry(), metrics.ProjectionFailures)
	engine := section.NewEngine(projector, section.OptionsFromConfig(cfg.Section), logger, metrics)
	computer := section.NewCachedEngine(engine, cfg.Section.CacheSize, metrics)
	logger.Info("section engine ready",
		"samples", cfg.Section.Samples,
		"backfill", cfg.Section.Backfill,
		"cache_size", cfg.Section.CacheSize,
	)

	var (
		ready  sharedobs.ReadinessChecker = httpadapter.AlwaysReady{}
		reader *kafkaadapter.Reader
		writer *kafkaadapter.Writer
		p      *pipeline.Pipeline
	)
	if cfg.KafkaEnabled {
		reader = kafkaadapter.NewReader(cfg, logger)
		writer = kafkaadapter.NewWriter(cfg, logger)
		transformer := pipeline.NewTransformer(computer, metrics, logger)
		p = pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize)
		ready = p
		logger.Info("kafka worker enabled",
			"brokers", cfg.KafkaBrokers,
			"source_topic", cfg.KafkaSourceTopic,
			"sink_topic", cfg.KafkaSinkTopic,
		)
	} else {
		logger.Info("kafka worker disabled")
	}

	api := httpadapter.NewSectionAPI(computer, engine, cfg.MaxRequestBytes, metrics, logger)
	srv := httpadapter.NewServer(cfg.HTTPAddr, ready, api, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	// Start the Kafka worker.
	if p != nil {
		go func() {
			if err := p.Run(ctx); err != nil {
				logger.Error("pipeline error", "error", err)
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	observability.ShutdownTracing(shutdownCtx, shutdownTracing, logger)

	logger.Info("shutdown complete")
}
