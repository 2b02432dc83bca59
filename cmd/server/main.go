package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/critical-events-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/critical-events-service/internal/adapter/kafka"
	s3adapter "github.com/couchcryptid/critical-events-service/internal/adapter/s3"
	"github.com/couchcryptid/critical-events-service/internal/config"
	"github.com/couchcryptid/critical-events-service/internal/filestore"
	"github.com/couchcryptid/critical-events-service/internal/observability"
	"github.com/couchcryptid/critical-events-service/internal/pipeline"
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

	client, err := s3adapter.NewClient(ctx, cfg)
	if err != nil {
		logger.Error("failed to create s3 client", "error", err)
		os.Exit(1)
	}
	store := s3adapter.NewStore(client, cfg.S3BucketName, logger)
	files := filestore.NewService(filestore.NewCachedStore(store, cfg.FileCacheSize, metrics), cfg.S3KeyPrefix, logger, metrics)

	checks := httpadapter.ReadinessChecks{store}

	// Stream mode is feature-flagged via KAFKA_ENABLED.
	var (
		reader *kafkaadapter.Reader
		writer *kafkaadapter.Writer
		p      *pipeline.Pipeline
	)
	if cfg.KafkaEnabled {
		reader = kafkaadapter.NewReader(cfg, logger)
		writer = kafkaadapter.NewWriter(cfg, logger)
		p = pipeline.New(reader, pipeline.NewTransformer(logger, metrics), writer, logger, metrics, cfg.BatchSize, nil)
		checks = append(checks, p)
		logger.Info("stream mode enabled",
			"source_topic", cfg.KafkaSourceTopic,
			"sink_topic", cfg.KafkaSinkTopic,
			"group_id", cfg.KafkaGroupID,
		)
	} else {
		logger.Info("stream mode disabled")
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, httpadapter.Options{
		MaxBodyBytes:      cfg.MaxBodyBytes,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
	}, files, checks, logger, metrics)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

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

	logger.Info("shutdown complete")
}
