// Command jobsift runs a bounded discovery crawl over job boards and emits
// validated job postings to the configured sinks.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"jobsift/internal/api"
	"jobsift/internal/assist"
	"jobsift/internal/classify"
	"jobsift/internal/config"
	"jobsift/internal/crawler"
	"jobsift/internal/extract"
	"jobsift/internal/fetch"
	"jobsift/internal/logging"
	"jobsift/internal/progress"
	"jobsift/internal/progress/sinks"
	"jobsift/internal/sink"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "jobsift: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	promSink, err := sinks.NewPrometheusSink(registry)
	if err != nil {
		return fmt.Errorf("build prometheus sink: %w", err)
	}
	hub := progress.NewHub(progress.Config{Logger: logger},
		sinks.NewLogSink(logger), promSink)

	recordSink, err := buildRecordSink(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("build record sink: %w", err)
	}

	snapshots, err := buildSnapshotStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("build snapshot store: %w", err)
	}

	fetcher, err := fetch.NewCollyFetcher(cfg.FetchConfig(), logger)
	if err != nil {
		return fmt.Errorf("build fetcher: %w", err)
	}

	var renderer crawler.Renderer
	var detector crawler.RenderDetector
	if cfg.Render.Enabled {
		chromeRenderer, err := fetch.NewChromedpRenderer(cfg.FetchConfig(), logger)
		if err != nil {
			return fmt.Errorf("build renderer: %w", err)
		}
		renderer = chromeRenderer
		detector = fetch.NewHeuristicDetector(
			cfg.Render.DetectMinBytes, cfg.Render.DetectSelectors, cfg.Render.DetectKeywords)
	}

	var assistClient assist.Client
	if cfg.Assist.Enabled {
		assistClient, err = assist.NewOllamaClient(cfg.AssistClientConfig(), logger)
		if err != nil {
			return fmt.Errorf("build assist client: %w", err)
		}
	}

	var classifier crawler.Classifier = classify.NewHeuristic(cfg.ClassifierConfig())
	if assistClient != nil {
		classifier = classify.NewAssisted(
			classify.NewHeuristic(cfg.ClassifierConfig()), assistClient, cfg.AssistedConfig(), hub, logger)
	}

	extractor := extract.New(
		cfg.ExtractorConfig(), extract.DefaultRules(),
		extract.NewSkillSet(extract.DefaultVocabulary()), assistClient, logger)

	engine := crawler.NewEngine(
		cfg.CrawlerConfig(), fetcher, renderer, detector,
		classifier, extractor, recordSink, snapshots, hub, logger)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           api.NewServer(engine, registry, logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("status server listening", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("status server failed", zap.Error(err))
		}
	}()

	stats, runErr := engine.Run(ctx)
	if runErr != nil {
		logger.Error("crawl run failed", zap.Error(runErr))
	} else {
		logger.Info("crawl run finished",
			zap.String("stop_reason", string(stats.StopReason)),
			zap.Int("pages_visited", stats.PagesVisited),
			zap.Int("records_emitted", stats.RecordsEmitted),
			zap.Int("records_rejected", stats.RecordsRejected),
			zap.Duration("elapsed", stats.Finished.Sub(stats.Started)),
		)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("status server shutdown failed", zap.Error(err))
	}
	if err := engine.Close(shutdownCtx); err != nil {
		logger.Warn("engine close failed", zap.Error(err))
	}
	if err := hub.Close(shutdownCtx); err != nil {
		logger.Warn("progress hub close failed", zap.Error(err))
	}

	return runErr
}

func buildRecordSink(ctx context.Context, cfg config.Config, logger *zap.Logger) (crawler.RecordSink, error) {
	var outputs []crawler.RecordSink
	if cfg.Output.JSONLPath != "" {
		jsonl, err := sink.NewJSONLSink(cfg.Output.JSONLPath)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, jsonl)
	}
	if cfg.Output.HTTP.Endpoint != "" {
		httpSink, err := sink.NewHTTPSink(cfg.HTTPSinkConfig(), logger)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, httpSink)
	}
	if cfg.Output.PostgresDSN != "" {
		pgSink, err := sink.NewPostgresSink(ctx, cfg.Output.PostgresDSN)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, pgSink)
	}
	if len(outputs) == 1 {
		return outputs[0], nil
	}
	return sink.NewMultiSink(outputs...), nil
}

func buildSnapshotStore(ctx context.Context, cfg config.Config) (crawler.SnapshotStore, error) {
	if !cfg.Crawl.SnapshotRecords {
		return nil, nil
	}
	if cfg.Snapshots.GCSBucket != "" {
		client, err := gcs.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("create gcs client: %w", err)
		}
		return sink.NewGCSSnapshotStore(client, cfg.Snapshots.GCSBucket)
	}
	if cfg.Snapshots.Dir != "" {
		return sink.NewFSSnapshotStore(cfg.Snapshots.Dir)
	}
	return nil, fmt.Errorf("snapshot_records enabled but no snapshot destination configured")
}
