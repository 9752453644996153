// Package main wires the ANP fuel report batch.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/JakeFAU/anp-fuel-report/internal/config"
	collyfetcher "github.com/JakeFAU/anp-fuel-report/internal/fetcher/colly"
	"github.com/JakeFAU/anp-fuel-report/internal/fuel"
	"github.com/JakeFAU/anp-fuel-report/internal/id/uuid"
	"github.com/JakeFAU/anp-fuel-report/internal/logging"
	"github.com/JakeFAU/anp-fuel-report/internal/metrics"
	"github.com/JakeFAU/anp-fuel-report/internal/pipeline"
	"github.com/JakeFAU/anp-fuel-report/internal/report"
	gcsstore "github.com/JakeFAU/anp-fuel-report/internal/storage/gcs"
	"github.com/JakeFAU/anp-fuel-report/internal/storage/local"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(logging.Config{
		Development: cfg.Logging.Development,
		Level:       cfg.Logging.Level,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := 0
	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("run failed", zap.Error(err))
		code = 1
	}
	stop()
	if syncErr := logger.Sync(); syncErr != nil {
		fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
	}
	os.Exit(code)
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	metrics.Init()

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	downloader := collyfetcher.New(collyfetcher.Config{
		UserAgent: cfg.Source.UserAgent,
		Timeout:   cfg.RequestTimeout(),
	})

	result, runErr := pipeline.New(cfg, store, downloader, uuid.New(), logger).Run(ctx)
	if err := report.WriteSummary(os.Stdout, result.SummaryRows(cfg)); err != nil {
		logger.Warn("summary output failed", zap.Error(err))
	}
	if err := metrics.Push(ctx, cfg.Metrics.PushgatewayURL, cfg.Metrics.Job); err != nil {
		logger.Warn("metrics push failed", zap.Error(err))
	}
	return runErr
}

func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (fuel.Store, func(), error) {
	switch cfg.Storage.Backend {
	case config.BackendGCS:
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("gcs client: %w", err)
		}
		closeClient := func() {
			if cerr := client.Close(); cerr != nil {
				logger.Warn("gcs client close failed", zap.Error(cerr))
			}
		}
		store, err := gcsstore.New(client, gcsstore.Config{
			Bucket: cfg.Storage.GCSBucket,
			Prefix: cfg.Storage.Prefix,
		})
		if err != nil {
			closeClient()
			return nil, nil, fmt.Errorf("gcs store: %w", err)
		}
		logger.Info("using gcs storage", zap.String("bucket", cfg.Storage.GCSBucket), zap.String("prefix", cfg.Storage.Prefix))
		return store, closeClient, nil
	default:
		store, err := local.New(local.Config{BaseDir: cfg.Storage.BaseDir})
		if err != nil {
			return nil, nil, fmt.Errorf("local store: %w", err)
		}
		logger.Info("using local storage", zap.String("uri", store.URI("")))
		return store, func() {}, nil
	}
}
