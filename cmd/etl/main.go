package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/aviation-accident-etl/internal/adapter/http"
	"github.com/couchcryptid/aviation-accident-etl/internal/adapter/jsonfile"
	kafkaadapter "github.com/couchcryptid/aviation-accident-etl/internal/adapter/kafka"
	"github.com/couchcryptid/aviation-accident-etl/internal/adapter/mapbox"
	parquetstore "github.com/couchcryptid/aviation-accident-etl/internal/adapter/parquet"
	"github.com/couchcryptid/aviation-accident-etl/internal/config"
	"github.com/couchcryptid/aviation-accident-etl/internal/domain"
	"github.com/couchcryptid/aviation-accident-etl/internal/observability"
	"github.com/couchcryptid/aviation-accident-etl/internal/pipeline"
)

func main() {
	serve := flag.Bool("serve", false, "keep the HTTP server running after the run until SIGINT/SIGTERM")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	if err := run(cfg, logger, *serve); err != nil {
		logger.Error("pipeline failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger, serve bool) error {
	metrics := observability.NewMetrics()

	ids, err := domain.NewIDGenerator(cfg.IDStrategy)
	if err != nil {
		return err
	}

	// Initialize geocoder (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	opts := pipeline.Options{
		InputDir:      cfg.InputDir,
		OutputDir:     cfg.OutputDir,
		Workers:       cfg.Workers,
		SkipMalformed: cfg.SkipMalformedRecords,
		Deduplicate:   cfg.DeduplicateDimensions,
		Progress:      cfg.Progress,
	}
	if len(cfg.KafkaBrokers) > 0 {
		notifier := kafkaadapter.NewNotifier(cfg, logger)
		defer func() {
			if err := notifier.Close(); err != nil {
				logger.Error("kafka notifier close error", "error", err)
			}
		}()
		opts.Notifier = notifier
	}

	source := jsonfile.NewSource(cfg.InputDir, cfg.InputPattern, cfg.RawColumns)
	rows := domain.NewTransformer(ids, domain.TransformOptions{
		DateLayout:          cfg.DateLayout,
		FixRouteDestination: cfg.FixRouteDestination,
	})
	store := parquetstore.NewStore(cfg.OutputDir, cfg.OutputFiles)

	p := pipeline.New(source, pipeline.NewTransformer(rows, geocoder, logger), store, logger, metrics, opts)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var srv *httpadapter.Server
	if cfg.HTTPAddr != "" {
		srv = httpadapter.NewServer(cfg.HTTPAddr, p, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
	}

	_, runErr := p.Run(ctx)

	if cfg.MetricsTextfile != "" {
		if err := observability.WriteTextfile(cfg.MetricsTextfile); err != nil {
			logger.Error("write metrics textfile", "path", cfg.MetricsTextfile, "error", err)
		}
	}

	if srv != nil {
		if serve && runErr == nil {
			logger.Info("run complete, serving until signaled", "addr", cfg.HTTPAddr)
			<-ctx.Done()
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
	}

	logger.Info("shutdown complete")
	return runErr
}
