// Command sizing runs the solar sizing service: the HTTP API and, when Kafka is
// enabled, the request pipeline.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/couchcryptid/solar-sizing-service/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/solar-sizing-service/internal/adapter/kafka"
	"github.com/couchcryptid/solar-sizing-service/internal/adapter/mapbox"
	"github.com/couchcryptid/solar-sizing-service/internal/config"
	"github.com/couchcryptid/solar-sizing-service/internal/domain"
	"github.com/couchcryptid/solar-sizing-service/internal/observability"
	"github.com/couchcryptid/solar-sizing-service/internal/pipeline"
	"github.com/couchcryptid/solar-sizing-service/internal/thermal"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"golang.org/x/sync/errgroup"
)

// geocodeCountries limits forward geocoding to the countries with tables.
var geocodeCountries = []string{"br", "it"}

const (
	limiterSweepInterval = time.Minute
	limiterIdleTimeout   = 10 * time.Minute
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	if err := run(cfg, logger); err != nil {
		logger.Error("service stopped", "error", err)
		os.Exit(1)
	}
}

// alwaysReady is the readiness checker when no pipeline runs.
type alwaysReady struct{}

func (alwaysReady) CheckReadiness(context.Context) error { return nil }

func run(cfg *config.Config, logger *slog.Logger) error {
	metrics := observability.NewMetrics()

	registry, err := thermal.OpenRegistry(cfg.TablesDir, cfg.DefaultLocale)
	if err != nil {
		return err
	}
	if err := registry.Validate(); err != nil {
		return err
	}
	engine := thermal.NewEngine(registry, logger, thermal.WithLimits(thermal.Limits{
		MinCollectorArea: cfg.MinCollectorArea,
		MinBoilerVolume:  cfg.MinBoilerVolume,
	}))
	logger.Info("lookup tables loaded", "locales", registry.Locales(), "dir", cfg.TablesDir)

	// Initialize geocoder (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, geocodeCountries, metrics, logger)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	var ready sharedobs.ReadinessChecker = alwaysReady{}

	if cfg.KafkaEnabled {
		reader := kafkaadapter.NewReader(cfg, logger)
		writer := kafkaadapter.NewWriter(cfg, logger)
		defer func() {
			if err := reader.Close(); err != nil {
				logger.Error("kafka reader close error", "error", err)
			}
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()

		transformer := pipeline.NewTransformer(engine, geocoder, metrics, logger)
		p := pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize)
		ready = p

		g.Go(func() error { return p.Run(gctx) })
	} else {
		logger.Info("kafka pipeline disabled")
	}

	limiter := httpadapter.NewClientLimiter(cfg.HTTPRateLimit, cfg.HTTPRateBurst, nil)
	g.Go(func() error {
		limiter.Run(gctx, limiterSweepInterval, limiterIdleTimeout)
		return nil
	})

	api := httpadapter.NewAPI(engine, geocoder, limiter, metrics, logger)
	srv := httpadapter.NewServer(cfg.HTTPAddr, ready, api, logger)

	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("shutdown complete")
	return nil
}
