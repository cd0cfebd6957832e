// Command swotvisd serves the SWOT time-series chart engine over REST: it
// queries HydroCron with a local response cache, reshapes observations into
// chart datasets, and builds long-profile and statistics views.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/swotvis/swot-data-service/internal/adapter/cache"
	"github.com/swotvis/swot-data-service/internal/adapter/hydrocron"
	"github.com/swotvis/swot-data-service/internal/adapter/nodegeom"
	"github.com/swotvis/swot-data-service/internal/adapter/stats"
	"github.com/swotvis/swot-data-service/internal/config"
	"github.com/swotvis/swot-data-service/internal/httpapi"
	"github.com/swotvis/swot-data-service/internal/observability"
	"github.com/swotvis/swot-data-service/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	// Cache backend: persistent when CACHE_PATH is set, in-memory otherwise.
	var backend cache.Backend
	if cfg.CachePath != "" {
		sqlite, err := cache.NewSQLiteBackend(cfg.CachePath, cfg.CacheMaxEntries)
		if err != nil {
			logger.Error("failed to open cache database", "path", cfg.CachePath, "error", err)
			os.Exit(1)
		}
		defer sqlite.Close()
		backend = sqlite
		logger.Info("persistent cache enabled", "path", cfg.CachePath, "max_entries", cfg.CacheMaxEntries)
	} else {
		backend = cache.NewMemoryBackend(cfg.CacheMaxEntries)
		logger.Info("in-memory cache enabled", "max_entries", cfg.CacheMaxEntries)
	}
	store := cache.New(backend, cfg.CacheTTL, nil, logger)

	fetcher := hydrocron.NewClient(cfg.HydroCronURL, cfg.FetchTimeout, store, logger, metrics)

	var nodes session.NodeLister
	if cfg.NodeGeomURL != "" {
		nodes = nodegeom.NewClient(cfg.NodeGeomURL, cfg.FetchTimeout, logger)
		logger.Info("node profiles enabled", "url", cfg.NodeGeomURL)
	} else {
		logger.Info("node profiles disabled")
	}

	var statsClient session.StatisticsComputer
	if cfg.StatsURL != "" {
		statsClient = stats.NewClient(cfg.StatsURL, cfg.FetchTimeout, logger)
		logger.Info("statistics overlay enabled", "url", cfg.StatsURL)
	} else {
		logger.Info("statistics overlay disabled")
	}

	srv := httpapi.New(cfg.HTTPAddr, fetcher, nodes, statsClient, logger, metrics,
		session.WithCohortTolerance(cfg.CohortTolerance),
		session.WithNodeConcurrency(cfg.NodeConcurrency),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("listening", "addr", cfg.HTTPAddr, "hydrocron", cfg.HydroCronURL)
	if err := srv.Run(ctx, cfg.ShutdownTimeout); err != nil {
		logger.Error("http server error", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}
