// Package main is the entry point for the midasgw market-data and
// technical-analysis gateway.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/atlas-desktop/midasgw/internal/api"
	"github.com/atlas-desktop/midasgw/internal/cachestore"
	"github.com/atlas-desktop/midasgw/internal/config"
	"github.com/atlas-desktop/midasgw/internal/exchange"
	"github.com/atlas-desktop/midasgw/internal/indicators"
	"github.com/atlas-desktop/midasgw/internal/marketdata"
	"github.com/atlas-desktop/midasgw/internal/metrics"
	"github.com/atlas-desktop/midasgw/internal/mtf"
	"github.com/atlas-desktop/midasgw/internal/obslog"
	"github.com/atlas-desktop/midasgw/internal/regime"
	"github.com/atlas-desktop/midasgw/internal/segmentcache"

	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	metricsPort := flag.Int("metrics-port", 9090, "Prometheus metrics listener port")
	mtfBars := flag.Int("mtf-bars", 300, "Bars loaded per timeframe by the mtf orchestrator")
	flag.Parse()

	logger, err := obslog.New(*logLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("loading configuration", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New(prometheus.DefaultRegisterer)

	var store cachestore.Store
	if cfg.Redis.Enabled {
		redisStore, err := cachestore.NewRedisStore(ctx, cachestore.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, logger)
		if err != nil {
			logger.Fatal("connecting to redis", zap.Error(err))
		}
		store = redisStore
		logger.Info("using redis cache store", zap.String("host", cfg.Redis.Host), zap.Int("port", cfg.Redis.Port))
	} else {
		store = cachestore.NewMemoryStore()
		logger.Info("using in-memory cache store")
	}

	cacheEngine := segmentcache.New(ctx, store, segmentcache.Config{
		KeyPrefix:        cfg.Redis.KeyPrefix,
		TTLSeconds:       cfg.Redis.CacheTTLSec,
		MaxEntriesPerKey: cfg.Redis.MaxBarsPerKey,
	}, logger, m)

	exchangeClient := exchange.New(exchange.Config{
		BaseURL:  cfg.Exchange.BaseURL,
		MaxLimit: cfg.Exchange.MaxLimit,
		Timeout:  cfg.Exchange.Timeout,
	}, logger)

	provider := marketdata.New(exchangeClient, cacheEngine, cfg.MaxDataPoints, logger)

	indicatorEngine := indicators.New(cfg.Indicator.Precision, logger, m)

	regimeDetector := regime.New(regime.DefaultConfig(), logger)

	orchestrator := mtf.New(provider, indicatorEngine, regimeDetector, *mtfBars, logger)

	apiServer := api.NewServer(api.Config{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}, api.Deps{
		MarketData:   provider,
		Indicators:   indicatorEngine,
		Regime:       regimeDetector,
		Orchestrator: orchestrator,
		Cache:        cacheEngine,
		Precision:    cfg.Indicator.Precision,
	}, logger)

	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", *metricsPort),
		Handler: metrics.Handler(),
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("starting metrics server", zap.Int("port", *metricsPort))
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", zap.Error(err))
		}
	}()

	go func() {
		if err := apiServer.Start(); err != nil && err != http.ErrServerClosed {
			logger.Error("api server error", zap.Error(err))
		}
	}()

	logger.Info("midasgw gateway started",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.Bool("redis", cfg.Redis.Enabled),
	)

	<-sigChan
	logger.Info("shutdown signal received")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := apiServer.Stop(shutdownCtx); err != nil {
		logger.Error("error during api server shutdown", zap.Error(err))
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("error during metrics server shutdown", zap.Error(err))
	}

	logger.Info("midasgw gateway stopped")
}
