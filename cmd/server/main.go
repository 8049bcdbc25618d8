package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/vitos/injective_dashboard/internal/cache"
	"github.com/vitos/injective_dashboard/internal/denom"
	"github.com/vitos/injective_dashboard/internal/infrastructure/logger"
	"github.com/vitos/injective_dashboard/internal/infrastructure/metrics"
	"github.com/vitos/injective_dashboard/internal/infrastructure/upstream"
	"github.com/vitos/injective_dashboard/internal/usecase"
	"github.com/vitos/injective_dashboard/internal/web"
)

type Config struct {
	Upstream struct {
		LCDEndpoint     string  `yaml:"lcd_endpoint"`
		IndexerEndpoint string  `yaml:"indexer_endpoint"`
		TimeoutMs       int     `yaml:"timeout_ms"`
		RequestsPerSec  float64 `yaml:"requests_per_sec"`
		Burst           int     `yaml:"burst"`
	} `yaml:"upstream"`
	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
}

func loadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func main() {
	// 1. Load Config
	cfg, err := loadConfig("config/config.yaml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Init Logger
	log, err := logger.NewLogger(cfg.Logging.Level)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// 3. Cache + Metrics
	store := cache.New()
	m := metrics.New(store)

	// 4. Upstream client
	querier := upstream.NewClient(upstream.Config{
		LCDBaseURL:     cfg.Upstream.LCDEndpoint,
		IndexerBaseURL: cfg.Upstream.IndexerEndpoint,
		Timeout:        time.Duration(cfg.Upstream.TimeoutMs) * time.Millisecond,
		RequestsPerSec: cfg.Upstream.RequestsPerSec,
		Burst:          cfg.Upstream.Burst,
	}, m, log)

	// 5. Services
	resolver := denom.NewResolver()
	tokenService := usecase.NewTokenService(querier, resolver, store, log)
	marketService := usecase.NewMarketService(querier, resolver, store, log)
	analyticsService := usecase.NewAnalyticsService(querier, marketService, store, log)
	portfolioService := usecase.NewPortfolioService(querier, resolver, tokenService, marketService, log)

	// 6. Warm the slow caches so the first requests don't pay for the
	// full catalog build. Best effort: a cold upstream only delays
	// warm-up, it never blocks startup.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		if _, _, err := marketService.GetMarkets(ctx, usecase.MarketFilter{}); err != nil {
			log.Warn("market catalog warm-up failed", zap.Error(err))
		}
		if _, err := tokenService.GetAllTokens(ctx); err != nil {
			log.Warn("token set warm-up failed", zap.Error(err))
		}
	}()

	// 7. Web Server
	port := cfg.Server.Port
	if port == 0 {
		port = 8080 // Default
	}
	server := web.NewServer(port, tokenService, marketService, analyticsService, portfolioService, store, m, log)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	// 8. Wait for Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("Shutdown error", zap.Error(err))
	}
}
