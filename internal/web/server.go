package web

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/vitos/injective_dashboard/internal/cache"
	"github.com/vitos/injective_dashboard/internal/infrastructure/metrics"
	"github.com/vitos/injective_dashboard/internal/usecase"
)

type Server struct {
	router    *http.ServeMux
	server    *http.Server
	tokens    *usecase.TokenService
	markets   *usecase.MarketService
	analytics *usecase.AnalyticsService
	portfolio *usecase.PortfolioService
	cache     *cache.Cache
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

func NewServer(
	port int,
	tokens *usecase.TokenService,
	markets *usecase.MarketService,
	analytics *usecase.AnalyticsService,
	portfolio *usecase.PortfolioService,
	c *cache.Cache,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Server {
	s := &Server{
		router:    http.NewServeMux(),
		tokens:    tokens,
		markets:   markets,
		analytics: analytics,
		portfolio: portfolio,
		cache:     c,
		metrics:   m,
		logger:    logger,
	}
	s.routes()
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.router,
	}
	return s
}

func (s *Server) routes() {
	// Ops
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.Handle("GET /metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}))
	s.router.HandleFunc("GET /api/v1/cache/stats", s.handleCacheStats)

	// Portfolio
	s.router.HandleFunc("GET /api/v1/portfolio/{address}", s.handleGetPortfolio)

	// Markets
	s.router.HandleFunc("GET /api/v1/markets", s.handleGetMarkets)
	s.router.HandleFunc("GET /api/v1/markets/{id}", s.handleGetMarket)
	s.router.HandleFunc("GET /api/v1/markets/{id}/analytics", s.handleGetMarketAnalytics)

	// Tokens. The rest wildcard matters: factory and ibc denoms contain
	// slashes.
	s.router.HandleFunc("GET /api/v1/tokens", s.handleGetTokens)
	s.router.HandleFunc("GET /api/v1/tokens/{denom...}", s.handleGetToken)
}

func (s *Server) Start() error {
	s.logger.Info("Starting web server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
