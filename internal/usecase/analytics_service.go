package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/vitos/injective_dashboard/internal/cache"
	"github.com/vitos/injective_dashboard/internal/domain"
)

// AnalyticsService derives per-market liquidity metrics from a live
// orderbook snapshot.
type AnalyticsService struct {
	querier domain.ChainQuerier
	markets *MarketService
	cache   *cache.Cache
	logger  *zap.Logger
}

func NewAnalyticsService(querier domain.ChainQuerier, markets *MarketService, c *cache.Cache, logger *zap.Logger) *AnalyticsService {
	return &AnalyticsService{
		querier: querier,
		markets: markets,
		cache:   c,
		logger:  logger,
	}
}

// GetMarketAnalytics returns nil for an unknown market and nil (logged)
// when the orderbook fetch fails; analytics is best-effort end to end.
func (s *AnalyticsService) GetMarketAnalytics(ctx context.Context, marketID string) (*domain.MarketAnalytics, error) {
	market, err := s.markets.GetMarket(ctx, marketID)
	if err != nil {
		return nil, err
	}
	if market == nil {
		return nil, nil
	}

	a, err := cache.Typed(ctx, s.cache, "analytics:"+marketID, TTLAnalytics, func(ctx context.Context) (*domain.MarketAnalytics, error) {
		return s.compute(ctx, market)
	})
	if err != nil {
		s.logger.Warn("analytics unavailable",
			zap.String("market_id", marketID), zap.Error(err))
		return nil, nil
	}
	return a, nil
}

func (s *AnalyticsService) compute(ctx context.Context, market *domain.MarketInfo) (*domain.MarketAnalytics, error) {
	var (
		book *domain.OrderBook
		err  error
	)
	if market.Type == domain.MarketTypeSpot {
		book, err = s.querier.GetSpotOrderbook(ctx, market.MarketID)
	} else {
		book, err = s.querier.GetDerivativeOrderbook(ctx, market.MarketID)
	}
	if err != nil {
		return nil, err
	}

	a := &domain.MarketAnalytics{
		MarketID: market.MarketID,
		Ticker:   market.Ticker,
	}

	// Bids arrive sorted descending, asks ascending; the first level on
	// each side is the top of book.
	if len(book.Bids) > 0 {
		a.TopBidPrice = book.Bids[0].Price
	}
	if len(book.Asks) > 0 {
		a.TopAskPrice = book.Asks[0].Price
	}
	if a.TopBidPrice > 0 && a.TopAskPrice > 0 {
		a.MidPrice = (a.TopBidPrice + a.TopAskPrice) / 2
	}
	if a.MidPrice > 0 {
		a.SpreadPercent = (a.TopAskPrice - a.TopBidPrice) / a.MidPrice * 100
	}

	for _, lvl := range book.Bids {
		a.BidDepthUSD += lvl.Price * lvl.Quantity
	}
	for _, lvl := range book.Asks {
		a.AskDepthUSD += lvl.Price * lvl.Quantity
	}

	a.LiquidityScore = liquidityScore(a.BidDepthUSD+a.AskDepthUSD, a.SpreadPercent, a.MidPrice)
	return a, nil
}

// liquidityScore is a coarse 0-100 classifier: up to 50 points for depth
// approaching $1M, plus a step score for tightness of the spread. The
// breakpoints are intentional cliffs, not an interpolated curve.
func liquidityScore(totalDepthUSD, spreadPercent, midPrice float64) float64 {
	depthRatio := totalDepthUSD / 1_000_000
	if depthRatio > 1 {
		depthRatio = 1
	}
	depthScore := depthRatio * 50

	// A one-sided or empty book has no spread to score.
	if midPrice <= 0 {
		return depthScore
	}

	var spreadScore float64
	switch {
	case spreadPercent < 0.01:
		spreadScore = 50
	case spreadPercent < 0.1:
		spreadScore = 40
	case spreadPercent < 0.5:
		spreadScore = 25
	case spreadPercent < 1:
		spreadScore = 10
	}
	return depthScore + spreadScore
}
