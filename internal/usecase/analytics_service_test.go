package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vitos/injective_dashboard/internal/cache"
	"github.com/vitos/injective_dashboard/internal/denom"
	"github.com/vitos/injective_dashboard/internal/domain"
)

func newAnalyticsFixture() (*AnalyticsService, *mockQuerier) {
	q := newMockQuerier()
	q.spotMarkets = []domain.SpotMarket{
		{MarketID: "0xinjusdt", Ticker: "INJ/USDT", BaseDenom: "inj", QuoteDenom: usdtDenom},
	}
	q.derivMarkets = []domain.DerivativeMarket{
		{MarketID: "0xbtcperp", Ticker: "BTC/USDT PERP", QuoteDenom: usdtDenom, OracleBase: "BTC", IsPerpetual: true},
	}
	q.spotBooks["0xinjusdt"] = &domain.OrderBook{MarketID: "0xinjusdt"}
	q.derivBooks["0xbtcperp"] = &domain.OrderBook{
		MarketID: "0xbtcperp",
		Bids:     []domain.PriceLevel{{Price: 99997.5, Quantity: 10}},
		Asks:     []domain.PriceLevel{{Price: 100002.5, Quantity: 10}},
	}

	c := cache.New()
	markets := NewMarketService(q, denom.NewResolver(), c, zap.NewNop())
	svc := NewAnalyticsService(q, markets, c, zap.NewNop())
	return svc, q
}

func TestAnalytics_TightDeepBook(t *testing.T) {
	svc, _ := newAnalyticsFixture()

	a, err := svc.GetMarketAnalytics(context.Background(), "0xbtcperp")
	require.NoError(t, err)
	require.NotNil(t, a)

	require.Equal(t, "BTC/USDT PERP", a.Ticker)
	require.Equal(t, 99997.5, a.TopBidPrice)
	require.Equal(t, 100002.5, a.TopAskPrice)
	require.Equal(t, float64(100000), a.MidPrice)
	require.InDelta(t, 0.005, a.SpreadPercent, 1e-12)
	require.Equal(t, float64(999975), a.BidDepthUSD)
	require.Equal(t, float64(1000025), a.AskDepthUSD)
	// $2M depth caps the depth half at 50; a sub-0.01% spread adds 50.
	require.Equal(t, float64(100), a.LiquidityScore)
}

func TestAnalytics_EmptyBook(t *testing.T) {
	svc, _ := newAnalyticsFixture()

	a, err := svc.GetMarketAnalytics(context.Background(), "0xinjusdt")
	require.NoError(t, err)
	require.NotNil(t, a)

	require.Zero(t, a.MidPrice)
	require.Zero(t, a.SpreadPercent)
	require.Zero(t, a.LiquidityScore, "an empty book must not collect the tight-spread score")
}

func TestAnalytics_OneSidedBook(t *testing.T) {
	svc, q := newAnalyticsFixture()
	q.spotBooks["0xinjusdt"] = &domain.OrderBook{
		MarketID: "0xinjusdt",
		Bids:     []domain.PriceLevel{{Price: 10, Quantity: 10000}},
	}

	a, err := svc.GetMarketAnalytics(context.Background(), "0xinjusdt")
	require.NoError(t, err)
	require.NotNil(t, a)

	require.Equal(t, float64(10), a.TopBidPrice)
	require.Zero(t, a.TopAskPrice)
	require.Zero(t, a.MidPrice)
	require.Equal(t, float64(100000), a.BidDepthUSD)
	// Depth-only score: 100k/1M * 50.
	require.Equal(t, float64(5), a.LiquidityScore)
}

func TestAnalytics_UnknownMarket(t *testing.T) {
	svc, _ := newAnalyticsFixture()

	a, err := svc.GetMarketAnalytics(context.Background(), "0xnope")
	require.NoError(t, err)
	require.Nil(t, a)
}

func TestAnalytics_OrderbookFailureDegradesAndIsNotCached(t *testing.T) {
	svc, q := newAnalyticsFixture()
	q.orderbookErr = errors.New("indexer down")

	a, err := svc.GetMarketAnalytics(context.Background(), "0xbtcperp")
	require.NoError(t, err)
	require.Nil(t, a)

	// The failed computation must not poison the cache entry.
	q.orderbookErr = nil
	a, err = svc.GetMarketAnalytics(context.Background(), "0xbtcperp")
	require.NoError(t, err)
	require.NotNil(t, a)
	require.Equal(t, float64(100000), a.MidPrice)
}

func TestAnalytics_CachedWithinTTL(t *testing.T) {
	svc, q := newAnalyticsFixture()
	ctx := context.Background()

	_, err := svc.GetMarketAnalytics(ctx, "0xbtcperp")
	require.NoError(t, err)
	_, err = svc.GetMarketAnalytics(ctx, "0xbtcperp")
	require.NoError(t, err)

	require.Equal(t, 1, q.callCount("GetDerivativeOrderbook"))
}

func TestLiquidityScore_SpreadBreakpoints(t *testing.T) {
	tests := []struct {
		name   string
		depth  float64
		spread float64
		mid    float64
		want   float64
	}{
		{"tight", 0, 0.009, 100, 50},
		{"narrow", 0, 0.05, 100, 40},
		{"moderate", 0, 0.3, 100, 25},
		{"wide", 0, 0.9, 100, 10},
		{"very wide", 0, 1.5, 100, 0},
		{"depth only, no mid", 500_000, 0, 0, 25},
		{"depth capped", 3_000_000, 1.5, 100, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, liquidityScore(tt.depth, tt.spread, tt.mid))
		})
	}
}
