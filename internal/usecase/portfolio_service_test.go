package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vitos/injective_dashboard/internal/cache"
	"github.com/vitos/injective_dashboard/internal/denom"
	"github.com/vitos/injective_dashboard/internal/domain"
)

const testAddress = "inj1qypqxpq9qcrsszg2pvxq6rs0zqg3yyc54tm65y"

func newPortfolioFixture() (*PortfolioService, *mockQuerier) {
	q := newMockQuerier()
	q.spotMarkets = []domain.SpotMarket{
		{MarketID: "0xinjusdt", Ticker: "INJ/USDT", BaseDenom: "inj", QuoteDenom: usdtDenom},
	}
	q.derivMarkets = []domain.DerivativeMarket{
		{MarketID: "0xbtcperp", Ticker: "BTC/USDT PERP", QuoteDenom: usdtDenom, OracleBase: "BTC", IsPerpetual: true},
	}
	// Raw price 8.782e-12 quoted 6-decimals against an 18-decimal base
	// prices INJ at 8.782 USD.
	q.spotTrades["0xinjusdt"] = []domain.Trade{{MarketID: "0xinjusdt", Price: 8.782e-12, Quantity: 1}}
	q.balances = []domain.Coin{
		{Denom: usdtDenom, Amount: "5000000"},
		{Denom: "inj", Amount: "2000000000000000000"},
	}
	q.positions = []domain.PositionRecord{
		{MarketID: "0xbtcperp", Direction: "long", Quantity: "0.1",
			EntryPrice: "42000", MarkPrice: "43500", Margin: "420"},
	}

	resolver := denom.NewResolver()
	c := cache.New()
	logger := zap.NewNop()
	tokens := NewTokenService(q, resolver, c, logger)
	markets := NewMarketService(q, resolver, c, logger)
	svc := NewPortfolioService(q, resolver, tokens, markets, logger)
	return svc, q
}

func TestPortfolio_BalancesValuedAndSorted(t *testing.T) {
	svc, _ := newPortfolioFixture()

	p, err := svc.GetPortfolio(context.Background(), testAddress)
	require.NoError(t, err)
	require.Len(t, p.Balances, 2)

	// Descending USD value: 2 INJ at 8.782 beats 5 USDT at 1.0.
	inj := p.Balances[0]
	require.Equal(t, "inj", inj.Denom)
	require.Equal(t, "INJ", inj.Symbol)
	require.Equal(t, "2000000000000000000", inj.Amount)
	require.Equal(t, "2", inj.AmountHuman)
	require.InDelta(t, 17.564, inj.ValueUSD, 1e-9)

	usdt := p.Balances[1]
	require.Equal(t, "5", usdt.AmountHuman)
	require.InDelta(t, 5.0, usdt.ValueUSD, 1e-9)

	require.InDelta(t, 22.564, p.Summary.TotalBalanceValueUSD, 1e-9)
}

func TestPortfolio_LongPositionPnL(t *testing.T) {
	svc, q := newPortfolioFixture()

	p, err := svc.GetPortfolio(context.Background(), testAddress)
	require.NoError(t, err)
	require.Len(t, p.DerivativePositions, 1)

	pos := p.DerivativePositions[0]
	require.Equal(t, "BTC/USDT PERP", pos.Ticker, "ticker resolved through the market catalog")
	require.Equal(t, domain.DirectionLong, pos.Direction)
	require.Equal(t, float64(150), pos.UnrealizedPnL)
	require.InDelta(t, 3.5714285714, pos.UnrealizedPnLPercent, 1e-9)

	require.Equal(t, float64(420), p.Summary.TotalPositionsValueUSD)
	require.Equal(t, float64(150), p.Summary.TotalUnrealizedPnL)
	require.Equal(t, 1, p.Summary.PositionsCount)
	require.InDelta(t, 22.564+420, p.TotalValueUSD, 1e-9)

	// Positions are fetched for the default (index 0) subaccount.
	require.Equal(t, q.accountID+defaultSubaccountSuffix, q.lastSubaccountID)
}

func TestPortfolio_ShortPositionPnL(t *testing.T) {
	svc, q := newPortfolioFixture()
	q.positions[0].Direction = "short"

	p, err := svc.GetPortfolio(context.Background(), testAddress)
	require.NoError(t, err)
	require.Equal(t, float64(-150), p.DerivativePositions[0].UnrealizedPnL)
}

func TestPortfolio_UnknownDirectionHasZeroPnL(t *testing.T) {
	svc, q := newPortfolioFixture()
	q.positions[0].Direction = "sideways"

	p, err := svc.GetPortfolio(context.Background(), testAddress)
	require.NoError(t, err)
	require.Equal(t, domain.DirectionUnknown, p.DerivativePositions[0].Direction)
	require.Zero(t, p.DerivativePositions[0].UnrealizedPnL)
}

func TestPortfolio_PositionFetchFailureDegrades(t *testing.T) {
	svc, q := newPortfolioFixture()
	q.positionsErr = errors.New("indexer timeout")

	p, err := svc.GetPortfolio(context.Background(), testAddress)
	require.NoError(t, err)
	require.Empty(t, p.DerivativePositions)
	require.Zero(t, p.Summary.PositionsCount)
	require.Len(t, p.Balances, 2, "balances still served")
}

func TestPortfolio_BalanceFetchFailureDegrades(t *testing.T) {
	svc, q := newPortfolioFixture()
	q.balancesErr = errors.New("lcd timeout")

	p, err := svc.GetPortfolio(context.Background(), testAddress)
	require.NoError(t, err)
	require.Empty(t, p.Balances)
	require.Len(t, p.DerivativePositions, 1, "positions still served")
}

func TestPortfolio_ResolveFailureIsFatal(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"typed error passes through", domain.NewInvalidInput("bad checksum", nil)},
		{"untyped error is wrapped", errors.New("boom")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, q := newPortfolioFixture()
			q.resolveErr = tt.err

			p, err := svc.GetPortfolio(context.Background(), "notanaddress")
			require.Nil(t, p)

			var derr *domain.Error
			require.ErrorAs(t, err, &derr)
			require.Equal(t, domain.CodeInvalidInput, derr.Code)

			require.Zero(t, q.callCount("GetBankBalances"), "no fetches after a failed resolve")
			require.Zero(t, q.callCount("GetDerivativePositions"))
		})
	}
}

func TestPortfolio_TimestampUsesInjectedClock(t *testing.T) {
	svc, _ := newPortfolioFixture()
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.FixedZone("UTC+2", 2*3600))
	svc.timeNow = func() time.Time { return fixed }

	p, err := svc.GetPortfolio(context.Background(), testAddress)
	require.NoError(t, err)
	require.True(t, p.Timestamp.Equal(fixed))
	require.Equal(t, time.UTC, p.Timestamp.Location())
}
