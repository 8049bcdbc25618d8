package usecase

import (
	"context"
	"sync"

	"github.com/vitos/injective_dashboard/internal/domain"
)

// mockQuerier is a configurable ChainQuerier double that counts calls per
// method so tests can assert TTL idempotence.
type mockQuerier struct {
	mu    sync.Mutex
	calls map[string]int

	accountID    string
	spotMarkets  []domain.SpotMarket
	derivMarkets []domain.DerivativeMarket
	denomMeta    []domain.DenomMetadata
	spotTrades   map[string][]domain.Trade
	derivTrades  map[string][]domain.Trade
	fundingRates map[string][]domain.FundingRate
	spotBooks    map[string]*domain.OrderBook
	derivBooks   map[string]*domain.OrderBook
	balances     []domain.Coin
	positions    []domain.PositionRecord

	lastSubaccountID string

	resolveErr    error
	balancesErr   error
	positionsErr  error
	spotTradesErr error
	orderbookErr  error
}

func newMockQuerier() *mockQuerier {
	return &mockQuerier{
		calls:        make(map[string]int),
		accountID:    "0x0102030405060708090a0b0c0d0e0f1011121314",
		spotTrades:   make(map[string][]domain.Trade),
		derivTrades:  make(map[string][]domain.Trade),
		fundingRates: make(map[string][]domain.FundingRate),
		spotBooks:    make(map[string]*domain.OrderBook),
		derivBooks:   make(map[string]*domain.OrderBook),
	}
}

func (m *mockQuerier) record(method string) {
	m.mu.Lock()
	m.calls[method]++
	m.mu.Unlock()
}

func (m *mockQuerier) callCount(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

func (m *mockQuerier) ResolveAccountID(ctx context.Context, address string) (string, error) {
	m.record("ResolveAccountID")
	if m.resolveErr != nil {
		return "", m.resolveErr
	}
	return m.accountID, nil
}

func (m *mockQuerier) GetBankBalances(ctx context.Context, address string) ([]domain.Coin, error) {
	m.record("GetBankBalances")
	if m.balancesErr != nil {
		return nil, m.balancesErr
	}
	return m.balances, nil
}

func (m *mockQuerier) GetDerivativePositions(ctx context.Context, subaccountID string) ([]domain.PositionRecord, error) {
	m.record("GetDerivativePositions")
	m.mu.Lock()
	m.lastSubaccountID = subaccountID
	m.mu.Unlock()
	if m.positionsErr != nil {
		return nil, m.positionsErr
	}
	return m.positions, nil
}

func (m *mockQuerier) GetSpotMarkets(ctx context.Context) ([]domain.SpotMarket, error) {
	m.record("GetSpotMarkets")
	return m.spotMarkets, nil
}

func (m *mockQuerier) GetDerivativeMarkets(ctx context.Context) ([]domain.DerivativeMarket, error) {
	m.record("GetDerivativeMarkets")
	return m.derivMarkets, nil
}

func (m *mockQuerier) GetSpotTrades(ctx context.Context, marketID string, limit int) ([]domain.Trade, error) {
	m.record("GetSpotTrades")
	if m.spotTradesErr != nil {
		return nil, m.spotTradesErr
	}
	return m.spotTrades[marketID], nil
}

func (m *mockQuerier) GetDerivativeTrades(ctx context.Context, marketID string, limit int) ([]domain.Trade, error) {
	m.record("GetDerivativeTrades")
	return m.derivTrades[marketID], nil
}

func (m *mockQuerier) GetFundingRates(ctx context.Context, marketID string, limit int) ([]domain.FundingRate, error) {
	m.record("GetFundingRates")
	return m.fundingRates[marketID], nil
}

func (m *mockQuerier) GetSpotOrderbook(ctx context.Context, marketID string) (*domain.OrderBook, error) {
	m.record("GetSpotOrderbook")
	if m.orderbookErr != nil {
		return nil, m.orderbookErr
	}
	return m.spotBooks[marketID], nil
}

func (m *mockQuerier) GetDerivativeOrderbook(ctx context.Context, marketID string) (*domain.OrderBook, error) {
	m.record("GetDerivativeOrderbook")
	if m.orderbookErr != nil {
		return nil, m.orderbookErr
	}
	return m.derivBooks[marketID], nil
}

func (m *mockQuerier) GetDenomsMetadata(ctx context.Context) ([]domain.DenomMetadata, error) {
	m.record("GetDenomsMetadata")
	return m.denomMeta, nil
}
