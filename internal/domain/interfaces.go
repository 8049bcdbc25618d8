package domain

import "context"

// ChainQuerier defines the upstream query surface the aggregation engine
// consumes. Implementations talk to the chain LCD and the exchange indexer;
// the engine itself never touches the wire.
type ChainQuerier interface {
	// ResolveAccountID maps a bech32 address to its 0x account identity.
	ResolveAccountID(ctx context.Context, address string) (string, error)

	GetBankBalances(ctx context.Context, address string) ([]Coin, error)
	GetDerivativePositions(ctx context.Context, subaccountID string) ([]PositionRecord, error)

	GetSpotMarkets(ctx context.Context) ([]SpotMarket, error)
	GetDerivativeMarkets(ctx context.Context) ([]DerivativeMarket, error)

	// Trades are returned newest first, bounded by limit.
	GetSpotTrades(ctx context.Context, marketID string, limit int) ([]Trade, error)
	GetDerivativeTrades(ctx context.Context, marketID string, limit int) ([]Trade, error)

	// Funding rates are returned newest first, bounded by limit.
	GetFundingRates(ctx context.Context, marketID string, limit int) ([]FundingRate, error)

	GetSpotOrderbook(ctx context.Context, marketID string) (*OrderBook, error)
	GetDerivativeOrderbook(ctx context.Context, marketID string) (*OrderBook, error)

	GetDenomsMetadata(ctx context.Context) ([]DenomMetadata, error)
}

// Coin is a bank balance entry. Amount is an integer string in base units;
// it can exceed float64 precision and must not be parsed as a float.
type Coin struct {
	Denom  string `json:"denom"`
	Amount string `json:"amount"`
}

// DenomMetadata is a chain-level symbol/name override for a denom.
type DenomMetadata struct {
	Denom    string `json:"denom"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals int    `json:"decimals"`
}
