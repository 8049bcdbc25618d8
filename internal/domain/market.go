package domain

type MarketType string

const (
	MarketTypeSpot       MarketType = "spot"
	MarketTypeDerivative MarketType = "derivative"
	MarketTypePerpetual  MarketType = "perpetual"
)

// SpotMarket is a raw spot market record from the indexer.
type SpotMarket struct {
	MarketID            string
	Ticker              string
	BaseDenom           string
	QuoteDenom          string
	Status              string
	MinPriceTickSize    float64
	MinQuantityTickSize float64
	Volume24h           float64
	PriceChange24h      float64
}

// DerivativeMarket is a raw derivative market record from the indexer.
type DerivativeMarket struct {
	MarketID            string
	Ticker              string
	QuoteDenom          string
	OracleBase          string
	OracleType          string
	Status              string
	IsPerpetual         bool
	MinPriceTickSize    float64
	MinQuantityTickSize float64
	Volume24h           float64
	PriceChange24h      float64
}

// MarketInfo is the unified catalog entry served to callers. Rebuilt
// wholesale on every catalog refresh, never patched in place.
type MarketInfo struct {
	MarketID            string     `json:"market_id"`
	Ticker              string     `json:"ticker"`
	Type                MarketType `json:"type"`
	BaseDenom           string     `json:"base_denom,omitempty"`
	QuoteDenom          string     `json:"quote_denom,omitempty"`
	BaseSymbol          string     `json:"base_symbol,omitempty"`
	QuoteSymbol         string     `json:"quote_symbol,omitempty"`
	Status              string     `json:"status"`
	MinPriceTickSize    float64    `json:"min_price_tick_size"`
	MinQuantityTickSize float64    `json:"min_quantity_tick_size"`
	LastPrice           float64    `json:"last_price"`
	FundingRate         float64    `json:"funding_rate,omitempty"`
	Volume24h           float64    `json:"volume_24h"`
	PriceChange24h      float64    `json:"price_change_24h"`
}

type Trade struct {
	MarketID   string
	Price      float64
	Quantity   float64
	ExecutedAt int64
}

type FundingRate struct {
	MarketID  string
	Rate      float64
	Timestamp int64
}

type PriceLevel struct {
	Price    float64 `json:"price"`
	Quantity float64 `json:"quantity"`
}

// OrderBook is a point-in-time snapshot. Bids are sorted descending by
// price, asks ascending, as delivered by the indexer.
type OrderBook struct {
	MarketID string       `json:"market_id"`
	Bids     []PriceLevel `json:"bids"`
	Asks     []PriceLevel `json:"asks"`
}

// MarketAnalytics is derived from a single orderbook snapshot.
type MarketAnalytics struct {
	MarketID       string  `json:"market_id"`
	Ticker         string  `json:"ticker"`
	TopBidPrice    float64 `json:"top_bid_price"`
	TopAskPrice    float64 `json:"top_ask_price"`
	MidPrice       float64 `json:"mid_price"`
	SpreadPercent  float64 `json:"spread_percent"`
	BidDepthUSD    float64 `json:"bid_depth_usd"`
	AskDepthUSD    float64 `json:"ask_depth_usd"`
	LiquidityScore float64 `json:"liquidity_score"`
}
