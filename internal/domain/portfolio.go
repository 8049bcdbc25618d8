package domain

import "time"

type Direction string

const (
	DirectionLong    Direction = "long"
	DirectionShort   Direction = "short"
	DirectionUnknown Direction = "unknown"
)

// PositionRecord is a raw derivative position from the indexer. Numeric
// fields are decimal strings as returned by the chain.
type PositionRecord struct {
	MarketID     string
	SubaccountID string
	Direction    string
	Quantity     string
	EntryPrice   string
	MarkPrice    string
	Margin       string
}

// PortfolioBalance is one bank balance valued in USD. Amount is the raw
// integer string in base units, AmountHuman the decimal-adjusted form.
type PortfolioBalance struct {
	Denom       string  `json:"denom"`
	Symbol      string  `json:"symbol"`
	Amount      string  `json:"amount"`
	AmountHuman string  `json:"amount_human"`
	ValueUSD    float64 `json:"value_usd"`
}

type DerivativePosition struct {
	MarketID             string    `json:"market_id"`
	Ticker               string    `json:"ticker"`
	Direction            Direction `json:"direction"`
	Quantity             float64   `json:"quantity"`
	EntryPrice           float64   `json:"entry_price"`
	MarkPrice            float64   `json:"mark_price"`
	Margin               float64   `json:"margin"`
	UnrealizedPnL        float64   `json:"unrealized_pnl"`
	UnrealizedPnLPercent float64   `json:"unrealized_pnl_percent"`
}

type PortfolioSummary struct {
	TotalBalanceValueUSD   float64 `json:"total_balance_value_usd"`
	TotalPositionsValueUSD float64 `json:"total_positions_value_usd"`
	TotalUnrealizedPnL     float64 `json:"total_unrealized_pnl"`
	PositionsCount         int     `json:"positions_count"`
}

// PortfolioResponse is rebuilt from scratch on every request.
type PortfolioResponse struct {
	Address             string               `json:"address"`
	TotalValueUSD       float64              `json:"total_value_usd"`
	Balances            []PortfolioBalance   `json:"balances"`
	DerivativePositions []DerivativePosition `json:"derivative_positions"`
	Summary             PortfolioSummary     `json:"summary"`
	Timestamp           time.Time            `json:"timestamp"`
}
