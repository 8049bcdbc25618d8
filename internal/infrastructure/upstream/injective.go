package upstream

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/vitos/injective_dashboard/internal/domain"
	"github.com/vitos/injective_dashboard/internal/infrastructure/metrics"
)

const (
	DefaultLCDURL     = "https://sentry.lcd.injective.network"
	DefaultIndexerURL = "https://sentry.exchange.grpc-web.injective.network"

	accountHRP       = "inj"
	balancePageLimit = 200
)

type Config struct {
	LCDBaseURL     string
	IndexerBaseURL string
	Timeout        time.Duration
	RequestsPerSec float64
	Burst          int
}

// Client implements domain.ChainQuerier against the chain LCD and the
// exchange indexer. Calls are rate-limited client side and wrapped in a
// circuit breaker so a dead upstream sheds load fast instead of tying up
// request goroutines in timeouts.
type Client struct {
	lcdURL     string
	indexerURL string
	client     *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

func NewClient(cfg Config, m *metrics.Metrics, logger *zap.Logger) *Client {
	if cfg.LCDBaseURL == "" {
		cfg.LCDBaseURL = DefaultLCDURL
	}
	if cfg.IndexerBaseURL == "" {
		cfg.IndexerBaseURL = DefaultIndexerURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RequestsPerSec <= 0 {
		cfg.RequestsPerSec = 20
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 40
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "chain-upstream",
		Timeout: 15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("upstream breaker state change",
				zap.String("from", from.String()), zap.String("to", to.String()))
		},
	})

	return &Client{
		lcdURL:     cfg.LCDBaseURL,
		indexerURL: cfg.IndexerBaseURL,
		client:     &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), cfg.Burst),
		breaker:    breaker,
		metrics:    m,
		logger:     logger,
	}
}

// ResolveAccountID decodes a bech32 inj address into its 0x account
// identity. This is local decoding, not a network call; failure means the
// caller supplied a malformed address.
func (c *Client) ResolveAccountID(ctx context.Context, address string) (string, error) {
	hrp, data, err := bech32.Decode(address)
	if err != nil {
		return "", domain.NewInvalidInput("malformed bech32 address", err)
	}
	if hrp != accountHRP {
		return "", domain.NewInvalidInput(fmt.Sprintf("unexpected address prefix %q", hrp), nil)
	}
	raw, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return "", domain.NewInvalidInput("malformed bech32 payload", err)
	}
	if len(raw) != 20 {
		return "", domain.NewInvalidInput("unexpected account length", nil)
	}
	return "0x" + hex.EncodeToString(raw), nil
}

// --- LCD ---

func (c *Client) GetBankBalances(ctx context.Context, address string) ([]domain.Coin, error) {
	var result struct {
		Balances []struct {
			Denom  string `json:"denom"`
			Amount string `json:"amount"`
		} `json:"balances"`
	}
	path := fmt.Sprintf("%s/cosmos/bank/v1beta1/balances/%s?pagination.limit=%d",
		c.lcdURL, url.PathEscape(address), balancePageLimit)
	if err := c.get(ctx, "bank_balances", path, &result); err != nil {
		return nil, err
	}

	coins := make([]domain.Coin, 0, len(result.Balances))
	for _, b := range result.Balances {
		coins = append(coins, domain.Coin{Denom: b.Denom, Amount: b.Amount})
	}
	return coins, nil
}

func (c *Client) GetDenomsMetadata(ctx context.Context) ([]domain.DenomMetadata, error) {
	var result struct {
		Metadatas []struct {
			Base       string `json:"base"`
			Display    string `json:"display"`
			Symbol     string `json:"symbol"`
			Name       string `json:"name"`
			DenomUnits []struct {
				Denom    string `json:"denom"`
				Exponent int    `json:"exponent"`
			} `json:"denom_units"`
		} `json:"metadatas"`
	}
	path := c.lcdURL + "/cosmos/bank/v1beta1/denoms_metadata?pagination.limit=500"
	if err := c.get(ctx, "denoms_metadata", path, &result); err != nil {
		return nil, err
	}

	metas := make([]domain.DenomMetadata, 0, len(result.Metadatas))
	for _, m := range result.Metadatas {
		meta := domain.DenomMetadata{
			Denom:  m.Base,
			Symbol: m.Symbol,
			Name:   m.Name,
		}
		for _, u := range m.DenomUnits {
			if u.Denom == m.Display {
				meta.Decimals = u.Exponent
			}
		}
		metas = append(metas, meta)
	}
	return metas, nil
}

// --- Indexer: markets ---

type rawSpotMarket struct {
	MarketID            string `json:"marketId"`
	Ticker              string `json:"ticker"`
	BaseDenom           string `json:"baseDenom"`
	QuoteDenom          string `json:"quoteDenom"`
	MarketStatus        string `json:"marketStatus"`
	MinPriceTickSize    string `json:"minPriceTickSize"`
	MinQuantityTickSize string `json:"minQuantityTickSize"`
	Volume              string `json:"volume"`
	PriceChange24h      string `json:"priceChange24h"`
}

func (c *Client) GetSpotMarkets(ctx context.Context) ([]domain.SpotMarket, error) {
	var result struct {
		Markets []rawSpotMarket `json:"markets"`
	}
	path := c.indexerURL + "/api/exchange/spot/v1/markets"
	if err := c.get(ctx, "spot_markets", path, &result); err != nil {
		return nil, err
	}

	markets := make([]domain.SpotMarket, 0, len(result.Markets))
	for _, m := range result.Markets {
		markets = append(markets, domain.SpotMarket{
			MarketID:            m.MarketID,
			Ticker:              m.Ticker,
			BaseDenom:           m.BaseDenom,
			QuoteDenom:          m.QuoteDenom,
			Status:              m.MarketStatus,
			MinPriceTickSize:    parseFloat(m.MinPriceTickSize),
			MinQuantityTickSize: parseFloat(m.MinQuantityTickSize),
			Volume24h:           parseFloat(m.Volume),
			PriceChange24h:      parseFloat(m.PriceChange24h),
		})
	}
	return markets, nil
}

type rawDerivativeMarket struct {
	MarketID            string `json:"marketId"`
	Ticker              string `json:"ticker"`
	QuoteDenom          string `json:"quoteDenom"`
	OracleBase          string `json:"oracleBase"`
	OracleType          string `json:"oracleType"`
	MarketStatus        string `json:"marketStatus"`
	IsPerpetual         bool   `json:"isPerpetual"`
	MinPriceTickSize    string `json:"minPriceTickSize"`
	MinQuantityTickSize string `json:"minQuantityTickSize"`
	Volume              string `json:"volume"`
	PriceChange24h      string `json:"priceChange24h"`
}

func (c *Client) GetDerivativeMarkets(ctx context.Context) ([]domain.DerivativeMarket, error) {
	var result struct {
		Markets []rawDerivativeMarket `json:"markets"`
	}
	path := c.indexerURL + "/api/exchange/derivative/v1/markets"
	if err := c.get(ctx, "derivative_markets", path, &result); err != nil {
		return nil, err
	}

	markets := make([]domain.DerivativeMarket, 0, len(result.Markets))
	for _, m := range result.Markets {
		markets = append(markets, domain.DerivativeMarket{
			MarketID:            m.MarketID,
			Ticker:              m.Ticker,
			QuoteDenom:          m.QuoteDenom,
			OracleBase:          m.OracleBase,
			OracleType:          m.OracleType,
			Status:              m.MarketStatus,
			IsPerpetual:         m.IsPerpetual,
			MinPriceTickSize:    parseFloat(m.MinPriceTickSize),
			MinQuantityTickSize: parseFloat(m.MinQuantityTickSize),
			Volume24h:           parseFloat(m.Volume),
			PriceChange24h:      parseFloat(m.PriceChange24h),
		})
	}
	return markets, nil
}

// --- Indexer: trades, funding, orderbooks, positions ---

func (c *Client) GetSpotTrades(ctx context.Context, marketID string, limit int) ([]domain.Trade, error) {
	var result struct {
		Trades []struct {
			MarketID   string `json:"marketId"`
			Price      string `json:"price"`
			Quantity   string `json:"quantity"`
			ExecutedAt int64  `json:"executedAt"`
		} `json:"trades"`
	}
	path := fmt.Sprintf("%s/api/exchange/spot/v1/trades?marketId=%s&limit=%d",
		c.indexerURL, url.QueryEscape(marketID), limit)
	if err := c.get(ctx, "spot_trades", path, &result); err != nil {
		return nil, err
	}

	trades := make([]domain.Trade, 0, len(result.Trades))
	for _, t := range result.Trades {
		trades = append(trades, domain.Trade{
			MarketID:   t.MarketID,
			Price:      parseFloat(t.Price),
			Quantity:   parseFloat(t.Quantity),
			ExecutedAt: t.ExecutedAt,
		})
	}
	return trades, nil
}

func (c *Client) GetDerivativeTrades(ctx context.Context, marketID string, limit int) ([]domain.Trade, error) {
	var result struct {
		Trades []struct {
			MarketID      string `json:"marketId"`
			PositionDelta struct {
				ExecutionPrice    string `json:"executionPrice"`
				ExecutionQuantity string `json:"executionQuantity"`
			} `json:"positionDelta"`
			ExecutedAt int64 `json:"executedAt"`
		} `json:"trades"`
	}
	path := fmt.Sprintf("%s/api/exchange/derivative/v1/trades?marketId=%s&limit=%d",
		c.indexerURL, url.QueryEscape(marketID), limit)
	if err := c.get(ctx, "derivative_trades", path, &result); err != nil {
		return nil, err
	}

	trades := make([]domain.Trade, 0, len(result.Trades))
	for _, t := range result.Trades {
		trades = append(trades, domain.Trade{
			MarketID:   t.MarketID,
			Price:      parseFloat(t.PositionDelta.ExecutionPrice),
			Quantity:   parseFloat(t.PositionDelta.ExecutionQuantity),
			ExecutedAt: t.ExecutedAt,
		})
	}
	return trades, nil
}

func (c *Client) GetFundingRates(ctx context.Context, marketID string, limit int) ([]domain.FundingRate, error) {
	var result struct {
		FundingRates []struct {
			MarketID  string `json:"marketId"`
			Rate      string `json:"rate"`
			Timestamp int64  `json:"timestamp"`
		} `json:"fundingRates"`
	}
	path := fmt.Sprintf("%s/api/exchange/derivative/v1/fundingRates?marketId=%s&limit=%d",
		c.indexerURL, url.QueryEscape(marketID), limit)
	if err := c.get(ctx, "funding_rates", path, &result); err != nil {
		return nil, err
	}

	rates := make([]domain.FundingRate, 0, len(result.FundingRates))
	for _, r := range result.FundingRates {
		rates = append(rates, domain.FundingRate{
			MarketID:  r.MarketID,
			Rate:      parseFloat(r.Rate),
			Timestamp: r.Timestamp,
		})
	}
	return rates, nil
}

type rawOrderbook struct {
	Orderbook struct {
		Buys []struct {
			Price    string `json:"price"`
			Quantity string `json:"quantity"`
		} `json:"buys"`
		Sells []struct {
			Price    string `json:"price"`
			Quantity string `json:"quantity"`
		} `json:"sells"`
	} `json:"orderbook"`
}

func (c *Client) GetSpotOrderbook(ctx context.Context, marketID string) (*domain.OrderBook, error) {
	path := fmt.Sprintf("%s/api/exchange/spot/v1/orderbook/%s", c.indexerURL, url.PathEscape(marketID))
	return c.getOrderbook(ctx, "spot_orderbook", path, marketID)
}

func (c *Client) GetDerivativeOrderbook(ctx context.Context, marketID string) (*domain.OrderBook, error) {
	path := fmt.Sprintf("%s/api/exchange/derivative/v1/orderbook/%s", c.indexerURL, url.PathEscape(marketID))
	return c.getOrderbook(ctx, "derivative_orderbook", path, marketID)
}

func (c *Client) getOrderbook(ctx context.Context, endpoint, path, marketID string) (*domain.OrderBook, error) {
	var result rawOrderbook
	if err := c.get(ctx, endpoint, path, &result); err != nil {
		return nil, err
	}

	book := &domain.OrderBook{MarketID: marketID}
	for _, lvl := range result.Orderbook.Buys {
		book.Bids = append(book.Bids, domain.PriceLevel{
			Price:    parseFloat(lvl.Price),
			Quantity: parseFloat(lvl.Quantity),
		})
	}
	for _, lvl := range result.Orderbook.Sells {
		book.Asks = append(book.Asks, domain.PriceLevel{
			Price:    parseFloat(lvl.Price),
			Quantity: parseFloat(lvl.Quantity),
		})
	}
	return book, nil
}

func (c *Client) GetDerivativePositions(ctx context.Context, subaccountID string) ([]domain.PositionRecord, error) {
	var result struct {
		Positions []struct {
			MarketID     string `json:"marketId"`
			SubaccountID string `json:"subaccountId"`
			Direction    string `json:"direction"`
			Quantity     string `json:"quantity"`
			EntryPrice   string `json:"entryPrice"`
			MarkPrice    string `json:"markPrice"`
			Margin       string `json:"margin"`
		} `json:"positions"`
	}
	path := fmt.Sprintf("%s/api/exchange/derivative/v1/positions?subaccountId=%s",
		c.indexerURL, url.QueryEscape(subaccountID))
	if err := c.get(ctx, "derivative_positions", path, &result); err != nil {
		return nil, err
	}

	positions := make([]domain.PositionRecord, 0, len(result.Positions))
	for _, p := range result.Positions {
		positions = append(positions, domain.PositionRecord{
			MarketID:     p.MarketID,
			SubaccountID: p.SubaccountID,
			Direction:    p.Direction,
			Quantity:     p.Quantity,
			EntryPrice:   p.EntryPrice,
			MarkPrice:    p.MarkPrice,
			Margin:       p.Margin,
		})
	}
	return positions, nil
}

// --- transport ---

func (c *Client) get(ctx context.Context, endpoint, path string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	start := time.Now()
	_, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, path, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("status %d: %s", resp.StatusCode, truncate(body, 200))
		}
		if err := json.Unmarshal(body, out); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		return nil, nil
	})
	c.metrics.ObserveUpstream(endpoint, start, err)
	if err != nil {
		c.logger.Debug("upstream request failed",
			zap.String("endpoint", endpoint), zap.Error(err))
		return fmt.Errorf("%s: %w", endpoint, err)
	}
	return nil
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}
